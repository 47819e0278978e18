package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"insidertrack/internal/models"
	"insidertrack/internal/repository"
)

type stubFeedRepo struct {
	repository.Repository

	mu      sync.Mutex
	latest  uint64
	items   []models.Notification
	afterID []uint64
}

func (s *stubFeedRepo) LatestNotificationID(ctx context.Context, userID uint64) (uint64, error) {
	return s.latest, nil
}

func (s *stubFeedRepo) ListNotificationsAfter(ctx context.Context, userID, afterID uint64, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterID = append(s.afterID, afterID)
	var out []models.Notification
	for _, n := range s.items {
		if n.UserID == userID && n.ID > afterID {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestNotificationFeed_CursorStartsAtNewestStored(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := &stubFeedRepo{
		latest: 42,
		items: []models.Notification{
			{ID: 41, UserID: 7, Title: "stale"},
			{ID: 42, UserID: 7, Title: "stale"},
			{ID: 43, UserID: 7, Title: "fresh"},
		},
	}
	h := &NotificationFeedHandler{Repo: repo, PollInterval: 10 * time.Millisecond}
	engine := gin.New()
	h.Register(engine)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws/notifications?user_id=7"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, raw, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var frame models.Notification
	if err := json.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.ID != 43 {
		t.Fatalf("frame id=%d want=43, backlog must not replay", frame.ID)
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.afterID) == 0 || repo.afterID[0] != 42 {
		t.Fatalf("first poll cursor=%v want=[42 ...]", repo.afterID)
	}
}
