package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"insidertrack/internal/repository"
)

// NotificationFeedHandler streams newly appended in-app notifications over a
// websocket. The feed polls the same notifications table the dispatcher
// writes, so the live client and the stored inbox can never disagree.
type NotificationFeedHandler struct {
	Repo         repository.Repository
	Logger       *zap.Logger
	PollInterval time.Duration
}

func (h *NotificationFeedHandler) Register(r *gin.Engine) {
	r.GET("/ws/notifications", h.stream)
}

func (h *NotificationFeedHandler) stream(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64)
	if err != nil || userID == 0 {
		Error(c, http.StatusBadRequest, "user_id required", nil)
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	interval := h.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ctx := c.Request.Context()
	var cursor uint64

	// Park the cursor at the newest stored notification so reconnecting
	// clients only see notifications created after attach.
	if latest, err := h.Repo.LatestNotificationID(ctx, userID); err == nil {
		cursor = latest
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			items, err := h.Repo.ListNotificationsAfter(ctx, userID, cursor, 100)
			if err != nil {
				if h.Logger != nil {
					h.Logger.Warn("notification feed query failed", zap.Error(err))
				}
				continue
			}
			for _, item := range items {
				if err := h.writeFrame(ctx, conn, item); err != nil {
					return
				}
				cursor = item.ID
			}
		}
	}
}

func (h *NotificationFeedHandler) writeFrame(ctx context.Context, conn *websocket.Conn, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, raw)
}
