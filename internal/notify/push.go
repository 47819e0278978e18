package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"insidertrack/internal/config"
	"insidertrack/internal/models"
	"insidertrack/internal/repository"
)

// PushChannel delivers Web Push notifications to every active subscription of
// the rule's owner. A 410 Gone (or 404) from the push service means the
// subscription expired; the row is deactivated so it is never retried.
type PushChannel struct {
	Config config.PushConfig
	Repo   repository.Repository
	Logger *zap.Logger
}

func NewPushChannel(cfg config.PushConfig, repo repository.Repository, logger *zap.Logger) *PushChannel {
	return &PushChannel{Config: cfg, Repo: repo, Logger: logger}
}

func (c *PushChannel) Name() string { return "push" }

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

func (c *PushChannel) Send(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) error {
	if !c.Config.Enabled {
		return fmt.Errorf("push: channel disabled")
	}
	if c.Repo == nil {
		return fmt.Errorf("push: repository unavailable")
	}

	subs, err := c.Repo.ListActivePushSubscriptions(ctx, rule.UserID)
	if err != nil {
		return fmt.Errorf("push: list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return fmt.Errorf("push: user %d has no active subscriptions", rule.UserID)
	}

	msg := RenderMessage(trade)
	payload, err := json.Marshal(pushPayload{
		Title: msg.Title,
		Body:  msg.Body,
		Tag:   fmt.Sprintf("trade-%d", trade.ID),
	})
	if err != nil {
		return fmt.Errorf("push: marshal payload: %w", err)
	}

	delivered := 0
	var lastErr error
	for _, sub := range subs {
		err := c.sendOne(ctx, sub, payload)
		if err == nil {
			delivered++
			continue
		}
		lastErr = err
		if c.Logger != nil {
			c.Logger.Warn("push delivery failed",
				zap.Uint64("user_id", rule.UserID),
				zap.Error(err))
		}
	}
	if delivered == 0 {
		return fmt.Errorf("push: all subscriptions failed: %w", lastErr)
	}
	return nil
}

func (c *PushChannel) sendOne(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      c.Config.Subscriber,
		VAPIDPublicKey:  c.Config.VAPIDPublicKey,
		VAPIDPrivateKey: c.Config.VAPIDPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusGone, http.StatusNotFound:
		// Expired endpoint: deactivate instead of retrying forever.
		if derr := c.Repo.DeactivatePushSubscription(ctx, sub.Endpoint); derr != nil && c.Logger != nil {
			c.Logger.Warn("failed to deactivate expired push subscription", zap.Error(derr))
		}
		return fmt.Errorf("push endpoint gone (%d)", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("push service status %d", resp.StatusCode)
	}
	return nil
}
