package notify

import (
	"context"
	"fmt"

	"insidertrack/internal/models"
	"insidertrack/internal/repository"
)

// InAppChannel is the always-available fallback: a synchronous write into the
// notifications table the live client (and websocket feed) reads.
type InAppChannel struct {
	Repo repository.Repository
}

func NewInAppChannel(repo repository.Repository) *InAppChannel {
	return &InAppChannel{Repo: repo}
}

func (c *InAppChannel) Name() string { return "inapp" }

func (c *InAppChannel) Send(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) error {
	if c.Repo == nil {
		return fmt.Errorf("inapp: repository unavailable")
	}
	msg := RenderMessage(trade)
	tradeID := trade.ID
	return c.Repo.InsertNotification(ctx, &models.Notification{
		UserID:  rule.UserID,
		Title:   msg.Title,
		Body:    msg.Body,
		TradeID: &tradeID,
	})
}
