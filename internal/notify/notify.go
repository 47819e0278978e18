package notify

import (
	"context"

	"insidertrack/internal/models"
)

// Channel delivers one triggered alert over one medium. Implementations make
// a single attempt per trigger; retry policy lives with the caller's next
// scheduler run, never inside the channel.
type Channel interface {
	Name() string
	Send(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) error
}

// ChannelResult is the outcome of one delivery attempt, mirrored into one
// alert_history row.
type ChannelResult struct {
	Channel string
	Status  string
	Err     error
}
