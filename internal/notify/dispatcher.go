package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"insidertrack/internal/metrics"
	"insidertrack/internal/models"
	"insidertrack/internal/repository"
)

// Dispatcher fans one triggered alert out to every channel configured on the
// rule. Channels are attempted independently: a failure is recorded and never
// blocks, rolls back or reorders another channel's delivery. Each attempt
// appends exactly one alert_history row.
type Dispatcher struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	channels map[string]Channel
}

func NewDispatcher(repo repository.Repository, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		Repo:     repo,
		Logger:   logger,
		channels: map[string]Channel{},
	}
}

// Register binds a channel implementation under one or more rule-facing
// names ("slack" and "discord" alias the webhook channel).
func (d *Dispatcher) Register(ch Channel, names ...string) {
	if ch == nil {
		return
	}
	if len(names) == 0 {
		names = []string{ch.Name()}
	}
	for _, name := range names {
		d.channels[strings.ToLower(strings.TrimSpace(name))] = ch
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade) []ChannelResult {
	if d == nil {
		return nil
	}
	configured := rule.ChannelList()
	results := make([]ChannelResult, 0, len(configured))

	for _, name := range configured {
		key := strings.ToLower(strings.TrimSpace(name))
		ch, ok := d.channels[key]
		if !ok {
			d.record(ctx, rule, trade, key, ChannelResult{
				Channel: key,
				Status:  models.DeliveryFailed,
				Err:     errUnknownChannel(key),
			})
			results = append(results, ChannelResult{Channel: key, Status: models.DeliveryFailed, Err: errUnknownChannel(key)})
			continue
		}

		res := ChannelResult{Channel: key, Status: models.DeliverySent}
		if err := ch.Send(ctx, rule, trade); err != nil {
			res.Status = models.DeliveryFailed
			res.Err = err
			if d.Logger != nil {
				d.Logger.Warn("channel delivery failed",
					zap.String("channel", key),
					zap.Uint64("rule_id", rule.ID),
					zap.Uint64("trade_id", trade.ID),
					zap.Error(err))
			}
		}
		d.record(ctx, rule, trade, key, res)
		results = append(results, res)
	}
	return results
}

func (d *Dispatcher) record(ctx context.Context, rule models.AlertRule, trade models.InsiderTrade, channel string, res ChannelResult) {
	metrics.AlertDeliveriesTotal.WithLabelValues(channel, res.Status).Inc()
	if d.Repo == nil {
		return
	}
	row := &models.AlertHistory{
		RuleID:  rule.ID,
		TradeID: trade.ID,
		Channel: channel,
		Status:  res.Status,
	}
	if res.Err != nil {
		detail := res.Err.Error()
		if len(detail) > 500 {
			detail = detail[:500]
		}
		row.Error = &detail
	}
	if err := d.Repo.InsertAlertHistory(ctx, row); err != nil && d.Logger != nil {
		d.Logger.Error("failed to record alert history",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

type unknownChannelError string

func (e unknownChannelError) Error() string {
	return "notify: no channel registered for " + string(e)
}

func errUnknownChannel(name string) error {
	return unknownChannelError(name)
}
