package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"insidertrack/internal/alert"
	"insidertrack/internal/config"
	"insidertrack/internal/models"
	"insidertrack/internal/notify"
	"insidertrack/internal/repository"
)

// AlertPipeline evaluates newly persisted trades against every active rule
// and dispatches matches. Evaluation is exhaustive: one trade may trigger
// zero, one or many rules, and no rule short-circuits another.
type AlertPipeline struct {
	Repo       repository.Repository
	Cooldown   *alert.Cooldown
	Dispatcher *notify.Dispatcher
	Config     config.AlertsConfig
	Logger     *zap.Logger
}

func (p *AlertPipeline) Evaluate(ctx context.Context, trades []models.InsiderTrade) {
	if p == nil || p.Repo == nil || p.Dispatcher == nil || len(trades) == 0 {
		return
	}

	rules, err := p.Repo.ListActiveAlertRules(ctx)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Error("failed to load alert rules", zap.Error(err))
		}
		return
	}
	if len(rules) == 0 {
		return
	}

	minValue := decimal.NewFromFloat(p.Config.MinTradeValue)

	for _, trade := range trades {
		if !alert.Significant(trade, minValue) {
			continue
		}
		for _, rule := range rules {
			if !alert.Matches(trade, rule) {
				continue
			}
			if p.Cooldown != nil {
				ok, err := p.Cooldown.ShouldNotify(ctx, rule.ID, trade.ID)
				if err != nil && p.Logger != nil {
					p.Logger.Warn("cooldown check failed, suppressing",
						zap.Uint64("rule_id", rule.ID),
						zap.Uint64("trade_id", trade.ID),
						zap.Error(err))
				}
				if !ok {
					continue
				}
			}
			results := p.Dispatcher.Dispatch(ctx, rule, trade)
			if p.Logger != nil {
				sent, failed := 0, 0
				for _, r := range results {
					if r.Status == models.DeliverySent {
						sent++
					} else {
						failed++
					}
				}
				p.Logger.Info("alert dispatched",
					zap.Uint64("rule_id", rule.ID),
					zap.Uint64("trade_id", trade.ID),
					zap.String("ticker", trade.Ticker),
					zap.Int("sent", sent),
					zap.Int("failed", failed))
			}
		}
	}
}
