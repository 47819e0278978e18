package alert

import (
	"context"
	"time"

	"insidertrack/internal/repository"
)

// Cooldown suppresses repeated notifications for the same (rule, trade) pair.
// It reads the same alert_history rows the dispatcher appends, which makes it
// the defense-in-depth dedup layer for scheduler runs that rediscover a trade
// before store-level dedup would catch it.
type Cooldown struct {
	Repo   repository.Repository
	Window time.Duration
}

// ShouldNotify reports whether no delivery for (rule, trade) exists inside
// the window. On a query error it returns false: suppressing a duplicate is
// cheaper than double-sending.
func (c *Cooldown) ShouldNotify(ctx context.Context, ruleID, tradeID uint64) (bool, error) {
	if c == nil || c.Repo == nil {
		return false, nil
	}
	window := c.Window
	if window <= 0 {
		window = time.Hour
	}
	since := time.Now().UTC().Add(-window)
	count, err := c.Repo.CountAlertHistorySince(ctx, ruleID, tradeID, since)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
