package service

import (
	"sort"
	"time"

	"insidertrack/internal/models"
)

// SelectCompanies applies the scheduler's fairness policy: companies without
// a CIK are excluded, companies scanned within the cooldown window are
// excluded, and the remainder is capped at maxPerRun with the
// longest-unscanned first. Pure function; the ledger's atomic claim is the
// real concurrency guard.
func SelectCompanies(companies []models.Company, lastProcessed map[string]time.Time, now time.Time, cooldown time.Duration, maxPerRun int) []models.Company {
	type scored struct {
		company models.Company
		last    time.Time
	}

	eligible := make([]scored, 0, len(companies))
	for _, c := range companies {
		if c.CIK == nil || *c.CIK == "" {
			continue
		}
		last, seen := lastProcessed[c.Ticker]
		if seen && cooldown > 0 && now.Sub(last) < cooldown {
			continue
		}
		eligible = append(eligible, scored{company: c, last: last})
	}

	// Never-scanned companies have a zero last timestamp and sort first.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].last.Before(eligible[j].last)
	})

	if maxPerRun > 0 && len(eligible) > maxPerRun {
		eligible = eligible[:maxPerRun]
	}

	out := make([]models.Company, 0, len(eligible))
	for _, e := range eligible {
		out = append(out, e.company)
	}
	return out
}
