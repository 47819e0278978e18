package alert

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"insidertrack/internal/models"
)

// Matches evaluates one rule against one trade. Pure conjunction: every set
// filter must pass; unset filters pass vacuously. Open-ended value bounds
// skip that side of the check.
func Matches(trade models.InsiderTrade, rule models.AlertRule) bool {
	if rule.Ticker != nil && *rule.Ticker != "" {
		if !strings.EqualFold(strings.TrimSpace(*rule.Ticker), trade.Ticker) {
			return false
		}
	}

	if rule.TransactionType != nil && *rule.TransactionType != "" {
		if !strings.EqualFold(*rule.TransactionType, trade.TransactionType) {
			return false
		}
	}

	if rule.MinValue != nil || rule.MaxValue != nil {
		value := tradeValue(trade)
		if rule.MinValue != nil && value.LessThan(*rule.MinValue) {
			return false
		}
		if rule.MaxValue != nil && value.GreaterThan(*rule.MaxValue) {
			return false
		}
	}

	if ruleRoles := rule.RoleList(); len(ruleRoles) > 0 {
		if !rolesIntersect(tradeRoles(trade), ruleRoles) {
			return false
		}
	}

	return true
}

// Significant is the noise-reduction pre-filter applied before any rule
// evaluation. minValue <= 0 disables it entirely; it is a policy knob, not a
// correctness gate.
func Significant(trade models.InsiderTrade, minValue decimal.Decimal) bool {
	if !minValue.IsPositive() {
		return true
	}
	return tradeValue(trade).GreaterThanOrEqual(minValue)
}

// tradeValue prefers the filed total and falls back to shares*price when the
// filing omitted it.
func tradeValue(trade models.InsiderTrade) decimal.Decimal {
	if trade.TotalValue != nil {
		return *trade.TotalValue
	}
	return trade.Shares.Mul(trade.PricePerShare)
}

func tradeRoles(trade models.InsiderTrade) []string {
	var out []string
	if len(trade.Roles) == 0 {
		return nil
	}
	// Roles are stored as a JSON string array; a malformed payload reads as
	// no roles, which fails role-filtered rules closed.
	if err := json.Unmarshal(trade.Roles, &out); err != nil {
		return nil
	}
	return out
}

func rolesIntersect(tradeRoles, ruleRoles []string) bool {
	for _, want := range ruleRoles {
		for _, have := range tradeRoles {
			if strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(have)) {
				return true
			}
		}
	}
	return false
}
