package alert

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"insidertrack/internal/models"
)

func mkTrade() models.InsiderTrade {
	total := decimal.NewFromInt(500000)
	return models.InsiderTrade{
		ID:              1,
		InsiderName:     "Jane Doe",
		InsiderKey:      "cik:1234567",
		Ticker:          "ACME",
		TransactionDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		FilingDate:      time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		TransactionType: models.TxTypeBuy,
		Shares:          decimal.NewFromInt(10000),
		PricePerShare:   decimal.NewFromInt(50),
		TotalValue:      &total,
		Roles:           datatypes.JSON([]byte(`["director","officer"]`)),
	}
}

func strPtr(s string) *string { return &s }

func decPtr(v int64) *decimal.Decimal { d := decimal.NewFromInt(v); return &d }

func TestMatches_EmptyRuleMatchesEverything(t *testing.T) {
	if !Matches(mkTrade(), models.AlertRule{}) {
		t.Fatalf("empty rule should match")
	}
}

func TestMatches_Ticker(t *testing.T) {
	trade := mkTrade()
	if !Matches(trade, models.AlertRule{Ticker: strPtr("acme")}) {
		t.Fatalf("ticker match should be case-insensitive")
	}
	if Matches(trade, models.AlertRule{Ticker: strPtr("OTHR")}) {
		t.Fatalf("wrong ticker should not match")
	}
}

func TestMatches_TransactionType(t *testing.T) {
	trade := mkTrade()
	if !Matches(trade, models.AlertRule{TransactionType: strPtr("BUY")}) {
		t.Fatalf("BUY rule should match BUY trade")
	}
	if Matches(trade, models.AlertRule{TransactionType: strPtr("SELL")}) {
		t.Fatalf("SELL rule should not match BUY trade")
	}
}

func TestMatches_ValueBounds(t *testing.T) {
	trade := mkTrade() // total value 500k

	if !Matches(trade, models.AlertRule{MinValue: decPtr(100000)}) {
		t.Fatalf("min below value should match")
	}
	if Matches(trade, models.AlertRule{MinValue: decPtr(600000)}) {
		t.Fatalf("min above value should not match")
	}
	if !Matches(trade, models.AlertRule{MaxValue: decPtr(600000)}) {
		t.Fatalf("max above value should match")
	}
	if Matches(trade, models.AlertRule{MaxValue: decPtr(100000)}) {
		t.Fatalf("max below value should not match")
	}
	if !Matches(trade, models.AlertRule{MinValue: decPtr(500000), MaxValue: decPtr(500000)}) {
		t.Fatalf("bounds are inclusive")
	}
}

func TestMatches_ValueFallsBackToSharesTimesPrice(t *testing.T) {
	trade := mkTrade()
	trade.TotalValue = nil // 10000 * 50 = 500k
	if !Matches(trade, models.AlertRule{MinValue: decPtr(400000)}) {
		t.Fatalf("computed value should satisfy min")
	}
	if Matches(trade, models.AlertRule{MinValue: decPtr(600000)}) {
		t.Fatalf("computed value should fail higher min")
	}
}

func TestMatches_Roles(t *testing.T) {
	trade := mkTrade()
	rule := models.AlertRule{Roles: datatypes.JSON([]byte(`["officer"]`))}
	if !Matches(trade, rule) {
		t.Fatalf("overlapping role should match")
	}
	rule.Roles = datatypes.JSON([]byte(`["ten_percent_owner"]`))
	if Matches(trade, rule) {
		t.Fatalf("disjoint roles should not match")
	}
}

func TestMatches_RoleRuleFailsClosedOnMalformedTradeRoles(t *testing.T) {
	trade := mkTrade()
	trade.Roles = datatypes.JSON([]byte(`{not json`))
	rule := models.AlertRule{Roles: datatypes.JSON([]byte(`["director"]`))}
	if Matches(trade, rule) {
		t.Fatalf("malformed trade roles should fail role-filtered rule")
	}
}

func TestMatches_Conjunction(t *testing.T) {
	trade := mkTrade()
	rule := models.AlertRule{
		Ticker:          strPtr("ACME"),
		TransactionType: strPtr("BUY"),
		MinValue:        decPtr(100000),
		Roles:           datatypes.JSON([]byte(`["director"]`)),
	}
	if !Matches(trade, rule) {
		t.Fatalf("all filters pass, should match")
	}
	rule.TransactionType = strPtr("SELL")
	if Matches(trade, rule) {
		t.Fatalf("one failing filter should reject")
	}
}

func TestSignificant(t *testing.T) {
	trade := mkTrade() // 500k
	if !Significant(trade, decimal.Zero) {
		t.Fatalf("zero threshold disables the filter")
	}
	if !Significant(trade, decimal.NewFromInt(-1)) {
		t.Fatalf("negative threshold disables the filter")
	}
	if !Significant(trade, decimal.NewFromInt(500000)) {
		t.Fatalf("threshold equal to value passes")
	}
	if Significant(trade, decimal.NewFromInt(500001)) {
		t.Fatalf("threshold above value filters out")
	}
}
