package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ChamberHouse  = "HOUSE"
	ChamberSenate = "SENATE"
)

// CongressionalTrade is a normalized STOCK Act disclosure. Disclosures report
// dollar ranges, not exact values; AmountEstimate is the range midpoint and
// may be nil when the range string could not be parsed.
type CongressionalTrade struct {
	ID              uint64           `gorm:"primaryKey;autoIncrement"`
	Politician      string           `gorm:"type:text;not null;uniqueIndex:uq_congress_natural,priority:1"`
	Chamber         string           `gorm:"type:varchar(6);not null;index"`
	Ticker          string           `gorm:"type:varchar(12);not null;index;uniqueIndex:uq_congress_natural,priority:2"`
	TransactionType string           `gorm:"type:varchar(4);not null;uniqueIndex:uq_congress_natural,priority:4"`
	AmountMin       *decimal.Decimal `gorm:"type:numeric(24,4)"`
	AmountMax       *decimal.Decimal `gorm:"type:numeric(24,4)"`
	AmountEstimate  *decimal.Decimal `gorm:"type:numeric(24,4)"`
	TransactionDate time.Time        `gorm:"type:date;not null;index;uniqueIndex:uq_congress_natural,priority:3"`
	DisclosureDate  *time.Time       `gorm:"type:date"`
	Source          string           `gorm:"type:varchar(30);not null;uniqueIndex:uq_congress_natural,priority:5"`
	CreatedAt       time.Time        `gorm:"type:timestamptz;autoCreateTime"`
}

func (CongressionalTrade) TableName() string {
	return "congressional_trades"
}
