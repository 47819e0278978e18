package models

import "time"

// ProcessedFiling is the idempotency ledger. A row exists iff the filing's
// trades (possibly zero) were committed in the same transaction; its
// existence, not its content, is the gate against re-ingestion.
type ProcessedFiling struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement"`
	AccessionNumber string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	FilingURL       string    `gorm:"type:text"`
	FilingDate      time.Time `gorm:"type:date;not null"`
	Ticker          string    `gorm:"type:varchar(12);not null;index"`
	TradeCount      int       `gorm:"not null;default:0"`
	ProcessedAt     time.Time `gorm:"type:timestamptz;not null;index"`
}

func (ProcessedFiling) TableName() string {
	return "processed_filings"
}
