package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TxTypeBuy  = "BUY"
	TxTypeSell = "SELL"
)

const (
	OwnershipDirect   = "DIRECT"
	OwnershipIndirect = "INDIRECT"
)

// InsiderTrade is one normalized transaction from a Form 4 filing. The
// composite unique index is the natural key: re-processed filings and
// amendments re-reporting an identical transaction dedup against it.
type InsiderTrade struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement"`
	InsiderName     string          `gorm:"type:text;not null"`
	InsiderKey      string          `gorm:"type:varchar(120);not null;uniqueIndex:uq_trade_natural,priority:1"`
	Ticker          string          `gorm:"type:varchar(12);not null;index;uniqueIndex:uq_trade_natural,priority:2"`
	CompanyName     string          `gorm:"type:text"`
	TransactionDate time.Time       `gorm:"type:date;not null;index;uniqueIndex:uq_trade_natural,priority:3"`
	FilingDate      time.Time       `gorm:"type:date;not null"`
	TransactionType string          `gorm:"type:varchar(4);not null;uniqueIndex:uq_trade_natural,priority:6"`
	Shares          decimal.Decimal `gorm:"type:numeric(20,4);not null;uniqueIndex:uq_trade_natural,priority:4"`
	PricePerShare   decimal.Decimal `gorm:"type:numeric(20,4);not null;uniqueIndex:uq_trade_natural,priority:5"`

	// TotalValue is nullable: some filings omit a price and the value is
	// estimated downstream.
	TotalValue *decimal.Decimal `gorm:"type:numeric(24,4);index"`

	OwnershipType   string         `gorm:"type:varchar(10);not null;default:'DIRECT'"`
	IsDerivative    bool           `gorm:"not null;default:false"`
	SecurityTitle   string         `gorm:"type:text"`
	Roles           datatypes.JSON `gorm:"type:jsonb"`
	AccessionNumber string         `gorm:"type:varchar(30);not null;index"`
	CreatedAt       time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (InsiderTrade) TableName() string {
	return "insider_trades"
}
