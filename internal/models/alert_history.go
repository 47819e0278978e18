package models

import "time"

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// AlertHistory is append-only: one row per (rule, trade, channel) delivery
// attempt. The notification cooldown reads it to suppress repeats.
type AlertHistory struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	RuleID    uint64    `gorm:"not null;index:idx_alert_history_pair,priority:1"`
	TradeID   uint64    `gorm:"not null;index:idx_alert_history_pair,priority:2"`
	Channel   string    `gorm:"type:varchar(20);not null"`
	Status    string    `gorm:"type:varchar(10);not null"`
	Error     *string   `gorm:"type:text"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index:idx_alert_history_pair,priority:3"`
}

func (AlertHistory) TableName() string {
	return "alert_history"
}
