package models

import "time"

// Notification backs the in-app channel. Writes are synchronous with
// dispatch; the live client (and the websocket feed) reads the same table.
type Notification struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Title     string    `gorm:"type:text;not null"`
	Body      string    `gorm:"type:text"`
	TradeID   *uint64   `gorm:"index"`
	Read      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
