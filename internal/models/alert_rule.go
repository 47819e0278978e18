package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// AlertRule is owned and edited by the surrounding application; the pipeline
// only ever reads it.
type AlertRule struct {
	ID              uint64           `gorm:"primaryKey;autoIncrement"`
	UserID          uint64           `gorm:"not null;index"`
	Ticker          *string          `gorm:"type:varchar(12);index"`
	MinValue        *decimal.Decimal `gorm:"type:numeric(24,4)"`
	MaxValue        *decimal.Decimal `gorm:"type:numeric(24,4)"`
	TransactionType *string          `gorm:"type:varchar(4)"`
	Roles           datatypes.JSON   `gorm:"type:jsonb"`
	Channels        datatypes.JSON   `gorm:"type:jsonb;not null"`
	WebhookURL      *string          `gorm:"type:text"`
	Email           *string          `gorm:"type:text"`
	Phone           *string          `gorm:"type:varchar(20)"`
	Active          bool             `gorm:"not null;default:true;index"`
	CreatedAt       time.Time        `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"type:timestamptz;autoUpdateTime"`
}

func (AlertRule) TableName() string {
	return "alert_rules"
}

// ChannelList decodes the configured channel names; malformed JSON reads as
// no channels rather than an error.
func (r AlertRule) ChannelList() []string {
	var out []string
	if len(r.Channels) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Channels, &out); err != nil {
		return nil
	}
	return out
}

func (r AlertRule) RoleList() []string {
	var out []string
	if len(r.Roles) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Roles, &out); err != nil {
		return nil
	}
	return out
}
