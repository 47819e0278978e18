package models

import "time"

// Company is an issuer tracked for Form 4 ingestion. CIK is the SEC central
// index key; companies without one are skipped by the scheduler.
type Company struct {
	Ticker    string    `gorm:"primaryKey;type:varchar(12)"`
	Name      string    `gorm:"type:text;not null"`
	CIK       *string   `gorm:"type:varchar(10);index"`
	Active    bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}
