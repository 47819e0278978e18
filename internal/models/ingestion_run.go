package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunKindFilings  = "filings"
	RunKindCongress = "congress"
)

// IngestionRun is the per-run summary surfaced to the admin API: counts per
// outcome, never raw errors.
type IngestionRun struct {
	ID         string         `gorm:"primaryKey;type:varchar(36)"`
	Kind       string         `gorm:"type:varchar(10);not null;index"`
	StartedAt  time.Time      `gorm:"type:timestamptz;not null;index"`
	FinishedAt *time.Time     `gorm:"type:timestamptz"`
	Succeeded  int            `gorm:"not null;default:0"`
	Failed     int            `gorm:"not null;default:0"`
	Skipped    int            `gorm:"not null;default:0"`
	Trades     int            `gorm:"not null;default:0"`
	StatsJSON  datatypes.JSON `gorm:"type:jsonb"`
}

func (IngestionRun) TableName() string {
	return "ingestion_runs"
}
