package db

import (
	"insidertrack/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Company{},
		&models.ProcessedFiling{},
		&models.InsiderTrade{},
		&models.CongressionalTrade{},
		&models.AlertRule{},
		&models.AlertHistory{},
		&models.Notification{},
		&models.PushSubscription{},
		&models.IngestionRun{},
	)
}
