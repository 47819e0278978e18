package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"insidertrack/internal/models"
)

// Repository is the persistence surface of the ingestion pipeline. The
// pipeline appends to insider_trades, processed_filings, congressional_trades,
// alert_history and notifications; alert_rules are read-only here.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// ClaimFilingTx is the atomic insert-if-absent ledger claim. It returns
	// false when another worker already holds the accession number. Must run
	// inside the same transaction as the trade inserts for that filing.
	ClaimFilingTx(ctx context.Context, tx *gorm.DB, filing *models.ProcessedFiling) (bool, error)

	// InsertTradesTx persists trade drafts, silently skipping natural-key
	// duplicates. Returns the number of rows actually inserted.
	InsertTradesTx(ctx context.Context, tx *gorm.DB, trades []models.InsiderTrade) (int, error)

	UpdateFilingTradeCountTx(ctx context.Context, tx *gorm.DB, accessionNumber string, count int) error

	FindTradesByAccession(ctx context.Context, accessionNumber string) ([]models.InsiderTrade, error)

	ListActiveCompanies(ctx context.Context) ([]models.Company, error)
	UpsertCompany(ctx context.Context, item *models.Company) error

	// LastProcessedByTicker reports MAX(processed_at) per ticker from the
	// filing ledger; the scheduler derives its per-entity cooldown from it.
	LastProcessedByTicker(ctx context.Context) (map[string]time.Time, error)

	ListActiveAlertRules(ctx context.Context) ([]models.AlertRule, error)

	InsertAlertHistory(ctx context.Context, item *models.AlertHistory) error
	CountAlertHistorySince(ctx context.Context, ruleID, tradeID uint64, since time.Time) (int64, error)

	InsertCongressionalTrades(ctx context.Context, items []models.CongressionalTrade) (int, error)

	InsertNotification(ctx context.Context, item *models.Notification) error
	ListNotificationsAfter(ctx context.Context, userID uint64, afterID uint64, limit int) ([]models.Notification, error)
	LatestNotificationID(ctx context.Context, userID uint64) (uint64, error)

	ListActivePushSubscriptions(ctx context.Context, userID uint64) ([]models.PushSubscription, error)
	DeactivatePushSubscription(ctx context.Context, endpoint string) error

	InsertIngestionRun(ctx context.Context, item *models.IngestionRun) error
	FinishIngestionRun(ctx context.Context, item *models.IngestionRun) error
	ListIngestionRuns(ctx context.Context, kind string, limit int) ([]models.IngestionRun, error)
}
