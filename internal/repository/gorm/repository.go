package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"insidertrack/internal/models"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Filing ledger / trade store --------------------------------------------

func (s *Store) ClaimFilingTx(ctx context.Context, tx *gorm.DB, filing *models.ProcessedFiling) (bool, error) {
	if tx == nil || filing == nil {
		return false, nil
	}
	if strings.TrimSpace(filing.AccessionNumber) == "" {
		return false, nil
	}
	if filing.ProcessedAt.IsZero() {
		filing.ProcessedAt = time.Now().UTC()
	}
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "accession_number"}},
		DoNothing: true,
	}).Create(filing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) InsertTradesTx(ctx context.Context, tx *gorm.DB, trades []models.InsiderTrade) (int, error) {
	if tx == nil || len(trades) == 0 {
		return 0, nil
	}
	inserted := 0
	for i := range trades {
		res := tx.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "insider_key"},
				{Name: "ticker"},
				{Name: "transaction_date"},
				{Name: "shares"},
				{Name: "price_per_share"},
				{Name: "transaction_type"},
			},
			DoNothing: true,
		}).Create(&trades[i])
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

func (s *Store) UpdateFilingTradeCountTx(ctx context.Context, tx *gorm.DB, accessionNumber string, count int) error {
	if tx == nil || strings.TrimSpace(accessionNumber) == "" {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.ProcessedFiling{}).
		Where("accession_number = ?", accessionNumber).
		Update("trade_count", count).Error
}

func (s *Store) FindTradesByAccession(ctx context.Context, accessionNumber string) ([]models.InsiderTrade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.InsiderTrade
	if err := s.db.WithContext(ctx).
		Where("accession_number = ?", accessionNumber).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Companies ---------------------------------------------------------------

func (s *Store) ListActiveCompanies(ctx context.Context) ([]models.Company, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Company
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("ticker asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpsertCompany(ctx context.Context, item *models.Company) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Ticker) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "cik", "active", "updated_at"}),
	}).Create(item).Error
}

func (s *Store) LastProcessedByTicker(ctx context.Context) (map[string]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	type row struct {
		Ticker string
		Last   time.Time
	}
	var rows []row
	if err := s.db.WithContext(ctx).
		Model(&models.ProcessedFiling{}).
		Select("ticker, MAX(processed_at) AS last").
		Group("ticker").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		out[r.Ticker] = r.Last
	}
	return out, nil
}

// --- Alert rules & history ---------------------------------------------------

func (s *Store) ListActiveAlertRules(ctx context.Context) ([]models.AlertRule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.AlertRule
	if err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) InsertAlertHistory(ctx context.Context, item *models.AlertHistory) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) CountAlertHistorySince(ctx context.Context, ruleID, tradeID uint64, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AlertHistory{}).
		Where("rule_id = ?", ruleID).
		Where("trade_id = ?", tradeID).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// --- Congressional trades ----------------------------------------------------

func (s *Store) InsertCongressionalTrades(ctx context.Context, items []models.CongressionalTrade) (int, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	inserted := 0
	for i := range items {
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "politician"},
				{Name: "ticker"},
				{Name: "transaction_date"},
				{Name: "transaction_type"},
				{Name: "source"},
			},
			DoNothing: true,
		}).Create(&items[i])
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

// --- Notifications & push ----------------------------------------------------

func (s *Store) InsertNotification(ctx context.Context, item *models.Notification) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListNotificationsAfter(ctx context.Context, userID uint64, afterID uint64, limit int) ([]models.Notification, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []models.Notification
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) LatestNotificationID(ctx context.Context, userID uint64) (uint64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var item models.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(1).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.ID, nil
}

func (s *Store) ListActivePushSubscriptions(ctx context.Context, userID uint64) ([]models.PushSubscription, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PushSubscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeactivatePushSubscription(ctx context.Context, endpoint string) error {
	if s == nil || s.db == nil || strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.PushSubscription{}).
		Where("endpoint = ?", endpoint).
		Update("active", false).Error
}

// --- Ingestion runs ----------------------------------------------------------

func (s *Store) InsertIngestionRun(ctx context.Context, item *models.IngestionRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) FinishIngestionRun(ctx context.Context, item *models.IngestionRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.IngestionRun{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"finished_at": item.FinishedAt,
			"succeeded":   item.Succeeded,
			"failed":      item.Failed,
			"skipped":     item.Skipped,
			"trades":      item.Trades,
			"stats_json":  item.StatsJSON,
		}).Error
}

func (s *Store) ListIngestionRuns(ctx context.Context, kind string, limit int) ([]models.IngestionRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	query := s.db.WithContext(ctx).Model(&models.IngestionRun{})
	if strings.TrimSpace(kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(kind))
	}
	var items []models.IngestionRun
	if err := query.Order("started_at desc").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
