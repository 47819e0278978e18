package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"insidertrack/internal/models"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Claim semantics mirror the store: first insert of an accession number wins,
// later attempts return false; trade inserts dedup on the natural key.
type stubRepo struct {
	mu sync.Mutex

	companies     []models.Company
	lastProcessed map[string]time.Time
	rules         []models.AlertRule

	filings       map[string]*models.ProcessedFiling
	trades        []models.InsiderTrade
	congressional []models.CongressionalTrade
	history       []models.AlertHistory
	notifications []models.Notification
	subscriptions []models.PushSubscription
	runs          map[string]*models.IngestionRun

	claimErr  error
	insertErr error
	findErr   error
	nextID    uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		lastProcessed: map[string]time.Time{},
		filings:       map[string]*models.ProcessedFiling{},
		runs:          map[string]*models.IngestionRun{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) ClaimFilingTx(ctx context.Context, tx *gorm.DB, filing *models.ProcessedFiling) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, s.claimErr
	}
	if _, exists := s.filings[filing.AccessionNumber]; exists {
		return false, nil
	}
	cp := *filing
	s.filings[filing.AccessionNumber] = &cp
	return true, nil
}

func (s *stubRepo) InsertTradesTx(ctx context.Context, tx *gorm.DB, trades []models.InsiderTrade) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	inserted := 0
	for _, t := range trades {
		if s.hasTradeLocked(t) {
			continue
		}
		s.nextID++
		t.ID = s.nextID
		s.trades = append(s.trades, t)
		inserted++
	}
	return inserted, nil
}

func (s *stubRepo) hasTradeLocked(t models.InsiderTrade) bool {
	for _, have := range s.trades {
		if have.InsiderKey == t.InsiderKey &&
			have.Ticker == t.Ticker &&
			have.TransactionDate.Equal(t.TransactionDate) &&
			have.Shares.Equal(t.Shares) &&
			have.PricePerShare.Equal(t.PricePerShare) &&
			have.TransactionType == t.TransactionType {
			return true
		}
	}
	return false
}

func (s *stubRepo) UpdateFilingTradeCountTx(ctx context.Context, tx *gorm.DB, accessionNumber string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.filings[accessionNumber]; ok {
		f.TradeCount = count
	}
	return nil
}

func (s *stubRepo) FindTradesByAccession(ctx context.Context, accessionNumber string) ([]models.InsiderTrade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []models.InsiderTrade
	for _, t := range s.trades {
		if t.AccessionNumber == accessionNumber {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubRepo) ListActiveCompanies(ctx context.Context) ([]models.Company, error) {
	return s.companies, nil
}

func (s *stubRepo) UpsertCompany(ctx context.Context, item *models.Company) error {
	s.companies = append(s.companies, *item)
	return nil
}

func (s *stubRepo) LastProcessedByTicker(ctx context.Context) (map[string]time.Time, error) {
	return s.lastProcessed, nil
}

func (s *stubRepo) ListActiveAlertRules(ctx context.Context) ([]models.AlertRule, error) {
	return s.rules, nil
}

func (s *stubRepo) InsertAlertHistory(ctx context.Context, item *models.AlertHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, *item)
	return nil
}

func (s *stubRepo) CountAlertHistorySince(ctx context.Context, ruleID, tradeID uint64, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, h := range s.history {
		if h.RuleID == ruleID && h.TradeID == tradeID && !h.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) InsertCongressionalTrades(ctx context.Context, items []models.CongressionalTrade) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.congressional = append(s.congressional, items...)
	return len(items), nil
}

func (s *stubRepo) InsertNotification(ctx context.Context, item *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *item)
	return nil
}

func (s *stubRepo) ListNotificationsAfter(ctx context.Context, userID, afterID uint64, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (s *stubRepo) LatestNotificationID(ctx context.Context, userID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max uint64
	for _, n := range s.notifications {
		if n.UserID == userID && n.ID > max {
			max = n.ID
		}
	}
	return max, nil
}

func (s *stubRepo) ListActivePushSubscriptions(ctx context.Context, userID uint64) ([]models.PushSubscription, error) {
	return s.subscriptions, nil
}

func (s *stubRepo) DeactivatePushSubscription(ctx context.Context, endpoint string) error {
	return nil
}

func (s *stubRepo) InsertIngestionRun(ctx context.Context, item *models.IngestionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *item
	s.runs[item.ID] = &cp
	return nil
}

func (s *stubRepo) FinishIngestionRun(ctx context.Context, item *models.IngestionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[item.ID]; ok {
		run.FinishedAt = item.FinishedAt
		run.Succeeded = item.Succeeded
		run.Failed = item.Failed
		run.Skipped = item.Skipped
		run.Trades = item.Trades
		run.StatsJSON = item.StatsJSON
	}
	return nil
}

func (s *stubRepo) ListIngestionRuns(ctx context.Context, kind string, limit int) ([]models.IngestionRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.IngestionRun
	for _, run := range s.runs {
		if kind == "" || run.Kind == kind {
			out = append(out, *run)
		}
	}
	return out, nil
}
