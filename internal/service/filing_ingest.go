package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"insidertrack/internal/client/edgar"
	"insidertrack/internal/config"
	"insidertrack/internal/form4"
	"insidertrack/internal/metrics"
	"insidertrack/internal/models"
	"insidertrack/internal/repository"
)

// FilingIngestService runs the Form 4 pipeline: list filings per company,
// claim each in the ledger, parse, persist, then evaluate alerts for the
// newly inserted trades. A failure in one company never aborts the batch.
type FilingIngestService struct {
	Repo   repository.Repository
	Edgar  *edgar.Client
	Alerts *AlertPipeline
	Config config.IngestConfig
	Logger *zap.Logger
}

// CompanyResult summarizes one company's ingestion within a run.
type CompanyResult struct {
	Ticker  string `json:"ticker"`
	Filings int    `json:"filings"`
	Trades  int    `json:"trades"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Err     string `json:"error,omitempty"`
}

// RunSummary is the admin-facing outcome of one scheduler run: counts only,
// never stack traces.
type RunSummary struct {
	RunID     string          `json:"run_id"`
	Kind      string          `json:"kind"`
	StartedAt time.Time       `json:"started_at"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Trades    int             `json:"trades"`
	Companies []CompanyResult `json:"companies,omitempty"`
}

// ScanAll is the scheduler entry point. Safe under overlapping invocations:
// the ledger claim arbitrates any filing two runs both discover.
func (s *FilingIngestService) ScanAll(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.NewString(),
		Kind:      models.RunKindFilings,
		StartedAt: time.Now().UTC(),
	}
	if s == nil || s.Repo == nil || s.Edgar == nil {
		return summary, fmt.Errorf("filing ingest service not wired")
	}

	companies, err := s.Repo.ListActiveCompanies(ctx)
	if err != nil {
		return summary, fmt.Errorf("list companies: %w", err)
	}
	lastProcessed, err := s.Repo.LastProcessedByTicker(ctx)
	if err != nil {
		return summary, fmt.Errorf("load ledger watermarks: %w", err)
	}

	cooldown := time.Duration(s.Config.CooldownHours) * time.Hour
	selected := SelectCompanies(companies, lastProcessed, summary.StartedAt, cooldown, s.Config.MaxCompanies)
	summary.Skipped = len(companies) - len(selected)

	s.recordRunStart(ctx, &summary)

	results := s.scanCompanies(ctx, selected)
	for _, res := range results {
		summary.Companies = append(summary.Companies, res)
		summary.Trades += res.Trades
		if res.Err != "" || res.Failed > 0 {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	s.recordRunFinish(ctx, &summary)
	if s.Logger != nil {
		s.Logger.Info("filing scan finished",
			zap.String("run_id", summary.RunID),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("failed", summary.Failed),
			zap.Int("skipped", summary.Skipped),
			zap.Int("trades", summary.Trades))
	}
	return summary, nil
}

// scanCompanies fans companies out to a bounded worker pool. Workers share
// nothing but the rate-limited fetcher and the database.
func (s *FilingIngestService) scanCompanies(ctx context.Context, companies []models.Company) []CompanyResult {
	concurrency := s.Config.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	jobs := make(chan models.Company)
	results := make([]CompanyResult, 0, len(companies))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for company := range jobs {
				res := s.scanCompany(ctx, company)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, company := range companies {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- company:
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// ScrapeOne is the manual-trigger entry point exposed to the admin API.
func (s *FilingIngestService) ScrapeOne(ctx context.Context, ticker string) (CompanyResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	companies, err := s.Repo.ListActiveCompanies(ctx)
	if err != nil {
		return CompanyResult{Ticker: ticker}, fmt.Errorf("list companies: %w", err)
	}
	for _, c := range companies {
		if c.Ticker == ticker {
			if c.CIK == nil || *c.CIK == "" {
				return CompanyResult{Ticker: ticker}, fmt.Errorf("company %s has no CIK", ticker)
			}
			return s.scanCompany(ctx, c), nil
		}
	}
	return CompanyResult{Ticker: ticker}, fmt.Errorf("unknown or inactive company: %s", ticker)
}

func (s *FilingIngestService) scanCompany(ctx context.Context, company models.Company) CompanyResult {
	started := time.Now()
	defer func() {
		metrics.CompanyIngestDuration.Observe(time.Since(started).Seconds())
	}()

	res := CompanyResult{Ticker: company.Ticker}

	since := time.Now().UTC().AddDate(0, 0, -s.daysBack())
	filings, err := s.Edgar.ListRecentFilings(ctx, *company.CIK, since, s.maxFilings())
	if err != nil {
		res.Err = "filing list failed"
		s.logCompanyError(company.Ticker, "list filings failed", err)
		return res
	}

	for _, meta := range filings {
		select {
		case <-ctx.Done():
			res.Err = "cancelled"
			return res
		default:
		}

		trades, claimed, err := s.ingestFiling(ctx, company, meta)
		if err != nil {
			// Transient failure on one filing: record it as a failure, not a
			// skip, and move to the next. Skips stay reserved for lost claims.
			res.Failed++
			s.logCompanyError(company.Ticker, "filing ingest failed", err,
				zap.String("accession", meta.AccessionNumber))
			continue
		}
		if !claimed {
			res.Skipped++
			continue
		}
		res.Filings++
		res.Trades += len(trades)

		if s.Alerts != nil && len(trades) > 0 {
			s.Alerts.Evaluate(ctx, trades)
		}
	}
	return res
}

// ingestFiling claims and persists one filing atomically. Returns the trades
// actually inserted and whether this worker won the claim. Parse failures and
// missing documents still commit a zero-trade ledger row: "never reprocess"
// outranks completeness for malformed filings.
func (s *FilingIngestService) ingestFiling(ctx context.Context, company models.Company, meta edgar.FilingMeta) ([]models.InsiderTrade, bool, error) {
	var (
		raw      []byte
		fetchErr error
	)
	raw, fetchErr = s.Edgar.FetchFilingDocument(ctx, meta)

	var drafts []models.InsiderTrade
	switch {
	case errors.Is(fetchErr, edgar.ErrNoDocument):
		// No machine-readable document: claim with zero trades.
		if s.Logger != nil {
			s.Logger.Info("no machine-readable document, marking processed",
				zap.String("ticker", company.Ticker),
				zap.String("accession", meta.AccessionNumber))
		}
	case fetchErr != nil:
		// Transient: leave unclaimed for the next run.
		return nil, false, fetchErr
	default:
		parsed, parseErr := form4.Parse(raw, form4.IssuerHint{
			Ticker:          company.Ticker,
			CompanyName:     company.Name,
			AccessionNumber: meta.AccessionNumber,
			FilingDate:      meta.FilingDate,
		})
		if parseErr != nil {
			// Malformed filing: claim with zero trades to stop retry storms.
			metrics.ParseFailuresTotal.Inc()
			if s.Logger != nil {
				s.Logger.Warn("form4 parse failed, marking processed",
					zap.String("ticker", company.Ticker),
					zap.String("accession", meta.AccessionNumber),
					zap.Error(parseErr))
			}
		} else {
			drafts = parsed.Trades
		}
	}

	var (
		claimed  bool
		inserted []models.InsiderTrade
	)
	err := s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		filing := &models.ProcessedFiling{
			AccessionNumber: meta.AccessionNumber,
			FilingURL:       meta.DocumentURL,
			FilingDate:      meta.FilingDate,
			Ticker:          company.Ticker,
			ProcessedAt:     time.Now().UTC(),
		}
		ok, err := s.Repo.ClaimFilingTx(ctx, tx, filing)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		claimed = true

		count, err := s.Repo.InsertTradesTx(ctx, tx, drafts)
		if err != nil {
			return err
		}
		if err := s.Repo.UpdateFilingTradeCountTx(ctx, tx, meta.AccessionNumber, count); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("persist filing %s: %w", meta.AccessionNumber, err)
	}
	if !claimed {
		metrics.FilingClaimConflictsTotal.Inc()
		return nil, false, nil
	}

	metrics.FilingsProcessedTotal.Inc()
	if len(drafts) > 0 {
		// Re-read to pick up IDs and drop natural-key duplicates the insert
		// silently skipped; alert evaluation needs persisted rows.
		inserted, err = s.Repo.FindTradesByAccession(ctx, meta.AccessionNumber)
		if err != nil {
			// The claim row is committed, so this filing will never be
			// rescanned: alert evaluation for its trades is lost. Surface
			// that instead of reporting a clean zero-trade success.
			return nil, true, fmt.Errorf("reload trades %s: %w", meta.AccessionNumber, err)
		}
		metrics.TradesInsertedTotal.Add(float64(len(inserted)))
	}
	return inserted, true, nil
}

func (s *FilingIngestService) daysBack() int {
	if s.Config.DaysBack <= 0 {
		return 7
	}
	return s.Config.DaysBack
}

func (s *FilingIngestService) maxFilings() int {
	if s.Config.MaxFilings <= 0 {
		return 10
	}
	return s.Config.MaxFilings
}

func (s *FilingIngestService) logCompanyError(ticker, msg string, err error, fields ...zap.Field) {
	if s.Logger == nil {
		return
	}
	fields = append([]zap.Field{zap.String("ticker", ticker), zap.Error(err)}, fields...)
	s.Logger.Warn(msg, fields...)
}

func (s *FilingIngestService) recordRunStart(ctx context.Context, summary *RunSummary) {
	run := &models.IngestionRun{
		ID:        summary.RunID,
		Kind:      summary.Kind,
		StartedAt: summary.StartedAt,
	}
	if err := s.Repo.InsertIngestionRun(ctx, run); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to record run start", zap.Error(err))
	}
}

func (s *FilingIngestService) recordRunFinish(ctx context.Context, summary *RunSummary) {
	now := time.Now().UTC()
	run := &models.IngestionRun{
		ID:         summary.RunID,
		FinishedAt: &now,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
		Trades:     summary.Trades,
	}
	if stats, err := json.Marshal(summary.Companies); err == nil {
		run.StatsJSON = datatypes.JSON(stats)
	}
	if err := s.Repo.FinishIngestionRun(ctx, run); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to record run finish", zap.Error(err))
	}
}
