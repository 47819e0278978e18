package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"insidertrack/internal/config"
	"insidertrack/internal/congress"
	"insidertrack/internal/metrics"
	"insidertrack/internal/models"
	"insidertrack/internal/repository"
)

// CongressIngestService pulls congressional disclosures through the provider
// chain and persists them. Best-effort by design: an empty result is a valid
// outcome and never fails the run.
type CongressIngestService struct {
	Repo   repository.Repository
	Source *congress.Source
	Config config.CongressConfig
	Logger *zap.Logger
}

type congressStats struct {
	Fetched  int `json:"fetched"`
	Inserted int `json:"inserted"`
}

func (s *CongressIngestService) RunOnce(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{
		RunID:     uuid.NewString(),
		Kind:      models.RunKindCongress,
		StartedAt: time.Now().UTC(),
	}
	if s == nil || s.Repo == nil || s.Source == nil {
		return summary, fmt.Errorf("congress ingest service not wired")
	}

	run := &models.IngestionRun{ID: summary.RunID, Kind: summary.Kind, StartedAt: summary.StartedAt}
	if err := s.Repo.InsertIngestionRun(ctx, run); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to record run start", zap.Error(err))
	}

	daysBack := s.Config.DaysBack
	if daysBack <= 0 {
		daysBack = 30
	}
	to := summary.StartedAt
	from := to.AddDate(0, 0, -daysBack)

	// Ticker-agnostic pull: the fallback datasets are whole-universe dumps
	// and Finnhub accepts an empty symbol for the full feed.
	trades := s.Source.FetchTrades(ctx, "", from, to)

	inserted, err := s.Repo.InsertCongressionalTrades(ctx, trades)
	if err != nil {
		summary.Failed = 1
		s.finish(ctx, &summary, congressStats{Fetched: len(trades), Inserted: inserted})
		return summary, fmt.Errorf("persist congressional trades: %w", err)
	}
	metrics.CongressTradesInsertedTotal.Add(float64(inserted))

	summary.Succeeded = 1
	summary.Trades = inserted
	s.finish(ctx, &summary, congressStats{Fetched: len(trades), Inserted: inserted})

	if s.Logger != nil {
		s.Logger.Info("congress scan finished",
			zap.String("run_id", summary.RunID),
			zap.Int("fetched", len(trades)),
			zap.Int("inserted", inserted))
	}
	return summary, nil
}

func (s *CongressIngestService) finish(ctx context.Context, summary *RunSummary, stats congressStats) {
	now := time.Now().UTC()
	run := &models.IngestionRun{
		ID:         summary.RunID,
		FinishedAt: &now,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
		Trades:     summary.Trades,
	}
	if raw, err := json.Marshal(stats); err == nil {
		run.StatsJSON = datatypes.JSON(raw)
	}
	if err := s.Repo.FinishIngestionRun(ctx, run); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to record run finish", zap.Error(err))
	}
}
