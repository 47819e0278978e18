package congress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"insidertrack/internal/client/finnhub"
	"insidertrack/internal/models"
)

// Provider is one congressional trade source. Implementations normalize their
// payloads into CongressionalTrade and tag each row with their source name.
type Provider interface {
	Name() string
	FetchTrades(ctx context.Context, ticker string, from, to time.Time) ([]models.CongressionalTrade, error)
}

// Source walks an ordered provider chain (primary first, free fallbacks after)
// until one returns data. Responses are cached by (ticker, window) so repeated
// calls inside the TTL never re-hit rate-limited or unreliable endpoints.
type Source struct {
	Providers []Provider
	Logger    *zap.Logger

	cache *gocache.Cache
	ttl   time.Duration

	mu            sync.Mutex
	loggedMissing map[string]bool
}

func NewSource(providers []Provider, ttl time.Duration, logger *zap.Logger) *Source {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Source{
		Providers:     providers,
		Logger:        logger,
		cache:         gocache.New(ttl, 2*ttl),
		ttl:           ttl,
		loggedMissing: map[string]bool{},
	}
}

// FetchTrades returns normalized trades for the ticker (empty = all tracked)
// in [from, to]. A cache hit short-circuits the whole chain. When every
// provider fails the result is an empty slice, never an error: congressional
// ingestion is best-effort and must not block other pipeline stages.
func (s *Source) FetchTrades(ctx context.Context, ticker string, from, to time.Time) []models.CongressionalTrade {
	if s == nil || len(s.Providers) == 0 {
		return nil
	}
	key := cacheKey(ticker, from, to)
	if cached, ok := s.cache.Get(key); ok {
		if trades, ok := cached.([]models.CongressionalTrade); ok {
			return trades
		}
	}

	for _, p := range s.Providers {
		trades, err := p.FetchTrades(ctx, ticker, from, to)
		if err != nil {
			if errors.Is(err, finnhub.ErrNotConfigured) {
				// Configuration gap, not a failure: log once, skip always.
				if s.firstMiss(p.Name()) {
					s.logWarn("provider not configured, skipping", p.Name(), err)
				}
				continue
			}
			s.logWarn("provider failed, falling through", p.Name(), err)
			continue
		}
		if len(trades) == 0 {
			continue
		}
		s.cache.Set(key, trades, s.ttl)
		return trades
	}

	if s.Logger != nil {
		s.Logger.Warn("all congressional providers failed or returned no data",
			zap.String("ticker", ticker))
	}
	return nil
}

func (s *Source) firstMiss(provider string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loggedMissing[provider] {
		return false
	}
	s.loggedMissing[provider] = true
	return true
}

func (s *Source) logWarn(msg, provider string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, zap.String("provider", provider), zap.Error(err))
}

func cacheKey(ticker string, from, to time.Time) string {
	return fmt.Sprintf("%s|%s|%s",
		strings.ToUpper(strings.TrimSpace(ticker)),
		from.Format("2006-01-02"),
		to.Format("2006-01-02"))
}
