package marketdata

import (
	"context"
	"time"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/internal/features"
	"github.com/dkwon/alphadesk/pkg/logger"
	"github.com/dkwon/alphadesk/pkg/redis"
)

// Source is the fetch surface the cache decorates
type Source interface {
	DailySeries(ctx context.Context, ticker string) (*contracts.Series, error)
	MarketContext(ctx context.Context) (*features.MarketContext, error)
}

// CachedSource layers a Redis series cache over a Source. Keys roll
// with the calendar date, so a fresh trading day always refetches.
// Cache errors degrade to a direct fetch, never a failure.
type CachedSource struct {
	inner  Source
	cache  *redis.Cache
	logger *logger.Logger

	// now is swappable in tests
	now func() time.Time
}

// NewCachedSource wraps a source with a Redis cache
func NewCachedSource(inner Source, cache *redis.Cache, log *logger.Logger) *CachedSource {
	return &CachedSource{inner: inner, cache: cache, logger: log, now: time.Now}
}

// DailySeries returns the cached series for today, fetching on miss
func (s *CachedSource) DailySeries(ctx context.Context, ticker string) (*contracts.Series, error) {
	key := redis.SeriesKey(ticker, "daily", s.now().UTC().Format("2006-01-02"))

	var cached contracts.Series
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Warn("Series cache read failed")
	}
	if found && cached.Len() > 0 {
		return &cached, nil
	}

	series, err := s.inner.DailySeries(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, series, redis.TTLDaily); err != nil {
		s.logger.WithError(err).WithField("ticker", ticker).Warn("Series cache write failed")
	}
	return series, nil
}

// MarketContext fetches the context series through the same cache
func (s *CachedSource) MarketContext(ctx context.Context) (*features.MarketContext, error) {
	return s.inner.MarketContext(ctx)
}
