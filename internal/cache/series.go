package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stock-advisor/internal/domain"
)

const DefaultSeriesTTL = 6 * time.Hour

// SeriesCache stores provider price history as JSON. A nil client turns
// every call into a miss.
type SeriesCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSeriesCache(client *redis.Client, ttl time.Duration) *SeriesCache {
	if ttl <= 0 {
		ttl = DefaultSeriesTTL
	}
	return &SeriesCache{client: client, ttl: ttl}
}

func SeriesKey(symbol, timeframe string) string {
	return fmt.Sprintf("series:%s:%s", symbol, timeframe)
}

func (c *SeriesCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached series and whether it was found.
func (c *SeriesCache) Get(ctx context.Context, symbol, timeframe string) (domain.PriceSeries, bool, error) {
	if !c.Enabled() {
		return domain.PriceSeries{}, false, nil
	}
	raw, err := c.client.Get(ctx, SeriesKey(symbol, timeframe)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PriceSeries{}, false, nil
	}
	if err != nil {
		return domain.PriceSeries{}, false, fmt.Errorf("cache get: %w", err)
	}
	var series domain.PriceSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		// a corrupt entry is dropped and treated as a miss
		_ = c.client.Del(ctx, SeriesKey(symbol, timeframe)).Err()
		return domain.PriceSeries{}, false, nil
	}
	return series, true, nil
}

func (c *SeriesCache) Set(ctx context.Context, series domain.PriceSeries) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	if err := c.client.Set(ctx, SeriesKey(series.Symbol, series.Timeframe), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (c *SeriesCache) Invalidate(ctx context.Context, symbol, timeframe string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, SeriesKey(symbol, timeframe)).Err()
}
