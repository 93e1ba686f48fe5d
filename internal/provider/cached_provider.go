package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ratecollector/internal/model"
)

// CachedRatesProviderDecorator wraps a RatesProvider with Redis caching.
// Keys include the calendar day, so cached labels never go stale across midnight.
type CachedRatesProviderDecorator struct {
	provider     RatesProvider
	cache        *redis.Client
	ttl          time.Duration
	providerName string
	log          *zap.SugaredLogger
	now          func() time.Time
}

// NewCachedRatesProvider creates a new CachedRatesProviderDecorator.
func NewCachedRatesProvider(provider RatesProvider, cache *redis.Client, ttl time.Duration, providerName string, logger *zap.SugaredLogger) *CachedRatesProviderDecorator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &CachedRatesProviderDecorator{
		provider:     provider,
		cache:        cache,
		ttl:          ttl,
		providerName: providerName,
		log:          logger,
		now:          time.Now,
	}
}

func (p *CachedRatesProviderDecorator) cacheKey(currency string, days int) string {
	return fmt.Sprintf("provider_cache:%s:{%s:%d}:%s", p.providerName, currency, days, p.now().Format("2006-01-02"))
}

// GetExchangeRates attempts to read the records from cache before calling the underlying provider.
// Only complete results (one record per day) are stored, so skipped days are retried next time.
func (p *CachedRatesProviderDecorator) GetExchangeRates(ctx context.Context, currency string, days int) ([]model.RateRecord, error) {
	if p.cache == nil {
		return p.provider.GetExchangeRates(ctx, currency, days)
	}

	key := p.cacheKey(currency, days)

	data, err := p.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []model.RateRecord
		if uErr := json.Unmarshal(data, &cached); uErr == nil {
			p.log.Debugw("Provider cache hit", "key", key)
			return cached, nil
		}
		p.log.Warnw("Dropping undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		p.log.Warnw("Failed to read cache", "key", key, "error", err)
	}

	records, err := p.provider.GetExchangeRates(ctx, currency, days)
	if err != nil {
		return nil, err
	}

	if len(records) == days {
		p.store(ctx, key, records)
	}

	return records, nil
}

func (p *CachedRatesProviderDecorator) store(ctx context.Context, key string, records []model.RateRecord) {
	data, err := json.Marshal(records)
	if err != nil {
		p.log.Warnw("Failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := p.cache.Set(ctx, key, data, p.ttl).Err(); err != nil {
		p.log.Warnw("Failed to update cache", "key", key, "error", err)
	}
}

var _ RatesProvider = (*CachedRatesProviderDecorator)(nil)
