// Package collector orchestrates rate providers across a set of currencies.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ratecollector/internal/model"
	"ratecollector/internal/provider"
)

// RateCollector concatenates the records of every provider for every currency.
// Providers are additive: results for the same currency are not merged or deduplicated.
type RateCollector struct {
	providers   []provider.RatesProvider
	concurrency int
	log         *zap.SugaredLogger
}

// Option customizes a RateCollector.
type Option func(*RateCollector)

// WithConcurrency bounds the number of (currency, provider) fetches in flight.
// Values below 2 keep collection strictly sequential.
func WithConcurrency(n int) Option {
	return func(c *RateCollector) {
		c.concurrency = n
	}
}

// WithLogger sets the logger used for run-level events.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *RateCollector) {
		c.log = logger
	}
}

// NewRateCollector creates a collector over the given providers, kept in order.
func NewRateCollector(providers []provider.RatesProvider, opts ...Option) *RateCollector {
	c := &RateCollector{
		providers:   providers,
		concurrency: 1,
		log:         zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CollectRates returns records ordered by currency, then provider, then ascending day offset.
// The first provider error aborts the whole collection.
func (c *RateCollector) CollectRates(ctx context.Context, currencies []string, days int) ([]model.RateRecord, error) {
	if days <= 0 {
		return nil, provider.ErrInvalidDays
	}

	log := c.log.With("run_id", uuid.New().String())
	start := time.Now()
	log.Infow("Collecting rates",
		"currencies", currencies,
		"days", days,
		"providers", len(c.providers),
		"concurrency", c.concurrency,
	)

	var (
		result []model.RateRecord
		err    error
	)
	if c.concurrency > 1 {
		result, err = c.collectConcurrent(ctx, currencies, days)
	} else {
		result, err = c.collectSequential(ctx, currencies, days)
	}
	if err != nil {
		log.Errorw("Collection aborted", "error", err)
		return nil, err
	}

	log.Infow("Collection finished",
		"records", len(result),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (c *RateCollector) collectSequential(ctx context.Context, currencies []string, days int) ([]model.RateRecord, error) {
	var result []model.RateRecord
	for _, currency := range currencies {
		for _, p := range c.providers {
			records, err := p.GetExchangeRates(ctx, currency, days)
			if err != nil {
				return nil, fmt.Errorf("collect %s: %w", currency, err)
			}
			result = append(result, records...)
		}
	}
	return result, nil
}

// collectConcurrent runs every (currency, provider) fetch on its own slot and
// concatenates slots in sequential order.
func (c *RateCollector) collectConcurrent(ctx context.Context, currencies []string, days int) ([]model.RateRecord, error) {
	slots := make([][]model.RateRecord, len(currencies)*len(c.providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, currency := range currencies {
		currency := currency
		for j, p := range c.providers {
			p := p
			slot := i*len(c.providers) + j
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				records, err := p.GetExchangeRates(gctx, currency, days)
				if err != nil {
					return fmt.Errorf("collect %s: %w", currency, err)
				}
				slots[slot] = records
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, records := range slots {
		total += len(records)
	}
	result := make([]model.RateRecord, 0, total)
	for _, records := range slots {
		result = append(result, records...)
	}
	return result, nil
}
