// Package app assembles the logger, cache, providers and collector for one run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ratecollector/internal/cli"
	"ratecollector/internal/collector"
	"ratecollector/internal/config"
	"ratecollector/internal/output"
	"ratecollector/internal/provider"
)

// App holds all dependencies of one collection run and manages their lifecycle.
type App struct {
	cfg        *config.Config
	zapLogger  *zap.Logger
	logger     *zap.SugaredLogger
	httpClient *http.Client
	rdbCache   *redis.Client
	collector  *collector.RateCollector
	printer    *output.Printer
}

var _ cli.Runner = (*App)(nil)

// New initializes all dependencies and returns a ready-to-run App.
func New(cfg *config.Config, stdout io.Writer) (cli.Runner, error) {
	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.NBP.TimeoutSec) * time.Second},
		printer:    output.NewPrinter(stdout, format),
	}

	if err := app.initLogger(); err != nil {
		return nil, err
	}

	app.initCache()

	providers, err := newRateProviders(app.cfg, app.httpClient, app.rdbCache, app.logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.collector = collector.NewRateCollector(providers,
		collector.WithConcurrency(cfg.Collector.Concurrency),
		collector.WithLogger(app.logger),
	)
	return app, nil
}

func (app *App) initLogger() error {
	var (
		zapLogger *zap.Logger
		err       error
	)
	if app.cfg.Log.Development {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	app.zapLogger = zapLogger
	app.logger = zapLogger.Sugar()
	return nil
}

// initCache connects the optional provider cache. An unreachable Redis only disables caching.
func (app *App) initCache() {
	if app.cfg.Cache.RedisAddr == "" {
		return
	}

	rdb := redis.NewClient(&redis.Options{Addr: app.cfg.Cache.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		app.logger.Warnw("Redis cache unavailable, continuing without cache",
			"addr", app.cfg.Cache.RedisAddr, "error", err)
		_ = rdb.Close()
		return
	}

	app.rdbCache = rdb
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Cache.RedisAddr)
}

func newRateProviders(cfg *config.Config, client *http.Client, cache *redis.Client, logger *zap.SugaredLogger) ([]provider.RatesProvider, error) {
	ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	providers := make([]provider.RatesProvider, 0, len(cfg.Collector.Providers))
	for _, name := range cfg.Collector.Providers {
		var p provider.RatesProvider
		switch name {
		case config.ProviderNBP:
			p = provider.NewNBPProvider(cfg.NBP.BaseURL, client, logger)
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}

		if cache != nil {
			p = provider.NewCachedRatesProvider(p, cache, ttl, name, logger)
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no exchange rate providers are configured")
	}
	return providers, nil
}

// Run collects rates for the configured currencies and prints the result once.
func (app *App) Run(ctx context.Context, days int) error {
	records, err := app.collector.CollectRates(ctx, app.cfg.Collector.Currencies, days)
	if err != nil {
		return err
	}
	return app.printer.Print(records)
}

// Close releases the Redis connection and flushes the logger.
func (app *App) Close() error {
	var errs []error
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	app.httpClient.CloseIdleConnections()
	if app.zapLogger != nil {
		_ = app.zapLogger.Sync()
	}
	return errors.Join(errs...)
}
