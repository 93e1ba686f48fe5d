// Package provider implements external sources of historical exchange rates.
package provider

import (
	"context"
	"errors"

	"ratecollector/internal/model"
)

// ErrInvalidDays indicates a non-positive number of days was requested.
var ErrInvalidDays = errors.New("number of days must be greater than zero")

// RatesProvider defines an interface for fetching daily exchange rates from external sources.
// Records are returned in ascending day-offset order starting from today.
type RatesProvider interface {
	GetExchangeRates(ctx context.Context, currency string, days int) ([]model.RateRecord, error)
}

// Reporter receives non-fatal diagnostics, such as a day skipped after a failed request.
// *zap.SugaredLogger satisfies it.
type Reporter interface {
	Warnw(msg string, keysAndValues ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
}
