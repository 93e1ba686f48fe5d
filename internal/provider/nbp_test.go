package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testToday = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

func newObservedReporter() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

// nbpHandler answers "last N" requests with a fixed body per N; missing N yields 404.
func nbpHandler(t *testing.T, calls *int32, bodies map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 NotFound - Not Found - Brak danych"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func nbpBody(code, effective string, bid, ask string) string {
	return fmt.Sprintf(`{"table":"C","currency":"euro","code":%q,"rates":[{"no":"201/C/NBP/2026","effectiveDate":%q,"bid":%s,"ask":%s}]}`,
		code, effective, bid, ask)
}

func TestNBPProvider_GetExchangeRates_Success(t *testing.T) {
	var calls int32
	server := httptest.NewServer(nbpHandler(t, &calls, map[string]string{
		"/EUR/last/1/": nbpBody("EUR", "2026-10-19", "4.40", "4.50"),
		"/EUR/last/2/": nbpBody("EUR", "2026-10-18", "4.42", "4.52"),
	}))
	defer server.Close()

	reporter, logs := newObservedReporter()
	p := NewNBPProvider(server.URL, server.Client(), reporter, WithClock(fixedClock))

	records, err := p.GetExchangeRates(context.Background(), "EUR", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.JSONEq(t, `[
		{"19.10.2026":{"EUR":{"sale":4.5,"purchase":4.4}}},
		{"18.10.2026":{"EUR":{"sale":4.52,"purchase":4.42}}}
	]`, recordsJSON(t, records))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestNBPProvider_GetExchangeRates_SkipsFailedDay(t *testing.T) {
	var calls int32
	server := httptest.NewServer(nbpHandler(t, &calls, map[string]string{
		"/EUR/last/1/": nbpBody("EUR", "2026-10-19", "4.40", "4.50"),
	}))
	defer server.Close()

	reporter, logs := newObservedReporter()
	p := NewNBPProvider(server.URL, server.Client(), reporter, WithClock(fixedClock))

	records, err := p.GetExchangeRates(context.Background(), "EUR", 2)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"19.10.2026":{"EUR":{"sale":4.5,"purchase":4.4}}}]`, recordsJSON(t, records))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "Error fetching data", warnings[0].Message)
	fields := warnings[0].ContextMap()
	assert.Equal(t, "18.10.2026", fields["date"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
}

func TestNBPProvider_GetExchangeRates_SingleDay(t *testing.T) {
	var calls int32
	server := httptest.NewServer(nbpHandler(t, &calls, map[string]string{
		"/USD/last/1/": nbpBody("USD", "2026-10-19", "3.70", "3.78"),
	}))
	defer server.Close()

	p := NewNBPProvider(server.URL, server.Client(), nil, WithClock(fixedClock))

	records, err := p.GetExchangeRates(context.Background(), "usd", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"19.10.2026":{"USD":{"sale":3.78,"purchase":3.7}}}]`, recordsJSON(t, records))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNBPProvider_GetExchangeRates_FlagsQuotationDateMismatch(t *testing.T) {
	var calls int32
	server := httptest.NewServer(nbpHandler(t, &calls, map[string]string{
		"/EUR/last/1/": nbpBody("EUR", "2026-10-16", "4.40", "4.50"),
	}))
	defer server.Close()

	reporter, logs := newObservedReporter()
	p := NewNBPProvider(server.URL, server.Client(), reporter, WithClock(fixedClock))

	records, err := p.GetExchangeRates(context.Background(), "EUR", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0], "19.10.2026")

	debug := logs.FilterMessage("Quotation date differs from record date").All()
	require.Len(t, debug, 1)
	assert.Equal(t, "2026-10-16", debug[0].ContextMap()["effective_date"])
}

func TestNBPProvider_GetExchangeRates_Errors(t *testing.T) {
	t.Run("invalid days", func(t *testing.T) {
		p := NewNBPProvider("http://unused.invalid", nil, nil)
		_, err := p.GetExchangeRates(context.Background(), "EUR", 0)
		assert.ErrorIs(t, err, ErrInvalidDays)
	})

	t.Run("invalid currency", func(t *testing.T) {
		p := NewNBPProvider("http://unused.invalid", nil, nil)
		_, err := p.GetExchangeRates(context.Background(), "EURO", 1)
		assert.Error(t, err)
	})

	t.Run("malformed body aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer server.Close()

		p := NewNBPProvider(server.URL, server.Client(), nil, WithClock(fixedClock))
		records, err := p.GetExchangeRates(context.Background(), "EUR", 3)
		assert.Nil(t, records)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode nbp API response")
	})

	t.Run("empty rates aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"table":"C","code":"EUR","rates":[]}`))
		}))
		defer server.Close()

		p := NewNBPProvider(server.URL, server.Client(), nil, WithClock(fixedClock))
		_, err := p.GetExchangeRates(context.Background(), "EUR", 1)
		assert.ErrorIs(t, err, ErrEmptyRates)
	})

	t.Run("transport error aborts", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		p := NewNBPProvider(url, &http.Client{Timeout: time.Second}, nil, WithClock(fixedClock))
		_, err := p.GetExchangeRates(context.Background(), "EUR", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nbp API request failed")
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(nbpHandler(t, &calls, map[string]string{}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := NewNBPProvider(server.URL, server.Client(), nil, WithClock(fixedClock))
		_, err := p.GetExchangeRates(ctx, "EUR", 2)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, atomic.LoadInt32(&calls))
	})
}

func TestNBPProvider_GetExchangeRates_HugeDays(t *testing.T) {
	var calls int32
	server := httptest.NewServer(nbpHandler(t, &calls, map[string]string{}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewNBPProvider(server.URL, server.Client(), nil, WithClock(fixedClock))
	var err error
	require.NotPanics(t, func() {
		_, err = p.GetExchangeRates(ctx, "EUR", math.MaxInt)
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestNBPProvider_lastURL(t *testing.T) {
	p := NewNBPProvider("", nil, nil)
	assert.Equal(t, DefaultNBPBaseURL+"/CHF/last/3/?format=json", p.lastURL("CHF", 2))
}
