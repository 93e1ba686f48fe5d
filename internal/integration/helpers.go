//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"ratecollector/internal/config"
	"ratecollector/internal/testkit"
)

var testRDB *redis.Client

// resetTestData flushes the current Redis database.
func resetTestData(t *testing.T) {
	t.Helper()

	if err := testRDB.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}
}

// testContext returns a context with a 30-second deadline tied to the test's cleanup.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newNBPServer answers every "last N" request with a fixed table C quotation and counts requests.
func newNBPServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		code := strings.Split(strings.Trim(r.URL.Path, "/"), "/")[0]
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"table":"C","code":%q,"rates":[{"effectiveDate":"","bid":4.3512,"ask":4.4390}]}`, code)
	}))
	t.Cleanup(server.Close)
	return server
}

// cachedConfig points the app at the NBP stub and the suite's Redis.
func cachedConfig(baseURL string) *config.Config {
	return &config.Config{
		NBP: config.NBPConfig{BaseURL: baseURL, TimeoutSec: 5},
		Collector: config.CollectorConfig{
			Currencies:  []string{"EUR", "USD"},
			Providers:   []string{config.ProviderNBP},
			Concurrency: 1,
		},
		Cache:  config.CacheConfig{RedisAddr: testkit.Global().RedisAddr(), TTLSec: 300},
		Output: config.OutputConfig{Format: "json"},
	}
}
