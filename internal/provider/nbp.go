package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ratecollector/internal/model"
)

// NBPName identifies the NBP provider in configuration and cache keys.
const NBPName = "nbp"

// DefaultNBPBaseURL is the table C (bid/ask) endpoint of the National Bank of Poland API.
const DefaultNBPBaseURL = "http://api.nbp.pl/api/exchangerates/rates/c"

const nbpEffectiveDateLayout = "2006-01-02"

// nbpMaxLast is the largest N the "last N" endpoint accepts; larger requests get 400.
const nbpMaxLast = 255

var _ RatesProvider = (*NBPProvider)(nil)

// ErrEmptyRates indicates the API answered 200 without any rate entries.
var ErrEmptyRates = errors.New("nbp API returned no rates")

// NBPProvider fetches buy/sell rates from the NBP API, one request per day offset.
type NBPProvider struct {
	baseURL  string
	client   *http.Client
	reporter Reporter
	now      func() time.Time
}

// NBPOption customizes an NBPProvider.
type NBPOption func(*NBPProvider)

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) NBPOption {
	return func(p *NBPProvider) {
		p.now = now
	}
}

// NewNBPProvider creates a new NBPProvider. The client is shared by every request;
// a nil reporter discards diagnostics.
func NewNBPProvider(baseURL string, client *http.Client, reporter Reporter, opts ...NBPOption) *NBPProvider {
	if baseURL == "" {
		baseURL = DefaultNBPBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if reporter == nil {
		reporter = zap.NewNop().Sugar()
	}
	p := &NBPProvider{
		baseURL:  baseURL,
		client:   client,
		reporter: reporter,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// nbp table C response structure
type nbpResponse struct {
	Table    string    `json:"table"`
	Currency string    `json:"currency"`
	Code     string    `json:"code"`
	Rates    []nbpRate `json:"rates"`
}

type nbpRate struct {
	No            string          `json:"no"`
	EffectiveDate string          `json:"effectiveDate"`
	Bid           decimal.Decimal `json:"bid"`
	Ask           decimal.Decimal `json:"ask"`
}

// lastURL forms the "last N quotations" URL. N is offset+1 so that the first
// returned entry lines up with the requested day offset.
func (p *NBPProvider) lastURL(currency string, offset int) string {
	return fmt.Sprintf("%s/%s/last/%d/?format=json", p.baseURL, currency, offset+1)
}

// GetExchangeRates returns one record per day offset in [0, days) that the API answered with 200.
// Other statuses are reported and skipped; transport and decoding failures abort the fetch.
func (p *NBPProvider) GetExchangeRates(ctx context.Context, currency string, days int) ([]model.RateRecord, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	currency, err := model.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	today := p.now()
	result := make([]model.RateRecord, 0, min(days, nbpMaxLast))

	for offset := 0; offset < days; offset++ {
		date := model.FormatDate(today.AddDate(0, 0, -offset))

		rate, effective, status, err := p.fetchDay(ctx, currency, offset)
		if err != nil {
			return nil, fmt.Errorf("nbp %s on %s: %w", currency, date, err)
		}
		if status != http.StatusOK {
			p.reporter.Warnw("Error fetching data", "date", date, "currency", currency, "status", status)
			continue
		}

		// The label is the requested day, not the quotation day; they differ on non-trading days.
		if effective != "" && effective != today.AddDate(0, 0, -offset).Format(nbpEffectiveDateLayout) {
			p.reporter.Debugw("Quotation date differs from record date",
				"date", date, "currency", currency, "effective_date", effective)
		}

		result = append(result, model.NewRateRecord(date, currency, rate))
	}

	return result, nil
}

// fetchDay performs a single request. A non-200 status is returned without an error.
func (p *NBPProvider) fetchDay(ctx context.Context, currency string, offset int) (model.Rate, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.lastURL(currency, offset), http.NoBody)
	if err != nil {
		return model.Rate{}, "", 0, fmt.Errorf("nbp API request creation failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.Rate{}, "", 0, fmt.Errorf("nbp API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return model.Rate{}, "", resp.StatusCode, nil
	}

	var result nbpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.Rate{}, "", 0, fmt.Errorf("failed to decode nbp API response: %w", err)
	}
	if len(result.Rates) == 0 {
		return model.Rate{}, "", 0, ErrEmptyRates
	}

	first := result.Rates[0]
	return model.Rate{Sale: first.Ask, Purchase: first.Bid}, first.EffectiveDate, resp.StatusCode, nil
}
