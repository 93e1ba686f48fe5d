// Package model defines the rate records produced by providers and collected per run.
package model

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the day-month-year format used for record keys.
const DateLayout = "02.01.2006"

// Rate holds the sale (ask) and purchase (bid) prices of one currency on one day.
type Rate struct {
	Sale     decimal.Decimal `json:"sale"`
	Purchase decimal.Decimal `json:"purchase"`
}

// MarshalJSON renders prices as bare JSON numbers.
func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Sale     json.Number `json:"sale"`
		Purchase json.Number `json:"purchase"`
	}{
		Sale:     json.Number(r.Sale.String()),
		Purchase: json.Number(r.Purchase.String()),
	})
}

// Equal reports whether both prices are numerically equal.
func (r Rate) Equal(other Rate) bool {
	return r.Sale.Equal(other.Sale) && r.Purchase.Equal(other.Purchase)
}

// RateRecord maps a formatted date to the rates of the currencies quoted for it.
// Providers emit one record per (currency, day), so a record normally has a
// single date holding a single currency.
type RateRecord map[string]map[string]Rate

// NewRateRecord builds a record for one currency on one day.
func NewRateRecord(date, currency string, rate Rate) RateRecord {
	return RateRecord{date: {currency: rate}}
}

// FormatDate formats t as a record key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Entry is a flattened view of a single (date, currency) rate.
type Entry struct {
	Date     string
	Currency string
	Rate     Rate
}

// Entries flattens the record in date then currency order.
func (r RateRecord) Entries() []Entry {
	dates := make([]string, 0, len(r))
	for d := range r {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var out []Entry
	for _, d := range dates {
		currencies := make([]string, 0, len(r[d]))
		for c := range r[d] {
			currencies = append(currencies, c)
		}
		sort.Strings(currencies)
		for _, c := range currencies {
			out = append(out, Entry{Date: d, Currency: c, Rate: r[d][c]})
		}
	}
	return out
}
