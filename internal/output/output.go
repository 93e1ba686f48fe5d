// Package output renders a collection result.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"ratecollector/internal/model"
)

// Format selects how records are rendered.
type Format string

// Supported output formats.
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatText:
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or text)", s)
}

// Printer writes the whole result at once.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Print renders records as a single structure.
func (p *Printer) Print(records []model.RateRecord) error {
	if records == nil {
		records = []model.RateRecord{}
	}
	switch p.format {
	case FormatText:
		return p.printText(records)
	default:
		return p.printJSON(records)
	}
}

func (p *Printer) printJSON(records []model.RateRecord) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func (p *Printer) printText(records []model.RateRecord) error {
	date := color.New(color.FgCyan)
	currency := color.New(color.Bold)
	sale := color.New(color.FgGreen)
	purchase := color.New(color.FgYellow)

	for _, r := range records {
		for _, e := range r.Entries() {
			_, err := fmt.Fprintf(p.w, "%s %s sale=%s purchase=%s\n",
				date.Sprint(e.Date),
				currency.Sprint(e.Currency),
				sale.Sprint(e.Rate.Sale.String()),
				purchase.Sprint(e.Rate.Purchase.String()),
			)
			if err != nil {
				return fmt.Errorf("write result: %w", err)
			}
		}
	}
	return nil
}
