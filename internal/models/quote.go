// Package models defines data structures for DeepTicker
package models

import (
	"strings"
	"time"
)

// QuoteSourceID identifies which market-data source produced a quote.
type QuoteSourceID string

const (
	QuoteSourceEODHD QuoteSourceID = "eodhd"
	QuoteSourceYahoo QuoteSourceID = "yahoo"
	QuoteSourceCache QuoteSourceID = "cache"
)

// Quote is a normalized market snapshot for one ticker symbol at a point
// in time. Quotes are immutable once constructed; a fresher fetch
// supersedes a quote, it never mutates one in place.
type Quote struct {
	Symbol        string        `json:"symbol"`
	Price         float64       `json:"price"`
	Change        float64       `json:"change"`
	ChangePct     float64       `json:"change_pct"`
	PreviousClose float64       `json:"previous_close"`
	Open          float64       `json:"open"`
	High          float64       `json:"high"`
	Low           float64       `json:"low"`
	Volume        int64         `json:"volume"`
	FetchedAt     time.Time     `json:"fetched_at"`
	Source        QuoteSourceID `json:"source"`
	Stale         bool          `json:"stale,omitempty"` // true when served past its freshness window
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
