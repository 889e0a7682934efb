// Package interfaces defines service contracts for DeepTicker
package interfaces

import (
	"context"

	"github.com/mingmanhk/deepticker/internal/models"
)

// QuoteSource is one external market-data provider. Each adapter owns
// its provider-specific wire schema and normalizes into models.Quote.
type QuoteSource interface {
	// ID identifies the source ("eodhd", "yahoo").
	ID() models.QuoteSourceID

	// GetQuote fetches and normalizes a quote for one symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// AIProvider is the capability pair every remote AI service implements:
// it accepts a prompt and returns the raw response text. Endpoint URLs,
// auth schemes, and response envelopes stay inside each adapter; all
// providers converge to the same internal Insight variants downstream.
type AIProvider interface {
	// ID identifies the provider.
	ID() models.ProviderID

	// Generate sends the prompt and returns the raw response text.
	Generate(ctx context.Context, prompt string) (string, error)
}
