// Package interfaces defines service contracts for DeepTicker
package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mingmanhk/deepticker/internal/models"
)

// QuoteService resolves quotes through the cache → primary → secondary
// → stale-fallback chain.
type QuoteService interface {
	// GetQuote returns a quote for one symbol. The returned quote is
	// marked stale when every source failed and an expired cache entry
	// was the best available value.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetQuotes resolves a batch of symbols concurrently. The result
	// map has one entry per requested symbol; it is returned only after
	// every symbol has settled.
	GetQuotes(ctx context.Context, symbols []string) map[string]QuoteResult
}

// QuoteResult is one symbol's outcome within a batch fetch.
type QuoteResult struct {
	Quote *models.Quote
	Err   error
}

// InsightService dispatches analysis requests to the selected AI
// provider and caches results by content fingerprint.
type InsightService interface {
	// GenerateInsight builds the prompt, invokes the provider, and
	// parses the response into the requested variant. A cached insight
	// within its freshness window is returned without a remote call.
	GenerateInsight(ctx context.Context, kind models.InsightKind, snapshot *models.PortfolioSnapshot, provider models.ProviderID, promptOverride string) (*models.Insight, error)

	// ResolveProvider applies the selection policy: explicit selection
	// wins; otherwise the default provider is chosen iff credentialed.
	ResolveProvider(ctx context.Context, requested models.ProviderID) (models.ProviderID, error)

	// ProviderStatuses reports the configuration of every provider.
	ProviderStatuses(ctx context.Context) ([]models.ProviderStatus, error)
}

// PortfolioService owns holdings operations and refresh orchestration.
type PortfolioService interface {
	// Refresh fetches quotes for every holding (all settle before the
	// snapshot is built) and recomputes aggregate statistics.
	Refresh(ctx context.Context) (*models.PortfolioSnapshot, error)

	// AddHolding creates or replaces a holding.
	AddHolding(ctx context.Context, symbol string, shares, costBasis decimal.Decimal) (*models.Holding, error)

	// UpdateHolding mutates shares/cost basis of an existing holding.
	UpdateHolding(ctx context.Context, symbol string, shares, costBasis decimal.Decimal) (*models.Holding, error)

	// RemoveHolding deletes a holding.
	RemoveHolding(ctx context.Context, symbol string) error

	// ListHoldings returns holdings ordered by symbol.
	ListHoldings(ctx context.Context) ([]models.Holding, error)

	// ComputeStats derives portfolio statistics from a snapshot's
	// positions using the configured health policy.
	ComputeStats(positions []models.Position) models.PortfolioStats
}
