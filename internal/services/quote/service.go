// Package quote resolves symbol quotes through a tiered-fallback chain:
// fresh cache, primary source, secondary source, stale cache entry.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mingmanhk/deepticker/internal/cache"
	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

// ErrQuoteUnavailable means every source failed and no cache entry,
// fresh or stale, exists for the symbol.
var ErrQuoteUnavailable = errors.New("quote unavailable: all sources exhausted")

const defaultMaxConcurrent = 4

// Service implements QuoteService with a primary source, an optional
// secondary source, and a shared TTL cache.
type Service struct {
	primary   interfaces.QuoteSource
	secondary interfaces.QuoteSource // may be nil, in which case the fallback tier is skipped
	cache     *cache.Cache[*models.Quote]

	primaryTTL    time.Duration
	secondaryTTL  time.Duration
	maxConcurrent int

	group  singleflight.Group
	logger *common.Logger
}

// Option configures the service.
type Option func(*Service)

// WithTTLs overrides the per-tier cache TTLs.
func WithTTLs(primary, secondary time.Duration) Option {
	return func(s *Service) {
		if primary > 0 {
			s.primaryTTL = primary
		}
		if secondary > 0 {
			s.secondaryTTL = secondary
		}
	}
}

// WithMaxConcurrent bounds batch fetch parallelism.
func WithMaxConcurrent(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// NewService creates a new quote service.
// secondary may be nil, in which case the fallback tier is skipped.
func NewService(primary, secondary interfaces.QuoteSource, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		primary:       primary,
		secondary:     secondary,
		cache:         cache.New[*models.Quote](),
		primaryTTL:    5 * time.Minute,
		secondaryTTL:  10 * time.Minute,
		maxConcurrent: defaultMaxConcurrent,
		logger:        logger,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Cache exposes the underlying cache, for tests.
func (s *Service) Cache() *cache.Cache[*models.Quote] {
	return s.cache
}

// GetQuote resolves one symbol. Concurrent calls for the same symbol
// share a single in-flight fetch.
func (s *Service) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	if cached, ok := s.cache.Get(symbol); ok {
		return cached, nil
	}

	result, err, _ := s.group.Do(symbol, func() (interface{}, error) {
		// Re-check under the flight: a concurrent fetch may have
		// populated the cache while this call waited its turn.
		if cached, ok := s.cache.Get(symbol); ok {
			return cached, nil
		}
		return s.fetch(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	return result.(*models.Quote), nil
}

// fetch walks the source tiers and applies the cache policy.
func (s *Service) fetch(ctx context.Context, symbol string) (*models.Quote, error) {
	quote, primaryErr := s.primary.GetQuote(ctx, symbol)
	if primaryErr == nil && quote != nil {
		s.cache.Put(symbol, quote, s.primaryTTL)
		return quote, nil
	}

	s.logger.Warn().
		Err(primaryErr).
		Str("symbol", symbol).
		Msg("Primary quote source failed")

	if s.secondary != nil {
		quote, secondaryErr := s.secondary.GetQuote(ctx, symbol)
		if secondaryErr == nil && quote != nil {
			s.logger.Info().
				Str("symbol", symbol).
				Str("source", string(quote.Source)).
				Msg("Secondary quote source succeeded")
			s.cache.Put(symbol, quote, s.secondaryTTL)
			return quote, nil
		}

		s.logger.Warn().
			Err(secondaryErr).
			Str("symbol", symbol).
			Msg("Secondary quote source failed")
	}

	// Both sources down: serve the most recent cache entry, explicitly
	// marked stale. The cached quote itself stays untouched.
	if cached, _, ok := s.cache.GetStale(symbol); ok {
		stale := *cached
		stale.Stale = true
		s.logger.Info().
			Str("symbol", symbol).
			Time("fetched_at", cached.FetchedAt).
			Msg("Serving stale cached quote")
		return &stale, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrQuoteUnavailable, symbol)
}

// GetQuotes resolves a batch of symbols concurrently, bounded by the
// configured parallelism. It returns only after every symbol has
// settled; one symbol's failure never aborts the others.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) map[string]interfaces.QuoteResult {
	results := make(map[string]interfaces.QuoteResult, len(symbols))
	if len(symbols) == 0 {
		return results
	}

	type outcome struct {
		symbol string
		quote  *models.Quote
		err    error
	}

	outcomes := make(chan outcome, len(symbols))

	g := &errgroup.Group{}
	g.SetLimit(s.maxConcurrent)
	for _, symbol := range symbols {
		g.Go(func() error {
			q, err := s.GetQuote(ctx, symbol)
			outcomes <- outcome{symbol: models.NormalizeSymbol(symbol), quote: q, err: err}
			return nil
		})
	}

	g.Wait() // errors travel through outcomes, never abort the group
	close(outcomes)

	for o := range outcomes {
		results[o.symbol] = interfaces.QuoteResult{Quote: o.quote, Err: o.err}
	}

	return results
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
