package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mingmanhk/deepticker/internal/common"
	"github.com/mingmanhk/deepticker/internal/interfaces"
	"github.com/mingmanhk/deepticker/internal/models"
)

// Service owns holdings CRUD and refresh orchestration. Holdings
// mutations persist immediately; quote and stats refresh happens only
// on explicit Refresh calls.
type Service struct {
	holdings interfaces.HoldingsStore
	kv       interfaces.SystemKV
	quotes   interfaces.QuoteService
	policy   common.HealthPolicy
	logger   *common.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(holdings interfaces.HoldingsStore, kv interfaces.SystemKV, quotes interfaces.QuoteService, policy common.HealthPolicy, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		holdings: holdings,
		kv:       kv,
		quotes:   quotes,
		policy:   policy,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ interfaces.PortfolioService = (*Service)(nil)

// Refresh fetches quotes for every holding and rebuilds the snapshot.
// Every symbol settles before the snapshot is assembled; a failed
// symbol produces a position with an error, never an aborted refresh.
func (s *Service) Refresh(ctx context.Context) (*models.PortfolioSnapshot, error) {
	holdings, err := s.ListHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}

	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	results := s.quotes.GetQuotes(ctx, symbols)

	positions := make([]models.Position, 0, len(holdings))
	for _, h := range holdings {
		pos := models.Position{Holding: h}
		res := results[h.Symbol]
		if res.Err != nil {
			pos.Err = res.Err.Error()
			s.logger.Warn().
				Str("symbol", h.Symbol).
				Err(res.Err).
				Msg("Quote unavailable during refresh")
		} else {
			pos.Quote = res.Quote
			price := decimal.NewFromFloat(res.Quote.Price)
			pos.Value, _ = h.Shares.Mul(price).Float64()
			pos.Health = s.classifyPosition(res.Quote.ChangePct)
		}
		positions = append(positions, pos)
	}

	snap := &models.PortfolioSnapshot{
		Positions:   positions,
		Stats:       s.ComputeStats(positions),
		RefreshedAt: s.now(),
	}

	if err := s.kv.Set(ctx, interfaces.KVLastRefresh, strconv.FormatInt(snap.RefreshedAt.Unix(), 10)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record last refresh time")
	}

	s.logger.Info().
		Int("positions", len(positions)).
		Float64("total_value", snap.Stats.TotalValue).
		Str("health", string(snap.Stats.OverallHealth)).
		Msg("Portfolio refreshed")

	return snap, nil
}

// AddHolding creates or replaces a holding for symbol.
func (s *Service) AddHolding(ctx context.Context, symbol string, shares, costBasis decimal.Decimal) (*models.Holding, error) {
	symbol = models.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if shares.Sign() <= 0 {
		return nil, fmt.Errorf("shares must be positive")
	}

	now := s.now()
	holding := &models.Holding{
		Symbol:    symbol,
		Shares:    shares,
		CostBasis: costBasis,
		AddedAt:   now,
		UpdatedAt: now,
	}
	if existing, err := s.holdings.Get(ctx, symbol); err == nil && existing != nil {
		holding.AddedAt = existing.AddedAt
	}

	if err := s.holdings.Put(ctx, holding); err != nil {
		return nil, fmt.Errorf("storing holding %s: %w", symbol, err)
	}
	s.logger.Info().Str("symbol", symbol).Str("shares", shares.String()).Msg("Holding added")
	return holding, nil
}

// UpdateHolding mutates shares/cost basis of an existing holding.
func (s *Service) UpdateHolding(ctx context.Context, symbol string, shares, costBasis decimal.Decimal) (*models.Holding, error) {
	symbol = models.NormalizeSymbol(symbol)
	existing, err := s.holdings.Get(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("loading holding %s: %w", symbol, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("no holding for %s", symbol)
	}
	if shares.Sign() <= 0 {
		return nil, fmt.Errorf("shares must be positive")
	}

	existing.Shares = shares
	existing.CostBasis = costBasis
	existing.UpdatedAt = s.now()

	if err := s.holdings.Put(ctx, existing); err != nil {
		return nil, fmt.Errorf("storing holding %s: %w", symbol, err)
	}
	s.logger.Info().Str("symbol", symbol).Str("shares", shares.String()).Msg("Holding updated")
	return existing, nil
}

// RemoveHolding deletes a holding.
func (s *Service) RemoveHolding(ctx context.Context, symbol string) error {
	symbol = models.NormalizeSymbol(symbol)
	if err := s.holdings.Delete(ctx, symbol); err != nil {
		return fmt.Errorf("deleting holding %s: %w", symbol, err)
	}
	s.logger.Info().Str("symbol", symbol).Msg("Holding removed")
	return nil
}

// ListHoldings returns holdings ordered by symbol.
func (s *Service) ListHoldings(ctx context.Context) ([]models.Holding, error) {
	holdings, err := s.holdings.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(holdings, func(i, j int) bool {
		return holdings[i].Symbol < holdings[j].Symbol
	})
	return holdings, nil
}

// classifyPosition buckets a holding by its daily change percent.
func (s *Service) classifyPosition(changePct float64) models.HealthBucket {
	if changePct <= -s.policy.DangerDeclinePct {
		return models.HealthDanger
	}
	if math.Abs(changePct) >= s.policy.WarnAbsPct {
		return models.HealthWarning
	}
	return models.HealthHealthy
}

// ComputeStats derives portfolio aggregates from positions. Positions
// without a quote contribute nothing to value or change and are not
// counted in any health bucket.
func (s *Service) ComputeStats(positions []models.Position) models.PortfolioStats {
	stats := models.PortfolioStats{}

	quoted := 0
	var previousValue float64
	for _, p := range positions {
		if p.Quote == nil {
			continue
		}
		quoted++
		stats.TotalValue += p.Value

		shares, _ := p.Holding.Shares.Float64()
		stats.DailyChange += p.Quote.Change * shares
		previousValue += p.Quote.PreviousClose * shares

		switch p.Health {
		case models.HealthDanger:
			stats.DangerCount++
		case models.HealthWarning:
			stats.WarningCount++
		default:
			stats.HealthyCount++
		}
	}

	if previousValue > 0 {
		stats.DailyChangePct = stats.DailyChange / previousValue * 100
	}

	stats.OverallHealth = models.HealthHealthy
	if quoted > 0 {
		dangerRatio := float64(stats.DangerCount) / float64(quoted)
		warnRatio := float64(stats.WarningCount) / float64(quoted)
		switch {
		case dangerRatio > s.policy.DangerRatio:
			stats.OverallHealth = models.HealthDanger
		case warnRatio > s.policy.WarnRatio:
			stats.OverallHealth = models.HealthWarning
		}
	}

	return stats
}
