package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents one portfolio position. Shares and cost basis use
// decimal arithmetic so position math never accumulates float error.
type Holding struct {
	Symbol    string          `json:"symbol" badgerhold:"key"`
	Shares    decimal.Decimal `json:"shares"`
	CostBasis decimal.Decimal `json:"cost_basis,omitempty"`
	AddedAt   time.Time       `json:"added_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HealthBucket classifies a holding's or portfolio's recent performance.
type HealthBucket string

const (
	HealthHealthy HealthBucket = "healthy"
	HealthWarning HealthBucket = "warning"
	HealthDanger  HealthBucket = "danger"
)

// Position pairs a holding with its latest quote. Quote is nil and Err
// is set when the symbol's fetch failed; one failed symbol never aborts
// the rest of a refresh.
type Position struct {
	Holding Holding      `json:"holding"`
	Quote   *Quote       `json:"quote,omitempty"`
	Value   float64      `json:"value"`
	Health  HealthBucket `json:"health,omitempty"`
	Err     string       `json:"error,omitempty"`
}

// PortfolioSnapshot is the derived view recomputed on every refresh.
// It is never persisted independently.
type PortfolioSnapshot struct {
	Positions   []Position     `json:"positions"`
	Stats       PortfolioStats `json:"stats"`
	RefreshedAt time.Time      `json:"refreshed_at"`
}

// PortfolioStats holds portfolio-level aggregates and health-bucket counts.
type PortfolioStats struct {
	TotalValue     float64      `json:"total_value"`
	DailyChange    float64      `json:"daily_change"`
	DailyChangePct float64      `json:"daily_change_pct"`
	HealthyCount   int          `json:"healthy_count"`
	WarningCount   int          `json:"warning_count"`
	DangerCount    int          `json:"danger_count"`
	OverallHealth  HealthBucket `json:"overall_health"`
}

// Symbols returns the symbols of all positions in snapshot order.
func (s *PortfolioSnapshot) Symbols() []string {
	out := make([]string, 0, len(s.Positions))
	for _, p := range s.Positions {
		out = append(out, p.Holding.Symbol)
	}
	return out
}
