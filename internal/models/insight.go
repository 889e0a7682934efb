package models

import "time"

// ProviderID identifies an AI analysis provider.
type ProviderID string

const (
	ProviderGemini    ProviderID = "gemini" // built-in default
	ProviderOpenAI    ProviderID = "openai"
	ProviderAnthropic ProviderID = "anthropic"
	ProviderDeepSeek  ProviderID = "deepseek"
)

// DefaultProvider is auto-selected when it holds a credential and the
// user has not chosen a provider explicitly.
const DefaultProvider = ProviderGemini

// AllProviders lists every supported provider in display order.
func AllProviders() []ProviderID {
	return []ProviderID{ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderDeepSeek}
}

// ValidProvider reports whether id names a supported provider.
func ValidProvider(id ProviderID) bool {
	for _, p := range AllProviders() {
		if p == id {
			return true
		}
	}
	return false
}

// ProviderStatus describes one provider's configuration as seen by the UI.
// Only providers with a present credential are selectable.
type ProviderStatus struct {
	ID         ProviderID `json:"id"`
	Configured bool       `json:"configured"`
	Selected   bool       `json:"selected"`
	Default    bool       `json:"default"`
}

// InsightKind selects which insight shape the dispatcher produces.
type InsightKind string

const (
	InsightPortfolioSummary  InsightKind = "portfolio_summary"
	InsightStockPrediction   InsightKind = "stock_prediction"
	InsightMarketingBriefing InsightKind = "marketing_briefing"
)

// ValidInsightKind reports whether kind names a supported insight shape.
func ValidInsightKind(kind InsightKind) bool {
	switch kind {
	case InsightPortfolioSummary, InsightStockPrediction, InsightMarketingBriefing:
		return true
	}
	return false
}

// Direction is a stock prediction direction. It is always one of the
// three enumerated values, never free text from the model.
type Direction string

const (
	DirectionUp      Direction = "up"
	DirectionDown    Direction = "down"
	DirectionNeutral Direction = "neutral"
)

// PortfolioSummary is the structured portfolio-level analysis shape.
type PortfolioSummary struct {
	Summary      string   `json:"summary"`
	RiskLevel    string   `json:"risk_level"`
	Sentiment    string   `json:"sentiment"`
	BulletPoints []string `json:"bullet_points"`
}

// StockPrediction is the structured per-stock prediction shape.
// Confidence is always clamped to [0,1].
type StockPrediction struct {
	Symbol             string    `json:"symbol"`
	Direction          Direction `json:"direction"`
	Confidence         float64   `json:"confidence"`
	PredictedChangePct float64   `json:"predicted_change_pct"`
	Reasoning          string    `json:"reasoning"`
}

// MarketingBriefing is the structured market-briefing shape.
type MarketingBriefing struct {
	Headline  string   `json:"headline"`
	Narrative string   `json:"narrative"`
	Themes    []string `json:"themes"`
	Outlook   string   `json:"outlook"`
}

// Insight is one AI analysis result. Exactly one of the variant fields
// is populated, matching Kind.
type Insight struct {
	ID          string             `json:"id"`
	Kind        InsightKind        `json:"kind"`
	Provider    ProviderID         `json:"provider"`
	Summary     *PortfolioSummary  `json:"portfolio_summary,omitempty"`
	Predictions []StockPrediction  `json:"stock_predictions,omitempty"`
	Briefing    *MarketingBriefing `json:"marketing_briefing,omitempty"`
	RawText     string             `json:"raw_text,omitempty"` // provider free text the variant was decoded from
	GeneratedAt time.Time          `json:"generated_at"`
	Cached      bool               `json:"cached,omitempty"`
}
