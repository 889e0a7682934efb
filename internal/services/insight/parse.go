package insight

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/mingmanhk/deepticker/internal/models"
)

// extractJSON finds the first balanced JSON object in text using brace
// matching, ignoring braces inside string literals. Returns "" when no
// balanced object exists.
func extractJSON(text string) string {
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escaped := false

	for i := startIdx; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}

		if ch == '\\' {
			escaped = true
			continue
		}

		if ch == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if ch == '{' {
				braceCount++
			} else if ch == '}' {
				braceCount--
				if braceCount == 0 {
					return text[startIdx : i+1]
				}
			}
		}
	}

	return ""
}

// decodeLoose attempts a strict JSON decode of raw, then falls back to
// decoding the first balanced JSON object substring. Models often wrap
// their JSON in prose or markdown fences.
func decodeLoose(raw string, v interface{}) error {
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	embedded := extractJSON(trimmed)
	if embedded == "" {
		return errors.New("no JSON object found in response")
	}
	return json.Unmarshal([]byte(embedded), v)
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeDirection coerces free-form model output into one of the
// three enumerated directions. Anything unrecognized is neutral.
func normalizeDirection(s string) models.Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "bullish", "positive", "buy", "long":
		return models.DirectionUp
	case "down", "bearish", "negative", "sell", "short":
		return models.DirectionDown
	default:
		return models.DirectionNeutral
	}
}

// summaryPayload mirrors the JSON shape requested from providers for
// portfolio summaries.
type summaryPayload struct {
	Summary      string   `json:"summary"`
	RiskLevel    string   `json:"risk_level"`
	Sentiment    string   `json:"sentiment"`
	BulletPoints []string `json:"bullet_points"`
}

// predictionPayload mirrors the per-stock prediction JSON shape.
type predictionPayload struct {
	Predictions []struct {
		Symbol             string  `json:"symbol"`
		Direction          string  `json:"direction"`
		Confidence         float64 `json:"confidence"`
		PredictedChangePct float64 `json:"predicted_change_pct"`
		Reasoning          string  `json:"reasoning"`
	} `json:"predictions"`
}

// briefingPayload mirrors the marketing-briefing JSON shape.
type briefingPayload struct {
	Headline  string   `json:"headline"`
	Narrative string   `json:"narrative"`
	Themes    []string `json:"themes"`
	Outlook   string   `json:"outlook"`
}

// parseInsight decodes raw provider text into the requested variant.
// It never fabricates structured data: decode failures surface as a
// ParseError carrying the raw text.
func parseInsight(provider models.ProviderID, kind models.InsightKind, raw string) (*models.Insight, error) {
	out := &models.Insight{
		Kind:     kind,
		Provider: provider,
		RawText:  raw,
	}

	fail := func(err error) (*models.Insight, error) {
		return nil, &ParseError{Provider: provider, Kind: kind, Raw: raw, Err: err}
	}

	switch kind {
	case models.InsightPortfolioSummary:
		var payload summaryPayload
		if err := decodeLoose(raw, &payload); err != nil {
			return fail(err)
		}
		if payload.Summary == "" {
			return fail(errors.New("response JSON missing summary field"))
		}
		out.Summary = &models.PortfolioSummary{
			Summary:      payload.Summary,
			RiskLevel:    payload.RiskLevel,
			Sentiment:    payload.Sentiment,
			BulletPoints: payload.BulletPoints,
		}

	case models.InsightStockPrediction:
		var payload predictionPayload
		if err := decodeLoose(raw, &payload); err != nil {
			return fail(err)
		}
		if len(payload.Predictions) == 0 {
			return fail(errors.New("response JSON missing predictions"))
		}
		predictions := make([]models.StockPrediction, 0, len(payload.Predictions))
		for _, p := range payload.Predictions {
			predictions = append(predictions, models.StockPrediction{
				Symbol:             models.NormalizeSymbol(p.Symbol),
				Direction:          normalizeDirection(p.Direction),
				Confidence:         clamp01(p.Confidence),
				PredictedChangePct: p.PredictedChangePct,
				Reasoning:          p.Reasoning,
			})
		}
		out.Predictions = predictions

	case models.InsightMarketingBriefing:
		var payload briefingPayload
		if err := decodeLoose(raw, &payload); err != nil {
			return fail(err)
		}
		if payload.Headline == "" && payload.Narrative == "" {
			return fail(errors.New("response JSON missing briefing fields"))
		}
		out.Briefing = &models.MarketingBriefing{
			Headline:  payload.Headline,
			Narrative: payload.Narrative,
			Themes:    payload.Themes,
			Outlook:   payload.Outlook,
		}

	default:
		return fail(errors.New("unknown insight kind"))
	}

	return out, nil
}
