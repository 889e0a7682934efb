package insight

import (
	"fmt"
	"strings"

	"github.com/mingmanhk/deepticker/internal/models"
)

// Default prompt per insight kind. A user-supplied override replaces
// the template verbatim; the portfolio context block is appended to
// whichever text is used.
var defaultPrompts = map[models.InsightKind]string{
	models.InsightPortfolioSummary: `Analyze the portfolio below and return a JSON object with exactly these fields:
- "summary": string, two to three sentences on the portfolio's current state
- "risk_level": string, one of "low", "medium", "high"
- "sentiment": string, one of "positive", "neutral", "negative"
- "bullet_points": array of strings, three to five key observations

Return only the JSON object.`,

	models.InsightStockPrediction: `For each holding in the portfolio below, predict the short-term price direction. Return a JSON object with exactly this field:
- "predictions": array of objects, one per holding, each with:
  - "symbol": string, the ticker symbol
  - "direction": string, one of "up", "down", "neutral"
  - "confidence": number between 0 and 1
  - "predicted_change_pct": number, expected percent change
  - "reasoning": string, one or two sentences

Return only the JSON object.`,

	models.InsightMarketingBriefing: `Write a market briefing for the portfolio below. Return a JSON object with exactly these fields:
- "headline": string, one attention-grabbing line
- "narrative": string, two short paragraphs of market context
- "themes": array of strings, the dominant market themes
- "outlook": string, one of "bullish", "neutral", "bearish"

Return only the JSON object.`,
}

// buildPrompt assembles the final prompt: template (default or
// override) plus the structured portfolio context block.
func buildPrompt(kind models.InsightKind, snapshot *models.PortfolioSnapshot, promptOverride string) string {
	template := promptOverride
	if template == "" {
		template = defaultPrompts[kind]
	}

	var sb strings.Builder
	sb.WriteString(template)
	sb.WriteString("\n\nPortfolio:\n")
	for _, p := range snapshot.Positions {
		if p.Quote != nil {
			sb.WriteString(fmt.Sprintf("- %s: %s shares, price $%.2f, daily change %.2f%%\n",
				p.Holding.Symbol, p.Holding.Shares.String(), p.Quote.Price, p.Quote.ChangePct))
		} else {
			sb.WriteString(fmt.Sprintf("- %s: %s shares, price unavailable\n",
				p.Holding.Symbol, p.Holding.Shares.String()))
		}
	}
	if len(snapshot.Positions) == 0 {
		sb.WriteString("(empty portfolio)\n")
	}

	return sb.String()
}
