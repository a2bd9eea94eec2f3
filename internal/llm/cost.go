package llm

import "strings"

// CostEstimator estimates token counts and dollar cost for log
// annotations. It is informational only and never gates pipeline
// behavior.
type CostEstimator struct {
	pricing map[string]ModelPricing
}

// ModelPricing is the per-million-token rate for one model.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

func defaultPricing() map[string]ModelPricing {
	return map[string]ModelPricing{
		"gpt-4o":           {InputPerMillion: 2.50, OutputPerMillion: 10.00},
		"gpt-4o-mini":      {InputPerMillion: 0.15, OutputPerMillion: 0.60},
		"gemini-1.5-pro":   {InputPerMillion: 1.25, OutputPerMillion: 5.00},
		"gemini-1.5-flash": {InputPerMillion: 0.075, OutputPerMillion: 0.30},
	}
}

// NewCostEstimator returns an estimator seeded with the built-in pricing
// table.
func NewCostEstimator() *CostEstimator {
	return &CostEstimator{pricing: defaultPricing()}
}

// EstimateTokens averages three cheap heuristics (char count / 4, word
// count * 1.3, rune count / 4), avoiding a dependency on any
// model-specific BPE vocabulary.
func (e *CostEstimator) EstimateTokens(text string) int {
	byChars := len(text) / 4
	byWords := int(float64(len(strings.Fields(text))) * 1.3)
	byRunes := len([]rune(text)) / 4
	return (byChars + byWords + byRunes) / 3
}

// normalizeModelName strips version suffixes so "gpt-4o-2024-08-06" still
// matches the "gpt-4o" pricing row. The longest matching prefix wins, so
// "gpt-4o-mini-..." never resolves to the "gpt-4o" row.
func normalizeModelName(model string) string {
	best := model
	bestLen := 0
	for name := range defaultPricing() {
		if strings.HasPrefix(model, name) && len(name) > bestLen {
			best = name
			bestLen = len(name)
		}
	}
	return best
}

// EstimateCost returns the estimated dollar cost of inputTokens +
// outputTokens against model's pricing row. Unknown models return 0, not
// an error, since cost estimation is informational only.
func (e *CostEstimator) EstimateCost(model string, inputTokens, outputTokens int) float64 {
	p, ok := e.pricing[normalizeModelName(model)]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*p.InputPerMillion + float64(outputTokens)/1_000_000*p.OutputPerMillion
}
