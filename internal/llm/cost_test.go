package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCostKnownModel(t *testing.T) {
	e := NewCostEstimator()
	cost := e.EstimateCost("gpt-4o-2024-08-06", 1_000_000, 0)
	assert.InDelta(t, 2.50, cost, 0.001)
}

func TestEstimateCostUnknownModelIsZero(t *testing.T) {
	e := NewCostEstimator()
	assert.Equal(t, 0.0, e.EstimateCost("mystery-model", 1000, 1000))
}

func TestEstimateTokensNonNegative(t *testing.T) {
	e := NewCostEstimator()
	assert.Greater(t, e.EstimateTokens("hello there, how are you today?"), 0)
	assert.Equal(t, 0, e.EstimateTokens(""))
}
