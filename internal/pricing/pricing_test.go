package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCost(t *testing.T) {
	assert.Equal(t, 0.0, Cost(0, InputPer1K))
	assert.Equal(t, 0.0, Cost(-5, InputPer1K))

	// Exactly 1000 tokens costs exactly the per-1k rate.
	assert.Equal(t, InputPer1K, Cost(1000, InputPer1K))
	assert.Equal(t, OutputPer1K, Cost(1000, OutputPer1K))

	assert.InDelta(t, 0.000125, Cost(500, InputPer1K), 1e-12)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 0.0, Total(0, 0, InputPer1K, OutputPer1K))
	assert.InDelta(t, 0.00025+0.00125, Total(1000, 1000, InputPer1K, OutputPer1K), 1e-12)
}

func TestFormatTokens(t *testing.T) {
	assert.Equal(t, "0", FormatTokens(0))
	assert.Equal(t, "999", FormatTokens(999))
	assert.Equal(t, "1,000", FormatTokens(1000))
	assert.Equal(t, "1,234,567", FormatTokens(1234567))
	assert.Equal(t, "-12,345", FormatTokens(-12345))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.000000", FormatCost(0))
	assert.Equal(t, "$0.000250", FormatCost(0.00025))
	assert.Equal(t, "$1.500000", FormatCost(1.5))
}

func TestEstimateTokens(t *testing.T) {
	n, err := EstimateTokens("Hello, how can I help you today?")
	assert.NoError(t, err)
	assert.Greater(t, n, 0)

	assert.Equal(t, 0, EstimateTokensSimple(""))
}
