// Package pricing derives monetary cost estimates from token counts.
//
// Rates default to the published Claude 3 Haiku per-1000-token prices:
// input $0.00025, output $0.00125.
package pricing

import (
	"fmt"
	"strings"
)

// Default per-1000-token rates in USD.
const (
	InputPer1K  = 0.00025
	OutputPer1K = 0.00125
)

// Cost returns the dollar cost for a token count at a given per-1k rate.
// Non-positive token counts cost exactly zero.
func Cost(tokens int, ratePer1000 float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return float64(tokens) / 1000 * ratePer1000
}

// Total returns the combined input and output cost. It is computed fresh
// from the current counts; there is no accumulated cost state anywhere.
func Total(inputTokens, outputTokens int, inputRate, outputRate float64) float64 {
	return Cost(inputTokens, inputRate) + Cost(outputTokens, outputRate)
}

// FormatTokens renders a token count with thousands separators.
func FormatTokens(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatCost renders a dollar amount with six decimal places.
func FormatCost(v float64) string {
	return fmt.Sprintf("$%.6f", v)
}
