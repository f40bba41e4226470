package postgres

import (
	"math"
	"strings"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}
