package mysql

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

// roundRate bulatkan ke 2 desimal
func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}
