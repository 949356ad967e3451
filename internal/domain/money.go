package domain

import "math"

// Round2 rounds a monetary amount to 2 decimal places. Every balance
// mutation and every ledger amount passes through this before it is stored.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
