package analytics

import (
	"math"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

// DetectAnomalies flags expense transactions in the given category whose
// amount exceeds mean + 2*stddev of that category's expense amounts.
// Fewer than 3 data points yields no result: there is no meaningful
// baseline to deviate from.
func DetectAnomalies(txs []core.Transaction, category string) []core.Transaction {
	var sample []core.Transaction
	for _, t := range txs {
		if t.Category == category && t.Type == core.Expense {
			sample = append(sample, t)
		}
	}
	if len(sample) < 3 {
		return nil
	}

	var sum float64
	for _, t := range sample {
		sum += float64(t.Amount.Cents)
	}
	mean := sum / float64(len(sample))

	var variance float64
	for _, t := range sample {
		d := float64(t.Amount.Cents) - mean
		variance += d * d
	}
	variance /= float64(len(sample))
	threshold := mean + 2*math.Sqrt(variance)

	var out []core.Transaction
	for _, t := range sample {
		if float64(t.Amount.Cents) > threshold {
			out = append(out, t)
		}
	}
	return out
}
