package engine

import (
	"fmt"
	"math"
)

// Weigh combines the embedded-chain distribution with mean holding times into
// long-run occupancy percentages: w_i = pi_i * h_i, pct_i = 100 * w_i / sum(w).
// The result is the asymptotic share of time; it does not depend on the
// horizon.
func Weigh(pi, holding []float64) ([]float64, error) {
	if len(pi) != len(holding) {
		return nil, fmt.Errorf("%w: %d probabilities for %d holding times", ErrInternal, len(pi), len(holding))
	}
	w := make([]float64, len(pi))
	total := 0.0
	for i := range pi {
		w[i] = pi[i] * holding[i]
		total += w[i]
	}
	if !(total > 0) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: occupancy weights sum to %g", ErrInternal, total)
	}
	for i := range w {
		w[i] = 100 * w[i] / total
	}
	return w, nil
}
