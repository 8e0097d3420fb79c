package engine

import "fmt"

// Format lays percentages out in the caller's state order. A name missing
// from the index means the pipeline stages disagree and is reported as
// ErrInternal.
func Format(idx *Index, order []string, pct []float64) ([]string, []float64, error) {
	if len(pct) != idx.Len() || len(order) != idx.Len() {
		return nil, nil, fmt.Errorf("%w: %d values for %d states", ErrInternal, len(pct), idx.Len())
	}
	states := make([]string, len(order))
	freqs := make([]float64, len(order))
	for pos, name := range order {
		id, ok := idx.ID(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: state %q missing from index", ErrInternal, name)
		}
		states[pos] = name
		freqs[pos] = pct[id]
	}
	return states, freqs, nil
}
