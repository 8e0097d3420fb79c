package engine

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/spf13/cast"
)

// RawTransitions is caller-supplied transition data keyed by state name.
// Values may be missing, non-numeric, or unnormalized.
type RawTransitions map[string]map[string]any

// Matrix is a dense row-stochastic transition matrix indexed by Index ids.
type Matrix [][]float64

// ParseRawTransitions converts a decoded JSON object into RawTransitions.
// Rows that are not objects become empty rows, which the builder turns into
// self-loops.
func ParseRawTransitions(v map[string]any) RawTransitions {
	out := make(RawTransitions, len(v))
	for from, row := range v {
		obj, ok := row.(map[string]any)
		if !ok {
			out[from] = map[string]any{}
			continue
		}
		out[from] = obj
	}
	return out
}

// RawFromFloats wraps an already numeric matrix as RawTransitions.
func RawFromFloats(m map[string]map[string]float64) RawTransitions {
	out := make(RawTransitions, len(m))
	for from, row := range m {
		r := make(map[string]any, len(row))
		for to, p := range row {
			r[to] = p
		}
		out[from] = r
	}
	return out
}

// ParseNumber reads a lenient numeric value. Numbers and numeric strings are
// accepted; nil, booleans, unparsable values, NaN and infinities are not.
func ParseNumber(v any) (float64, bool) {
	switch v.(type) {
	case nil, bool:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// BuildMatrix turns raw entries into a row-stochastic matrix. Missing or
// non-numeric entries count as zero; an all-zero row becomes a self-loop.
// Negative entries are rejected with ErrValidation.
func BuildMatrix(idx *Index, raw RawTransitions) (Matrix, error) {
	n := idx.Len()
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}

	for _, from := range slices.Sorted(maps.Keys(raw)) {
		i, ok := idx.ID(from)
		if !ok {
			return nil, fmt.Errorf("%w: transition row for undeclared state %q", ErrShape, from)
		}
		row := raw[from]
		for _, to := range slices.Sorted(maps.Keys(row)) {
			j, ok := idx.ID(to)
			if !ok {
				return nil, fmt.Errorf("%w: transition %q -> %q targets an undeclared state", ErrShape, from, to)
			}
			p, ok := ParseNumber(row[to])
			if !ok {
				continue
			}
			if p < 0 {
				return nil, fmt.Errorf("%w: negative probability %g for %q -> %q", ErrValidation, p, from, to)
			}
			m[i][j] = p
		}
	}

	for i, row := range m {
		total := 0.0
		for _, p := range row {
			total += p
		}
		if math.IsInf(total, 0) {
			return nil, fmt.Errorf("%w: probabilities leaving %q overflow", ErrValidation, idx.Name(i))
		}
		if total == 0 {
			row[i] = 1
			continue
		}
		for j := range row {
			row[j] /= total
		}
	}
	return m, nil
}

// ToMap re-expresses the matrix keyed by state name, omitting zero entries.
func (m Matrix) ToMap(idx *Index) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m))
	for i, row := range m {
		r := make(map[string]float64)
		for j, p := range row {
			if p != 0 {
				r[idx.Name(j)] = p
			}
		}
		out[idx.Name(i)] = r
	}
	return out
}
