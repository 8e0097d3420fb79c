package engine

import (
	"fmt"
	"math"
)

// Solution is the long-run distribution of the embedded chain together with
// how it was obtained.
type Solution struct {
	Pi           []float64 // indexed by state id, zero on transient states
	ClassWeights []float64 // mass per closed class, in Structure.Closed() order
	Iterations   int       // power-iteration steps across all solves
	Cesaro       bool      // at least one class needed the averaging fallback
}

// Solve computes the long-run distribution of m started from mu. Each closed
// class is solved on its own; when several exist they are blended by their
// absorption probability from mu.
func Solve(m Matrix, st *Structure, mu []float64, opts Options) (*Solution, error) {
	closed := st.Closed()
	if len(closed) == 0 {
		return nil, fmt.Errorf("%w: chain has no closed class", ErrInternal)
	}

	sol := &Solution{Pi: make([]float64, len(m))}
	weights := []float64{1}
	if len(closed) > 1 {
		w, iters, err := absorption(m, st, closed, mu, opts)
		if err != nil {
			return nil, err
		}
		weights = w
		sol.Iterations += iters
	}
	sol.ClassWeights = weights

	for k, c := range closed {
		if weights[k] == 0 {
			continue
		}
		cl := st.Classes[c]
		pi, iters, cesaro, err := stationary(subMatrix(m, cl.Members), cl.Period, opts)
		sol.Iterations += iters
		if err != nil {
			return nil, err
		}
		sol.Cesaro = sol.Cesaro || cesaro
		for i, v := range cl.Members {
			sol.Pi[v] += weights[k] * pi[i]
		}
	}
	normalize(sol.Pi)
	return sol, nil
}

// stationary runs power iteration from the uniform distribution on an
// irreducible stochastic matrix. When the iteration bound is reached it falls
// back to the mean of the last window iterates, with the window rounded up to
// a multiple of the period.
func stationary(p Matrix, period int, opts Options) ([]float64, int, bool, error) {
	k := len(p)
	cur := uniform(k)
	next := make([]float64, k)

	window := cesaroWindow(opts.CesaroWindow, period)
	ring := make([][]float64, window)
	filled := 0

	for it := 1; it <= opts.MaxIterations; it++ {
		step(cur, p, next)
		d := l1(next, cur)
		cur, next = next, cur

		slot := ring[it%window]
		if slot == nil {
			slot = make([]float64, k)
			ring[it%window] = slot
		}
		copy(slot, cur)
		filled = min(filled+1, window)

		if d < opts.Tolerance {
			normalize(cur)
			return cur, it, false, nil
		}
	}

	avg := make([]float64, k)
	for _, slot := range ring {
		if slot == nil {
			continue
		}
		for i, v := range slot {
			avg[i] += v / float64(filled)
		}
	}
	normalize(avg)

	step(avg, p, next)
	if r := l1(next, avg); r >= opts.FixedPointTolerance {
		return nil, opts.MaxIterations, true, fmt.Errorf(
			"%w: power iteration did not settle after %d steps (residual %.3g after averaging)",
			ErrConvergence, opts.MaxIterations, r)
	}
	return avg, opts.MaxIterations, true, nil
}

// absorption iterates mu·P^k until the mass left on transient states drops
// below opts.Tolerance and returns the share of each closed class. When the
// iteration bound is reached first, the mass absorbed so far is renormalized.
func absorption(m Matrix, st *Structure, closed []int, mu []float64, opts Options) ([]float64, int, error) {
	pos := make(map[int]int, len(closed))
	for k, c := range closed {
		pos[c] = k
	}

	cur := make([]float64, len(mu))
	copy(cur, mu)
	next := make([]float64, len(mu))

	split := func() ([]float64, float64) {
		weights := make([]float64, len(closed))
		transient := 0.0
		for v, mass := range cur {
			if k, ok := pos[st.ClassOf[v]]; ok {
				weights[k] += mass
			} else {
				transient += mass
			}
		}
		return weights, transient
	}

	for it := 0; it < opts.MaxIterations; it++ {
		if weights, transient := split(); transient < opts.Tolerance {
			normalize(weights)
			return weights, it, nil
		}
		step(cur, m, next)
		cur, next = next, cur
	}

	weights, _ := split()
	absorbed := 0.0
	for _, w := range weights {
		absorbed += w
	}
	if absorbed == 0 {
		return nil, opts.MaxIterations, fmt.Errorf(
			"%w: no probability reached a closed class after %d steps", ErrConvergence, opts.MaxIterations)
	}
	normalize(weights)
	return weights, opts.MaxIterations, nil
}

// cesaroWindow rounds the averaging window up to a multiple of the period so
// every cyclic subclass is weighted equally.
func cesaroWindow(window, period int) int {
	if window < 1 {
		window = 1
	}
	if period <= 1 {
		return window
	}
	return ((window + period - 1) / period) * period
}

func subMatrix(m Matrix, members []int) Matrix {
	sub := make(Matrix, len(members))
	for a, u := range members {
		sub[a] = make([]float64, len(members))
		for b, v := range members {
			sub[a][b] = m[u][v]
		}
	}
	return sub
}

// step writes x·P into out.
func step(x []float64, p Matrix, out []float64) {
	for j := range out {
		out[j] = 0
	}
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		for j, pij := range p[i] {
			out[j] += xi * pij
		}
	}
}

func l1(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d
}

func uniform(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1 / float64(n)
	}
	return v
}

func normalize(v []float64) {
	total := 0.0
	for _, x := range v {
		total += x
	}
	if total == 0 {
		return
	}
	for i := range v {
		v[i] /= total
	}
}
