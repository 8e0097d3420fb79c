package engine

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
)

// CheckShape verifies that every referenced state is declared and that every
// declared state has a positive holding time. The start state, if given, must
// be declared.
func CheckShape(idx *Index, raw RawTransitions, holding map[string]float64, start string) error {
	for _, from := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := idx.ID(from); !ok {
			return fmt.Errorf("%w: transition row for undeclared state %q", ErrShape, from)
		}
		for _, to := range slices.Sorted(maps.Keys(raw[from])) {
			if _, ok := idx.ID(to); !ok {
				return fmt.Errorf("%w: transition %q -> %q targets an undeclared state", ErrShape, from, to)
			}
		}
	}
	for _, s := range slices.Sorted(maps.Keys(holding)) {
		if _, ok := idx.ID(s); !ok {
			return fmt.Errorf("%w: holding time for undeclared state %q", ErrShape, s)
		}
	}
	for _, s := range idx.names {
		h, ok := holding[s]
		if !ok {
			return fmt.Errorf("%w: missing holding time for %q", ErrValidation, s)
		}
		if !(h > 0) || math.IsInf(h, 0) {
			return fmt.Errorf("%w: holding time for %q must be a positive number, got %g", ErrValidation, s, h)
		}
	}
	if start != "" {
		if _, ok := idx.ID(start); !ok {
			return fmt.Errorf("%w: start state %q is not declared", ErrShape, start)
		}
	}
	return nil
}

// CheckMatrix re-validates a built matrix: it must be n×n with entries in
// [0,1] and every row summing to 1 within tol.
func CheckMatrix(m Matrix, n int, tol float64) error {
	if len(m) != n {
		return fmt.Errorf("%w: matrix has %d rows, want %d", ErrShape, len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), n)
		}
		sum := 0.0
		for j, p := range row {
			if math.IsNaN(p) || p < -tol || p > 1+tol {
				return fmt.Errorf("%w: entry (%d,%d) = %g is not a probability", ErrNormalization, i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: row %d sums to %.9f", ErrNormalization, i, sum)
		}
	}
	return nil
}

// Class is a communicating class of the chain.
type Class struct {
	Members []int // ascending ids
	Closed  bool  // no probability leaves the class
	Period  int   // set for closed classes, 1 when aperiodic
}

// Structure is the communicating-class decomposition of a matrix.
type Structure struct {
	Classes []Class // ordered by smallest member
	ClassOf []int   // state id -> position in Classes
}

// Closed returns the positions of the closed classes in Classes.
func (s *Structure) Closed() []int {
	var out []int
	for c, cl := range s.Classes {
		if cl.Closed {
			out = append(out, c)
		}
	}
	return out
}

// Classify decomposes the graph of non-zero entries into communicating
// classes, marks the closed ones and computes their period.
func Classify(m Matrix) *Structure {
	sccs := tarjanSCC(m)
	for _, scc := range sccs {
		sort.Ints(scc)
	}
	sort.Slice(sccs, func(a, b int) bool { return sccs[a][0] < sccs[b][0] })

	st := &Structure{
		Classes: make([]Class, len(sccs)),
		ClassOf: make([]int, len(m)),
	}
	for c, members := range sccs {
		for _, v := range members {
			st.ClassOf[v] = c
		}
	}
	for c, members := range sccs {
		closed := true
		for _, u := range members {
			for v, p := range m[u] {
				if p > 0 && st.ClassOf[v] != c {
					closed = false
				}
			}
		}
		cl := Class{Members: members, Closed: closed}
		if closed {
			cl.Period = period(m, members, st.ClassOf, c)
		}
		st.Classes[c] = cl
	}
	return st
}

// tarjanSCC returns the strongly connected components of the graph whose
// edges are the positive entries of m.
func tarjanSCC(m Matrix) [][]int {
	n := len(m)
	index := 0
	indices := make([]int, n)
	lowlinks := make([]int, n)
	visited := make([]bool, n)
	onStack := make([]bool, n)
	stack := make([]int, 0, n)
	var sccs [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlinks[v] = index
		visited[v] = true
		index++
		stack = append(stack, v)
		onStack[v] = true

		for w, p := range m[v] {
			if p <= 0 {
				continue
			}
			if !visited[w] {
				strongConnect(w)
				lowlinks[v] = min(lowlinks[v], lowlinks[w])
			} else if onStack[w] {
				lowlinks[v] = min(lowlinks[v], indices[w])
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if !visited[v] {
			strongConnect(v)
		}
	}
	return sccs
}

// period returns the gcd of cycle lengths inside a closed class, using BFS
// levels: every intra-class edge u->v contributes level[u]+1-level[v].
func period(m Matrix, members []int, classOf []int, c int) int {
	level := make(map[int]int, len(members))
	root := members[0]
	level[root] = 0
	queue := []int{root}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for v, p := range m[u] {
			if p <= 0 || classOf[v] != c {
				continue
			}
			if _, seen := level[v]; !seen {
				level[v] = level[u] + 1
				queue = append(queue, v)
			}
		}
	}

	g := 0
	for _, u := range members {
		for v, p := range m[u] {
			if p <= 0 || classOf[v] != c {
				continue
			}
			d := level[u] + 1 - level[v]
			if d < 0 {
				d = -d
			}
			g = gcd(g, d)
		}
	}
	if g == 0 {
		return 1
	}
	return g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
