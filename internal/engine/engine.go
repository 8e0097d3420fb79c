// Package engine estimates the long-run share of time a semi-Markov process
// spends in each of its states.
//
// The pipeline is strictly linear: the raw input is indexed, built into a
// row-stochastic matrix, validated and decomposed into communicating classes,
// solved for the stationary distribution of the embedded chain, weighted by
// mean holding times and finally laid out in the caller's state order.
//
// Every call allocates its own state. An Engine only carries tuning options
// and is safe for concurrent use.
package engine

import "fmt"

// Defaults for Options.
const (
	DefaultMaxIterations       = 10_000
	DefaultTolerance           = 1e-8
	DefaultRowTolerance        = 1e-6
	DefaultFixedPointTolerance = 1e-6
	DefaultCesaroWindow        = 100
)

// Options tunes the solver. Zero fields take the defaults above.
type Options struct {
	// MaxIterations caps every power-iteration loop.
	MaxIterations int
	// Tolerance is the L1 distance between successive iterates that counts
	// as converged. It also bounds the transient mass left when splitting
	// between several closed classes.
	Tolerance float64
	// RowTolerance bounds |row sum - 1| when re-checking a built matrix.
	RowTolerance float64
	// FixedPointTolerance bounds ||pi P - pi||_1 for the averaged fallback.
	FixedPointTolerance float64
	// CesaroWindow is the number of trailing iterates averaged when power
	// iteration does not converge.
	CesaroWindow int
}

// DefaultOptions returns the default solver options.
func DefaultOptions() Options {
	return Options{
		MaxIterations:       DefaultMaxIterations,
		Tolerance:           DefaultTolerance,
		RowTolerance:        DefaultRowTolerance,
		FixedPointTolerance: DefaultFixedPointTolerance,
		CesaroWindow:        DefaultCesaroWindow,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = d.Tolerance
	}
	if o.RowTolerance <= 0 {
		o.RowTolerance = d.RowTolerance
	}
	if o.FixedPointTolerance <= 0 {
		o.FixedPointTolerance = d.FixedPointTolerance
	}
	if o.CesaroWindow <= 0 {
		o.CesaroWindow = d.CesaroWindow
	}
	return o
}

// Input is one computation request.
type Input struct {
	States       []string           // declared states, in output order
	Transitions  RawTransitions     // raw probabilities, normalized per row
	HoldingTimes map[string]float64 // mean sojourn per state, same unit as Hours
	Hours        int                // horizon; must be positive
	StartState   string             // optional; restricts mass to reachable closed classes
}

// Diagnostics describes how a result was obtained.
type Diagnostics struct {
	// MultipleStationary is set when the chain has several closed classes
	// and no start state was given; the result is then the blend from a
	// uniform start.
	MultipleStationary bool       `json:"multiple_stationary"`
	ClosedClasses      [][]string `json:"closed_classes"`
	ClassWeights       []float64  `json:"class_weights"`
	Iterations         int        `json:"iterations"`
	Cesaro             bool       `json:"cesaro"`
}

// Result is the occupancy estimate for one Input.
type Result struct {
	States      []string    `json:"states"`
	Frequencies []float64   `json:"frequencies"` // percentages, same order as States
	Stationary  []float64   `json:"stationary"`  // embedded-chain distribution, same order
	Hours       int         `json:"hours"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Chain is a built and validated transition structure.
type Chain struct {
	Index     *Index
	Matrix    Matrix
	Structure *Structure
	Holding   []float64
}

// Engine runs the occupancy pipeline.
type Engine struct {
	opts Options
}

// New returns an Engine with the given options; zero fields take defaults.
func New(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Prepare indexes, builds and validates the input without solving it.
func (e *Engine) Prepare(in Input) (*Chain, error) {
	if in.Hours <= 0 {
		return nil, fmt.Errorf("%w: hours must be a positive integer, got %d", ErrValidation, in.Hours)
	}
	idx, err := NewIndex(in.States)
	if err != nil {
		return nil, err
	}
	if err := CheckShape(idx, in.Transitions, in.HoldingTimes, in.StartState); err != nil {
		return nil, err
	}
	m, err := BuildMatrix(idx, in.Transitions)
	if err != nil {
		return nil, err
	}
	if err := CheckMatrix(m, idx.Len(), e.opts.RowTolerance); err != nil {
		return nil, err
	}

	holding := make([]float64, idx.Len())
	for i := range holding {
		holding[i] = in.HoldingTimes[idx.Name(i)]
	}
	return &Chain{
		Index:     idx,
		Matrix:    m,
		Structure: Classify(m),
		Holding:   holding,
	}, nil
}

// Compute runs the full pipeline.
func (e *Engine) Compute(in Input) (*Result, error) {
	ch, err := e.Prepare(in)
	if err != nil {
		return nil, err
	}

	n := ch.Index.Len()
	mu := uniform(n)
	if in.StartState != "" {
		start, _ := ch.Index.ID(in.StartState)
		mu = make([]float64, n)
		mu[start] = 1
	}

	sol, err := Solve(ch.Matrix, ch.Structure, mu, e.opts)
	if err != nil {
		return nil, err
	}
	pct, err := Weigh(sol.Pi, ch.Holding)
	if err != nil {
		return nil, err
	}
	states, freqs, err := Format(ch.Index, in.States, pct)
	if err != nil {
		return nil, err
	}
	_, stationary, err := Format(ch.Index, in.States, sol.Pi)
	if err != nil {
		return nil, err
	}

	closed := ch.Structure.Closed()
	diag := Diagnostics{
		MultipleStationary: len(closed) > 1 && in.StartState == "",
		ClosedClasses:      make([][]string, len(closed)),
		ClassWeights:       sol.ClassWeights,
		Iterations:         sol.Iterations,
		Cesaro:             sol.Cesaro,
	}
	for k, c := range closed {
		for _, v := range ch.Structure.Classes[c].Members {
			diag.ClosedClasses[k] = append(diag.ClosedClasses[k], ch.Index.Name(v))
		}
	}

	return &Result{
		States:      states,
		Frequencies: freqs,
		Stationary:  stationary,
		Hours:       in.Hours,
		Diagnostics: diag,
	}, nil
}
