package service

import (
	"time"

	"markov_occupancy/internal/engine"
)

// DefaultHours is the horizon used when a request does not name one.
const DefaultHours = 10_000

// SimulateParams is a decoded compute request. Nil maps fall back to the
// current model; Hours 0 means "not given".
type SimulateParams struct {
	Hours        int
	Transitions  map[string]any // state -> state -> number, unnormalized
	HoldingTimes map[string]any // state -> number
	StartState   string
}

// SimulateResult is a computed or cached occupancy estimate.
type SimulateResult struct {
	RunID  string // empty when recording the run failed
	Cached bool
	*engine.Result
}

// ModelParams is a full replacement model.
type ModelParams struct {
	States       []string
	Transitions  map[string]any
	HoldingTimes map[string]any
}

// RunFilter supports history filtering by time range and status.
type RunFilter struct {
	From   time.Time // inclusive; zero means no lower bound
	To     time.Time // inclusive; zero means no upper bound
	Status string    // "", "SUCCESS", "ERROR"
}
