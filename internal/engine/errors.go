package engine

import "errors"

// Error kinds returned by the engine. Callers classify failures with errors.Is;
// the wrapped message carries the detail.
var (
	// ErrValidation marks malformed input (negative probability, bad horizon,
	// non-positive holding time).
	ErrValidation = errors.New("validation error")
	// ErrShape marks input whose dimensions do not match the declared state set.
	ErrShape = errors.New("shape error")
	// ErrNormalization marks a built matrix whose rows do not sum to one.
	ErrNormalization = errors.New("normalization error")
	// ErrConvergence marks a solver that ran out of iterations.
	ErrConvergence = errors.New("convergence error")
	// ErrInternal marks an inconsistency between pipeline stages.
	ErrInternal = errors.New("internal error")
)
