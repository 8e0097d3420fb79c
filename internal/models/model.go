package models

import "time"

// Model is the current semi-Markov model served by the API.
type Model struct {
	ID           int                           `json:"id"`
	States       []string                      `json:"states"`        // output order
	Transitions  map[string]map[string]float64 `json:"transitions"`   // row-normalized
	HoldingTimes map[string]float64            `json:"holding_times"` // mean sojourn, hours
	UpdatedAt    time.Time                     `json:"updated_at"`
}

// IsZero reports whether no model has been stored yet.
func (m Model) IsZero() bool { return m.ID == 0 && len(m.States) == 0 }
