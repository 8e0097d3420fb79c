package models

import "time"

// Run statuses.
const (
	RunSucceeded = "SUCCESS"
	RunFailed    = "ERROR"
)

// Run is a single recorded computation.
type Run struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	Status      string    `json:"status"` // SUCCESS | ERROR
	Hours       int       `json:"hours"`
	Fingerprint string    `json:"fingerprint"`
	States      []string  `json:"states,omitempty"`
	Frequencies []float64 `json:"frequencies,omitempty"`
	Message     string    `json:"message,omitempty"` // error text for failed runs
	Metadata    any       `json:"metadata,omitempty"`
}
