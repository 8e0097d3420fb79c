package markov_occupancy

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// StatesResponse lists the states of the current model in output order.
type StatesResponse struct {
	States []string `json:"states" example:"sunny,cloudy,rainy"`
}

// SimulateRequest is the body of a compute request. Every field is optional;
// omitted fields fall back to the current model.
type SimulateRequest struct {
	// Horizon in hours; a positive integer, 10000 when omitted
	Hours any `json:"hours,omitempty" swaggertype:"integer" example:"10000"`
	// state -> state -> probability; rows are normalized
	Transitions map[string]any `json:"transitions,omitempty"`
	// state -> mean holding time in hours
	HoldingTimes map[string]any `json:"holding_times,omitempty"`
	// Optional initial state used when the chain has several closed classes
	StartState string `json:"start_state,omitempty" example:"sunny"`
}

// SimulateResponse carries the long-run share of time, in percent, spent in
// each state.
type SimulateResponse struct {
	Status             string    `json:"status" example:"success"`
	States             []string  `json:"states"`
	Frequencies        []float64 `json:"frequencies"`
	RunID              string    `json:"run_id,omitempty"`
	Cached             bool      `json:"cached"`
	Iterations         int       `json:"iterations"`
	Cesaro             bool      `json:"cesaro"`
	MultipleStationary bool      `json:"multiple_stationary"`
}

// ErrorResponse is returned by every failing endpoint.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message"`
}

// ModelRequest replaces the current model.
type ModelRequest struct {
	States       []string       `json:"states" binding:"required,min=1"`
	Transitions  map[string]any `json:"transitions"`
	HoldingTimes map[string]any `json:"holding_times" binding:"required"`
}
