package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
)

// fingerprintDoc is the canonical form hashed by Fingerprint. encoding/json
// sorts map keys, so equal inputs always serialize identically.
type fingerprintDoc struct {
	States       []string                      `json:"states"`
	Transitions  map[string]map[string]float64 `json:"transitions"`
	HoldingTimes map[string]float64            `json:"holding_times"`
	Hours        int                           `json:"hours"`
	StartState   string                        `json:"start_state"`
	Options      Options                       `json:"options"`
}

// Fingerprint returns a content hash of the full input and the options that
// shape the result. Raw values are coerced first, so 0.5 and "0.5" hash alike.
func Fingerprint(in Input, opts Options) string {
	doc := fingerprintDoc{
		States:       in.States,
		Transitions:  make(map[string]map[string]float64, len(in.Transitions)),
		HoldingTimes: make(map[string]float64, len(in.HoldingTimes)),
		Hours:        in.Hours,
		StartState:   in.StartState,
		Options:      opts.withDefaults(),
	}
	for from, row := range in.Transitions {
		r := make(map[string]float64, len(row))
		for to, v := range row {
			p, _ := ParseNumber(v)
			r[to] = p
		}
		doc.Transitions[from] = r
	}
	for s, h := range in.HoldingTimes {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			h = 0
		}
		doc.HoldingTimes[s] = h
	}

	// All floats are finite here, so Marshal cannot fail.
	b, _ := json.Marshal(doc)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
