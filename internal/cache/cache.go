// Package cache stores computed occupancy results keyed by input fingerprint.
package cache

import (
	"context"

	"markov_occupancy/internal/engine"
)

// Cache is a result cache. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*engine.Result, bool, error)
	Set(ctx context.Context, key string, res *engine.Result) error
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*engine.Result, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, *engine.Result) error         { return nil }
