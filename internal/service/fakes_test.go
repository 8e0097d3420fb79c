package service

import (
	"context"
	"sync"
	"time"

	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/models"
)

// fakeModelRepo is a minimal in-memory repository.ModelRepo.
type fakeModelRepo struct {
	mu      sync.Mutex
	stored  models.Model
	loadErr error
	saveErr error
	saves   []models.Model
}

func (f *fakeModelRepo) Load(ctx context.Context) (models.Model, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.loadErr
}

func (f *fakeModelRepo) Save(ctx context.Context, m models.Model) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, m)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = m
	return nil
}

// fakeRunRepo records appended runs and captures List/DeleteBefore inputs.
type fakeRunRepo struct {
	mu        sync.Mutex
	runs      []models.Run
	appendErr error

	gotFrom   time.Time
	gotTo     time.Time
	gotStatus string
	listCalls int
	listOut   []models.Run
	listErr   error

	cutoffs   []time.Time
	deleted   int64
	deleteErr error
}

func (f *fakeRunRepo) Append(ctx context.Context, r models.Run) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return "", f.appendErr
	}
	if r.RunID == "" {
		r.RunID = "run-" + string(rune('a'+len(f.runs)))
	}
	f.runs = append(f.runs, r)
	return r.RunID, nil
}

func (f *fakeRunRepo) List(ctx context.Context, from, to time.Time, status string) ([]models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.gotFrom, f.gotTo, f.gotStatus = from, to, status
	return f.listOut, f.listErr
}

func (f *fakeRunRepo) Recent(ctx context.Context, limit int) ([]models.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Run, 0, limit)
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.runs[i])
	}
	return out, nil
}

func (f *fakeRunRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.deleteErr
}

func (f *fakeRunRepo) recorded() []models.Run {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Run(nil), f.runs...)
}

// mapCache is an in-memory cache.Cache.
type mapCache struct {
	mu     sync.Mutex
	items  map[string]*engine.Result
	getErr error
	sets   int
}

func newMapCache() *mapCache { return &mapCache{items: map[string]*engine.Result{}} }

func (c *mapCache) Get(ctx context.Context, key string) (*engine.Result, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.items[key]
	return r, ok, nil
}

func (c *mapCache) Set(ctx context.Context, key string, res *engine.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.items[key] = res
	return nil
}
