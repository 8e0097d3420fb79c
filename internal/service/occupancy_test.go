package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"markov_occupancy/internal/cache"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/metrics"
	"markov_occupancy/internal/models"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// Weather model: pi = (26, 12, 3)/41, weights pi*h = (26, 24, 6)/41.
var weatherPct = []float64{2600.0 / 56, 2400.0 / 56, 600.0 / 56}

func newOccupancy(t *testing.T, runs *fakeRunRepo, c cache.Cache) *OccupancyService {
	t.Helper()
	deps := Deps{Cache: c, Metrics: metrics.New()}.withDefaults()
	ms := NewModelService(&fakeModelRepo{}, deps.Engine, deps.DefaultHours)
	return NewOccupancyService(ms, runs, deps)
}

func assertPct(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d frequencies, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-5 {
			t.Fatalf("frequency[%d] = %.8f, want %.8f (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestOccupancy_Simulate_DefaultModel(t *testing.T) {
	runs := &fakeRunRepo{}
	svc := newOccupancy(t, runs, nil)

	res, err := svc.Simulate(context.Background(), SimulateParams{})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if got := res.States; len(got) != 3 || got[0] != "sunny" || got[2] != "rainy" {
		t.Fatalf("unexpected states: %v", got)
	}
	assertPct(t, res.Frequencies, weatherPct)
	if res.Hours != DefaultHours {
		t.Fatalf("hours = %d, want default %d", res.Hours, DefaultHours)
	}
	if res.Cached {
		t.Fatalf("first computation must not be cached")
	}

	rec := runs.recorded()
	if len(rec) != 1 || rec[0].Status != models.RunSucceeded || rec[0].RunID != res.RunID {
		t.Fatalf("unexpected recorded runs: %+v (run id %q)", rec, res.RunID)
	}
	if rec[0].Fingerprint == "" {
		t.Fatalf("run must carry the input fingerprint")
	}
}

func TestOccupancy_Simulate_RequestOverridesModel(t *testing.T) {
	svc := newOccupancy(t, &fakeRunRepo{}, nil)

	res, err := svc.Simulate(context.Background(), SimulateParams{
		Hours: 24,
		Transitions: map[string]any{
			"sunny":  map[string]any{"sunny": 0.5, "cloudy": 0.5},
			"cloudy": map[string]any{"sunny": 0.5, "cloudy": 0.5},
			"rainy":  map[string]any{"sunny": 1.0},
		},
		HoldingTimes: map[string]any{"sunny": 1.0, "cloudy": 3.0},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	// rainy is transient; sunny and cloudy split 1:3 by holding time.
	assertPct(t, res.Frequencies, []float64{25, 75, 0})
	if res.Hours != 24 {
		t.Fatalf("hours = %d, want 24", res.Hours)
	}
}

func TestOccupancy_Simulate_NonNumericHoldingFallsBack(t *testing.T) {
	svc := newOccupancy(t, &fakeRunRepo{}, nil)

	res, err := svc.Simulate(context.Background(), SimulateParams{
		HoldingTimes: map[string]any{"sunny": "fast", "cloudy": nil, "rainy": "2"},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	assertPct(t, res.Frequencies, weatherPct)
}

func TestOccupancy_Simulate_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    SimulateParams
		want error
	}{
		{"zero holding time", SimulateParams{HoldingTimes: map[string]any{"sunny": 0.0}}, engine.ErrValidation},
		{"negative holding time", SimulateParams{HoldingTimes: map[string]any{"rainy": -1.0}}, engine.ErrValidation},
		{"negative hours", SimulateParams{Hours: -5}, engine.ErrValidation},
		{"negative probability", SimulateParams{Transitions: map[string]any{
			"sunny": map[string]any{"cloudy": -0.1},
		}}, engine.ErrValidation},
		{"unknown target", SimulateParams{Transitions: map[string]any{
			"sunny": map[string]any{"foggy": 1.0},
		}}, engine.ErrShape},
		{"unknown holding state", SimulateParams{HoldingTimes: map[string]any{"foggy": "x"}}, engine.ErrShape},
		{"unknown start state", SimulateParams{StartState: "foggy"}, engine.ErrShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := &fakeRunRepo{}
			svc := newOccupancy(t, runs, nil)

			_, err := svc.Simulate(context.Background(), tt.p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			rec := runs.recorded()
			if len(rec) != 1 || rec[0].Status != models.RunFailed || rec[0].Message == "" {
				t.Fatalf("failed run not recorded: %+v", rec)
			}
		})
	}
}

func TestOccupancy_Simulate_CacheHit(t *testing.T) {
	c := newMapCache()
	runs := &fakeRunRepo{}
	svc := newOccupancy(t, runs, c)

	first, err := svc.Simulate(context.Background(), SimulateParams{Hours: 100})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	second, err := svc.Simulate(context.Background(), SimulateParams{Hours: 100})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Fatalf("cached flags = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if c.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", c.sets)
	}
	assertPct(t, second.Frequencies, first.Frequencies)

	// a different horizon is a different input
	third, err := svc.Simulate(context.Background(), SimulateParams{Hours: 200})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if third.Cached {
		t.Fatalf("different hours must miss the cache")
	}
	if got := len(runs.recorded()); got != 3 {
		t.Fatalf("every request is recorded, got %d runs", got)
	}
}

func TestOccupancy_Simulate_CacheErrorIsNotFatal(t *testing.T) {
	c := newMapCache()
	c.getErr = errors.New("redis down")
	svc := newOccupancy(t, &fakeRunRepo{}, c)

	res, err := svc.Simulate(context.Background(), SimulateParams{})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	assertPct(t, res.Frequencies, weatherPct)
}

func TestOccupancy_Simulate_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}))
	defer rc.Close()

	svc := newOccupancy(t, &fakeRunRepo{}, rc)
	if _, err := svc.Simulate(context.Background(), SimulateParams{}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if n := len(mr.Keys()); n != 1 {
		t.Fatalf("expected one cached entry, got %d", n)
	}
	res, err := svc.Simulate(context.Background(), SimulateParams{})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if !res.Cached {
		t.Fatalf("second call should come from redis")
	}
	assertPct(t, res.Frequencies, weatherPct)
}

func TestOccupancy_Simulate_RecordFailureKeepsResult(t *testing.T) {
	runs := &fakeRunRepo{appendErr: errors.New("disk full")}
	svc := newOccupancy(t, runs, nil)

	res, err := svc.Simulate(context.Background(), SimulateParams{})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if res.RunID != "" {
		t.Fatalf("run id = %q, want empty", res.RunID)
	}
}

func TestOccupancy_Simulate_ModelLoadError(t *testing.T) {
	deps := Deps{}.withDefaults()
	ms := NewModelService(&fakeModelRepo{loadErr: errors.New("db down")}, deps.Engine, deps.DefaultHours)
	svc := NewOccupancyService(ms, &fakeRunRepo{}, deps)

	if _, err := svc.Simulate(context.Background(), SimulateParams{}); err == nil {
		t.Fatalf("expected model load error")
	}
}

func TestOccupancy_Simulate_DoesNotMutateModel(t *testing.T) {
	repo := &fakeModelRepo{}
	deps := Deps{}.withDefaults()
	ms := NewModelService(repo, deps.Engine, deps.DefaultHours)
	svc := NewOccupancyService(ms, &fakeRunRepo{}, deps)

	_, err := svc.Simulate(context.Background(), SimulateParams{
		Transitions:  map[string]any{"sunny": map[string]any{"sunny": 1.0}},
		HoldingTimes: map[string]any{"sunny": 9.0},
	})
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if len(repo.saves) != 0 {
		t.Fatalf("simulate must not save the model, saves = %d", len(repo.saves))
	}
	current, _ := ms.Current(context.Background())
	if current.HoldingTimes["sunny"] != 1 {
		t.Fatalf("model changed: %+v", current)
	}
}

func TestOccupancy_Simulate_ConcurrentIdenticalRequests(t *testing.T) {
	runs := &fakeRunRepo{}
	svc := newOccupancy(t, runs, nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]*SimulateResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Simulate(context.Background(), SimulateParams{Hours: 7})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		assertPct(t, results[i].Frequencies, weatherPct)
	}
	if got := len(runs.recorded()); got != n {
		t.Fatalf("recorded %d runs, want %d", got, n)
	}
}

func TestOccupancy_Simulate_Spans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	deps := Deps{TracerProvider: tp}.withDefaults()
	ms := NewModelService(&fakeModelRepo{}, deps.Engine, deps.DefaultHours)
	svc := NewOccupancyService(ms, &fakeRunRepo{}, deps)

	if _, err := svc.Simulate(context.Background(), SimulateParams{}); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if _, err := svc.Simulate(context.Background(), SimulateParams{Hours: -1}); err == nil {
		t.Fatalf("expected error")
	}

	names := map[string]int{}
	for _, s := range rec.Ended() {
		names[s.Name()]++
	}
	if names["occupancy.Simulate"] != 2 || names["engine.Compute"] != 2 {
		t.Fatalf("unexpected spans: %v", names)
	}
	last := rec.Ended()[len(rec.Ended())-1]
	if last.Name() != "occupancy.Simulate" || last.Status().Code.String() != "Error" {
		t.Fatalf("failed simulate span should carry error status, got %s %v", last.Name(), last.Status())
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{engine.ErrValidation, metrics.StatusInvalid},
		{engine.ErrShape, metrics.StatusInvalid},
		{engine.ErrConvergence, metrics.StatusDiverged},
		{engine.ErrInternal, metrics.StatusError},
		{errors.New("other"), metrics.StatusError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Fatalf("statusOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
