package service

import (
	"context"
	"errors"
	"time"

	"markov_occupancy/internal/cache"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/logger"
	"markov_occupancy/internal/metrics"
	"markov_occupancy/internal/models"
	"markov_occupancy/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "markov_occupancy/service"

// OccupancyService runs compute requests through the engine. Identical
// requests are served from the cache or, while one is in flight, share its
// computation.
type OccupancyService struct {
	models       Models
	runRepo      repository.RunRepo
	engine       *engine.Engine
	cache        cache.Cache
	metrics      *metrics.Metrics
	log          *logger.Logger
	tracer       trace.Tracer
	defaultHours int

	group singleflight.Group
}

func NewOccupancyService(m Models, runRepo repository.RunRepo, deps Deps) *OccupancyService {
	deps = deps.withDefaults()
	return &OccupancyService{
		models:       m,
		runRepo:      runRepo,
		engine:       deps.Engine,
		cache:        deps.Cache,
		metrics:      deps.Metrics,
		log:          deps.Log,
		tracer:       deps.TracerProvider.Tracer(tracerName),
		defaultHours: deps.DefaultHours,
	}
}

// Simulate merges p over the current model, computes occupancy and records
// the run. Failed computations are recorded too.
func (s *OccupancyService) Simulate(ctx context.Context, p SimulateParams) (*SimulateResult, error) {
	ctx, span := s.tracer.Start(ctx, "occupancy.Simulate")
	defer span.End()

	model, err := s.models.Current(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load model")
		return nil, err
	}

	in := s.buildInput(model, p)
	key := engine.Fingerprint(in, s.engine.Options())
	span.SetAttributes(
		attribute.String("occupancy.fingerprint", key),
		attribute.Int("occupancy.states", len(in.States)),
		attribute.Int("occupancy.hours", in.Hours),
	)

	res, cached, err := s.compute(ctx, key, in)
	span.SetAttributes(attribute.Bool("occupancy.cached", cached))

	runID := s.record(ctx, key, in, res, cached, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compute")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("occupancy.iterations", res.Diagnostics.Iterations),
		attribute.Bool("occupancy.cesaro", res.Diagnostics.Cesaro),
	)
	return &SimulateResult{RunID: runID, Cached: cached, Result: res}, nil
}

// buildInput overlays the request on the model. Holding times that are
// missing or not numbers keep the model's value; any number given, even a
// non-positive one, is passed on for the engine to judge.
func (s *OccupancyService) buildInput(model models.Model, p SimulateParams) engine.Input {
	in := engine.Input{
		States:       model.States,
		HoldingTimes: make(map[string]float64, len(model.HoldingTimes)),
		Hours:        p.Hours,
		StartState:   p.StartState,
	}
	if in.Hours == 0 {
		in.Hours = s.defaultHours
	}

	if p.Transitions != nil {
		in.Transitions = engine.ParseRawTransitions(p.Transitions)
	} else {
		in.Transitions = engine.RawFromFloats(model.Transitions)
	}

	for st, h := range model.HoldingTimes {
		in.HoldingTimes[st] = h
	}
	for st, raw := range p.HoldingTimes {
		h, ok := engine.ParseNumber(raw)
		if _, known := model.HoldingTimes[st]; !ok && known {
			continue
		}
		// unknown states are kept so the engine reports them
		in.HoldingTimes[st] = h
	}
	return in
}

func (s *OccupancyService) compute(ctx context.Context, key string, in engine.Input) (*engine.Result, bool, error) {
	res, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.CacheLookup("error")
		s.log.Warnw("cache_get_failed", "fingerprint", key, "err", err)
	case ok:
		s.metrics.CacheLookup("hit")
		return res, true, nil
	default:
		s.metrics.CacheLookup("miss")
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		_, span := s.tracer.Start(ctx, "engine.Compute")
		defer span.End()

		start := time.Now()
		res, err := s.engine.Compute(in)
		took := time.Since(start)

		if err != nil {
			s.metrics.ObserveComputation(statusOf(err), took, 0, false, false)
			span.RecordError(err)
			span.SetStatus(codes.Error, "compute")
			return nil, err
		}
		d := res.Diagnostics
		s.metrics.ObserveComputation(metrics.StatusSuccess, took, d.Iterations, d.Cesaro, d.MultipleStationary)

		if err := s.cache.Set(ctx, key, res); err != nil {
			s.log.Warnw("cache_set_failed", "fingerprint", key, "err", err)
		}
		return res, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*engine.Result), false, nil
}

// record appends the run to the history. A failure to record never fails the
// request; the run id is then empty.
func (s *OccupancyService) record(ctx context.Context, key string, in engine.Input, res *engine.Result, cached bool, runErr error) string {
	run := models.Run{
		Hours:       in.Hours,
		Fingerprint: key,
	}
	if runErr != nil {
		run.Status = models.RunFailed
		run.Message = runErr.Error()
	} else {
		run.Status = models.RunSucceeded
		run.States = res.States
		run.Frequencies = res.Frequencies
		run.Metadata = map[string]any{
			"cached":              cached,
			"iterations":          res.Diagnostics.Iterations,
			"cesaro":              res.Diagnostics.Cesaro,
			"multiple_stationary": res.Diagnostics.MultipleStationary,
			"start_state":         in.StartState,
		}
	}

	id, err := s.runRepo.Append(ctx, run)
	if err != nil {
		s.log.Errorw("run_record_failed", "fingerprint", key, "err", err)
		return ""
	}
	return id
}

// statusOf maps an engine error to a metrics status label.
func statusOf(err error) string {
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrShape):
		return metrics.StatusInvalid
	case errors.Is(err, engine.ErrConvergence):
		return metrics.StatusDiverged
	default:
		return metrics.StatusError
	}
}
