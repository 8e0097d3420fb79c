package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/models"
	"markov_occupancy/internal/repository"
)

// DefaultModel is the three-state weather model served until an operator
// replaces it.
func DefaultModel() models.Model {
	return models.Model{
		States: []string{"sunny", "cloudy", "rainy"},
		Transitions: map[string]map[string]float64{
			"sunny":  {"sunny": 0.7, "cloudy": 0.3, "rainy": 0},
			"cloudy": {"sunny": 0.5, "cloudy": 0.3, "rainy": 0.2},
			"rainy":  {"sunny": 0.6, "cloudy": 0.2, "rainy": 0.2},
		},
		HoldingTimes: map[string]float64{"sunny": 1, "cloudy": 2, "rainy": 2},
	}
}

// DefaultMaxStates bounds the size of a replacement model. Every compute
// request allocates and iterates an n x n matrix.
const DefaultMaxStates = 256

type ModelService struct {
	modelRepo    repository.ModelRepo
	engine       *engine.Engine
	defaultHours int
	maxStates    int
}

func NewModelService(modelRepo repository.ModelRepo, eng *engine.Engine, defaultHours int) *ModelService {
	return &ModelService{modelRepo: modelRepo, engine: eng, defaultHours: defaultHours, maxStates: DefaultMaxStates}
}

// Current returns the stored model, or DefaultModel when none is stored.
func (s *ModelService) Current(ctx context.Context) (models.Model, error) {
	m, err := s.modelRepo.Load(ctx)
	if err != nil {
		return models.Model{}, err
	}
	if m.IsZero() {
		return DefaultModel(), nil
	}
	return m, nil
}

// States returns the ordered state list of the current model.
func (s *ModelService) States(ctx context.Context) ([]string, error) {
	m, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return m.States, nil
}

// Seed stores DefaultModel when no model exists yet.
func (s *ModelService) Seed(ctx context.Context) error {
	m, err := s.modelRepo.Load(ctx)
	if err != nil {
		return err
	}
	if !m.IsZero() {
		return nil
	}
	return s.modelRepo.Save(ctx, DefaultModel())
}

// Replace validates p by running it through the full engine pipeline and
// stores the row-normalized result. A model that cannot be solved is never
// stored.
func (s *ModelService) Replace(ctx context.Context, p ModelParams) (models.Model, error) {
	if len(p.States) > s.maxStates {
		return models.Model{}, fmt.Errorf("%w: model has %d states, at most %d allowed",
			engine.ErrValidation, len(p.States), s.maxStates)
	}

	holding := make(map[string]float64, len(p.HoldingTimes))
	for _, st := range slices.Sorted(maps.Keys(p.HoldingTimes)) {
		h, ok := engine.ParseNumber(p.HoldingTimes[st])
		if !ok {
			return models.Model{}, fmt.Errorf("%w: holding time for %q is not a number", engine.ErrValidation, st)
		}
		holding[st] = h
	}

	in := engine.Input{
		States:       p.States,
		Transitions:  engine.ParseRawTransitions(p.Transitions),
		HoldingTimes: holding,
		Hours:        s.defaultHours,
	}
	ch, err := s.engine.Prepare(in)
	if err != nil {
		return models.Model{}, err
	}
	if _, err := s.engine.Compute(in); err != nil {
		return models.Model{}, err
	}

	m := models.Model{
		ID:           1,
		States:       slices.Clone(p.States),
		Transitions:  ch.Matrix.ToMap(ch.Index),
		HoldingTimes: holding,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.modelRepo.Save(ctx, m); err != nil {
		return models.Model{}, err
	}
	return m, nil
}
