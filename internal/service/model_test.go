package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/models"
)

func newModelService(repo *fakeModelRepo) *ModelService {
	return NewModelService(repo, engine.New(engine.Options{}), DefaultHours)
}

func TestModelService_Current(t *testing.T) {
	t.Run("default when empty", func(t *testing.T) {
		svc := newModelService(&fakeModelRepo{})
		m, err := svc.Current(context.Background())
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		if !reflect.DeepEqual(m, DefaultModel()) {
			t.Fatalf("expected default model, got %+v", m)
		}
	})

	t.Run("stored model wins", func(t *testing.T) {
		stored := models.Model{ID: 1, States: []string{"on", "off"}}
		svc := newModelService(&fakeModelRepo{stored: stored})
		states, err := svc.States(context.Background())
		if err != nil {
			t.Fatalf("States: %v", err)
		}
		if !reflect.DeepEqual(states, []string{"on", "off"}) {
			t.Fatalf("states = %v", states)
		}
	})

	t.Run("repo error", func(t *testing.T) {
		svc := newModelService(&fakeModelRepo{loadErr: errors.New("down")})
		if _, err := svc.States(context.Background()); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestModelService_Seed(t *testing.T) {
	repo := &fakeModelRepo{}
	svc := newModelService(repo)

	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(repo.saves) != 1 || !reflect.DeepEqual(repo.saves[0].States, DefaultModel().States) {
		t.Fatalf("expected default model saved once, got %+v", repo.saves)
	}

	// second seed keeps what is stored
	if err := svc.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(repo.saves) != 1 {
		t.Fatalf("seed must not overwrite, saves = %d", len(repo.saves))
	}
}

func TestModelService_Replace_StoresNormalizedModel(t *testing.T) {
	repo := &fakeModelRepo{}
	svc := newModelService(repo)

	before := time.Now().UTC()
	got, err := svc.Replace(context.Background(), ModelParams{
		States: []string{"idle", "busy"},
		Transitions: map[string]any{
			"idle": map[string]any{"idle": 1, "busy": "3"},
			"busy": map[string]any{"idle": 2.0},
		},
		HoldingTimes: map[string]any{"idle": 4, "busy": "0.5"},
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	wantTransitions := map[string]map[string]float64{
		"idle": {"idle": 0.25, "busy": 0.75},
		"busy": {"idle": 1},
	}
	if !reflect.DeepEqual(got.Transitions, wantTransitions) {
		t.Fatalf("transitions = %v, want %v", got.Transitions, wantTransitions)
	}
	if !reflect.DeepEqual(got.HoldingTimes, map[string]float64{"idle": 4, "busy": 0.5}) {
		t.Fatalf("holding times = %v", got.HoldingTimes)
	}
	if got.ID != 1 || got.UpdatedAt.Before(before) || got.UpdatedAt.Location() != time.UTC {
		t.Fatalf("unexpected metadata: id=%d updated=%v", got.ID, got.UpdatedAt)
	}
	if len(repo.saves) != 1 || !reflect.DeepEqual(repo.saves[0], got) {
		t.Fatalf("saved model differs from returned one: %+v", repo.saves)
	}

	current, err := svc.Current(context.Background())
	if err != nil || !reflect.DeepEqual(current.States, []string{"idle", "busy"}) {
		t.Fatalf("Current after Replace = %+v, %v", current, err)
	}
}

func TestModelService_Replace_Rejects(t *testing.T) {
	valid := func() ModelParams {
		return ModelParams{
			States:       []string{"a", "b"},
			Transitions:  map[string]any{"a": map[string]any{"b": 1}, "b": map[string]any{"a": 1}},
			HoldingTimes: map[string]any{"a": 1, "b": 1},
		}
	}
	tests := []struct {
		name   string
		mutate func(*ModelParams)
		want   error
	}{
		{"no states", func(p *ModelParams) { p.States = nil }, engine.ErrShape},
		{"duplicate state", func(p *ModelParams) { p.States = []string{"a", "a"} }, engine.ErrShape},
		{"non-numeric holding", func(p *ModelParams) { p.HoldingTimes["a"] = "slow" }, engine.ErrValidation},
		{"missing holding", func(p *ModelParams) { delete(p.HoldingTimes, "b") }, engine.ErrValidation},
		{"zero holding", func(p *ModelParams) { p.HoldingTimes["a"] = 0 }, engine.ErrValidation},
		{"negative probability", func(p *ModelParams) {
			p.Transitions["a"] = map[string]any{"b": -1}
		}, engine.ErrValidation},
		{"undeclared row", func(p *ModelParams) {
			p.Transitions["c"] = map[string]any{"a": 1}
		}, engine.ErrShape},
		{"undeclared holding", func(p *ModelParams) { p.HoldingTimes["c"] = 1 }, engine.ErrShape},
		{"too many states", func(p *ModelParams) {
			p.States = make([]string, DefaultMaxStates+1)
			for i := range p.States {
				p.States[i] = fmt.Sprintf("s%d", i)
			}
		}, engine.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeModelRepo{}
			svc := newModelService(repo)

			p := valid()
			tt.mutate(&p)
			_, err := svc.Replace(context.Background(), p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(repo.saves) != 0 {
				t.Fatalf("invalid model must not be saved")
			}
		})
	}
}

func TestModelService_Replace_SaveError(t *testing.T) {
	svc := newModelService(&fakeModelRepo{saveErr: errors.New("read-only")})
	_, err := svc.Replace(context.Background(), ModelParams{
		States:       []string{"x"},
		HoldingTimes: map[string]any{"x": 1},
	})
	if err == nil {
		t.Fatalf("expected save error")
	}
}

func TestModelService_Replace_ConfiguredStateCap(t *testing.T) {
	repo := &fakeModelRepo{}
	svc := newModelService(repo)
	svc.maxStates = 1

	p := ModelParams{
		States:       []string{"a", "b"},
		Transitions:  map[string]any{"a": map[string]any{"b": 1}, "b": map[string]any{"a": 1}},
		HoldingTimes: map[string]any{"a": 1, "b": 1},
	}
	if _, err := svc.Replace(context.Background(), p); !errors.Is(err, engine.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	svc.maxStates = 2
	if _, err := svc.Replace(context.Background(), p); err != nil {
		t.Fatalf("two states within cap: %v", err)
	}
	if len(repo.saves) != 1 {
		t.Fatalf("expected one save, got %d", len(repo.saves))
	}
}
