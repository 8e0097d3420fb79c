package service

import (
	"context"
	"time"

	"markov_occupancy/internal/cache"
	"markov_occupancy/internal/engine"
	"markov_occupancy/internal/logger"
	"markov_occupancy/internal/metrics"
	"markov_occupancy/internal/models"
	"markov_occupancy/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Occupancy computes long-run occupancy for a request merged over the
// current model. It never modifies the model.
type Occupancy interface {
	Simulate(ctx context.Context, p SimulateParams) (*SimulateResult, error)
}

// Models exposes the current model and its validated replacement.
type Models interface {
	Current(ctx context.Context) (models.Model, error)
	States(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, p ModelParams) (models.Model, error)
	Seed(ctx context.Context) error
}

// RunLog exposes the run history with filtering access.
type RunLog interface {
	List(ctx context.Context, f RunFilter) ([]models.Run, error)
	Recent(ctx context.Context, limit int) ([]models.Run, error)
}

// Janitor prunes the run history in the background.
// Stop via context cancellation in main() for graceful shutdown.
type Janitor interface {
	Run(ctx context.Context, every time.Duration)
}

type Service struct {
	Occupancy
	Models
	RunLog
	Janitor
	Authorization
}

// Deps carries the non-repository collaborators. Zero values are usable:
// a nil Engine gets default options, a nil Cache disables caching, a nil
// Log discards output and a nil TracerProvider uses the global one.
type Deps struct {
	Engine         *engine.Engine
	Cache          cache.Cache
	Metrics        *metrics.Metrics
	Log            *logger.Logger
	TracerProvider trace.TracerProvider

	DefaultHours int           // hours used when a request omits them
	MaxStates    int           // largest model accepted by Models.Replace
	Retention    time.Duration // run-history retention
	SigningKey   string
	TokenTTL     time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Engine == nil {
		d.Engine = engine.New(engine.Options{})
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.TracerProvider == nil {
		d.TracerProvider = otel.GetTracerProvider()
	}
	if d.DefaultHours <= 0 {
		d.DefaultHours = DefaultHours
	}
	if d.MaxStates <= 0 {
		d.MaxStates = DefaultMaxStates
	}
	if d.Retention <= 0 {
		d.Retention = defaultRetention
	}
	return d
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	deps = deps.withDefaults()
	modelSvc := NewModelService(repos.ModelRepo, deps.Engine, deps.DefaultHours)
	modelSvc.maxStates = deps.MaxStates
	return &Service{
		Occupancy:     NewOccupancyService(modelSvc, repos.RunRepo, deps),
		Models:        modelSvc,
		RunLog:        NewRunLogService(repos.RunRepo),
		Janitor:       NewJanitorService(repos.RunRepo, deps.Retention, deps.Metrics, deps.Log),
		Authorization: NewAuthService(repos.Auth, deps.SigningKey, deps.TokenTTL),
	}
}
