package repository

import (
	"context"
	"database/sql"
	"time"

	"markov_occupancy/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// ModelRepo stores the single current model.
type ModelRepo interface {
	Save(ctx context.Context, m models.Model) error
	Load(ctx context.Context) (models.Model, error)
}

// RunRepo is the append-only run history.
type RunRepo interface {
	Append(ctx context.Context, r models.Run) (string, error)
	List(ctx context.Context, from, to time.Time, status string) ([]models.Run, error)
	Recent(ctx context.Context, limit int) ([]models.Run, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Repository struct {
	ModelRepo ModelRepo
	RunRepo   RunRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		ModelRepo: NewModelSQLite(db),
		RunRepo:   NewRunSQLite(db),
		Auth:      NewUserRepository(db),
	}
}
