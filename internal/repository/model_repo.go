package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"markov_occupancy/internal/models"
)

type ModelSQLite struct {
	db *sql.DB
}

func NewModelSQLite(db *sql.DB) *ModelSQLite {
	return &ModelSQLite{db: db}
}

var _ ModelRepo = (*ModelSQLite)(nil)

const (
	currentModelRowID = 1

	upsertModelSQL = `
		INSERT INTO model (id, states, transitions, holding_times, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			states=excluded.states,
			transitions=excluded.transitions,
			holding_times=excluded.holding_times,
			updated_at=excluded.updated_at
	`

	selectModelSQL = `
		SELECT id, states, transitions, holding_times, updated_at
		FROM model WHERE id=?
	`
)

// Save replaces the current model (id always 1). Matrices and holding times
// are stored as JSON columns.
func (r *ModelSQLite) Save(ctx context.Context, m models.Model) error {
	states, err := json.Marshal(m.States)
	if err != nil {
		return fmt.Errorf("marshal states: %w", err)
	}
	transitions, err := json.Marshal(m.Transitions)
	if err != nil {
		return fmt.Errorf("marshal transitions: %w", err)
	}
	holding, err := json.Marshal(m.HoldingTimes)
	if err != nil {
		return fmt.Errorf("marshal holding times: %w", err)
	}

	ts := m.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}

	if _, err := r.db.ExecContext(ctx, upsertModelSQL,
		currentModelRowID,
		string(states),
		string(transitions),
		string(holding),
		ts,
	); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load fetches the current model. A zero Model and nil error mean none has
// been stored yet.
func (r *ModelSQLite) Load(ctx context.Context) (models.Model, error) {
	row := r.db.QueryRowContext(ctx, selectModelSQL, currentModelRowID)

	var m models.Model
	var states, transitions, holding string
	if err := row.Scan(&m.ID, &states, &transitions, &holding, &m.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Model{}, nil
		}
		return models.Model{}, fmt.Errorf("load model: %w", err)
	}

	if err := json.Unmarshal([]byte(states), &m.States); err != nil {
		return models.Model{}, fmt.Errorf("decode states: %w", err)
	}
	if err := json.Unmarshal([]byte(transitions), &m.Transitions); err != nil {
		return models.Model{}, fmt.Errorf("decode transitions: %w", err)
	}
	if err := json.Unmarshal([]byte(holding), &m.HoldingTimes); err != nil {
		return models.Model{}, fmt.Errorf("decode holding times: %w", err)
	}
	m.UpdatedAt = m.UpdatedAt.UTC()
	return m, nil
}
