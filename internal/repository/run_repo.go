package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"markov_occupancy/internal/models"

	"github.com/google/uuid"
)

type RunSQLite struct {
	db *sql.DB
}

func NewRunSQLite(db *sql.DB) *RunSQLite { return &RunSQLite{db: db} }

var _ RunRepo = (*RunSQLite)(nil)

// runTimeLayout is fixed-width so created_at compares correctly as text.
const runTimeLayout = "2006-01-02 15:04:05.000"

const (
	insertRunSQL = `
		INSERT INTO runs (id, created_at, status, hours, fingerprint, states, frequencies, message, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL       = `SELECT id, created_at, status, hours, fingerprint, states, frequencies, message, meta FROM runs`
	deleteRunsBeforeSQL = `DELETE FROM runs WHERE created_at < ?`
)

// Append inserts a run and returns its id. RunID and CreatedAt are filled in
// when empty.
func (r *RunSQLite) Append(ctx context.Context, run models.Run) (string, error) {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	states, err := json.Marshal(run.States)
	if err != nil {
		return "", fmt.Errorf("marshal states: %w", err)
	}
	freqs, err := json.Marshal(run.Frequencies)
	if err != nil {
		return "", fmt.Errorf("marshal frequencies: %w", err)
	}
	var metaPtr *string
	if run.Metadata != nil {
		if b, err := json.Marshal(run.Metadata); err == nil {
			s := string(b)
			metaPtr = &s
		}
	}

	_, err = r.db.ExecContext(ctx, insertRunSQL,
		run.RunID,
		run.CreatedAt.UTC().Format(runTimeLayout),
		strings.ToUpper(strings.TrimSpace(run.Status)),
		run.Hours,
		run.Fingerprint,
		string(states),
		string(freqs),
		run.Message,
		metaPtr,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return run.RunID, nil
}

// List returns runs filtered by [from, to] (inclusive) and/or status, oldest
// first.
func (r *RunSQLite) List(ctx context.Context, from, to time.Time, status string) ([]models.Run, error) {
	var (
		conds []string
		args  []any
	)

	if !from.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, from.UTC().Format(runTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, to.UTC().Format(runTimeLayout))
	}
	if status = strings.ToUpper(strings.TrimSpace(status)); status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}

	q := selectRunsSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at ASC"

	return r.query(ctx, q, args...)
}

// Recent returns up to limit runs, newest first.
func (r *RunSQLite) Recent(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		return []models.Run{}, nil
	}
	return r.query(ctx, selectRunsSQL+" ORDER BY created_at DESC LIMIT ?", limit)
}

// DeleteBefore removes runs created strictly before cutoff and reports how
// many were deleted.
func (r *RunSQLite) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteRunsBeforeSQL, cutoff.UTC().Format(runTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete runs: rows affected: %w", err)
	}
	return n, nil
}

func (r *RunSQLite) query(ctx context.Context, q string, args ...any) ([]models.Run, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Run, 0, 64)
	for rows.Next() {
		var run models.Run
		var states, freqs, message, metaS sql.NullString
		if err := rows.Scan(&run.RunID, &run.CreatedAt, &run.Status, &run.Hours, &run.Fingerprint,
			&states, &freqs, &message, &metaS); err != nil {
			return nil, err
		}
		run.CreatedAt = run.CreatedAt.UTC()
		run.Message = message.String

		if states.Valid && states.String != "" {
			_ = json.Unmarshal([]byte(states.String), &run.States)
		}
		if freqs.Valid && freqs.String != "" {
			_ = json.Unmarshal([]byte(freqs.String), &run.Frequencies)
		}
		if metaS.Valid && metaS.String != "" {
			var v any
			if err := json.Unmarshal([]byte(metaS.String), &v); err == nil {
				run.Metadata = v
			} else {
				run.Metadata = metaS.String // keep raw if malformed
			}
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
