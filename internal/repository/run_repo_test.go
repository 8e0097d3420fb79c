package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"markov_occupancy/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var runColumns = []string{"id", "created_at", "status", "hours", "fingerprint", "states", "frequencies", "message", "meta"}

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestRunAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta(insertRunSQL)).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			"SUCCESS", 10000, "abc",
			`["sunny","cloudy"]`, `[60,40]`,
			"", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Append(ctx(t), models.Run{
		Status:      " success ",
		Hours:       10000,
		Fingerprint: "abc",
		States:      []string{"sunny", "cloudy"},
		Frequencies: []float64{60, 40},
		Metadata:    map[string]any{"cesaro": false},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunAppend_KeepsGivenIDAndFormatsTime(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)
	at := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.FixedZone("UTC+1", 3600))

	mock.ExpectExec(regexp.QuoteMeta(insertRunSQL)).
		WithArgs("run-1", "2025-03-04 04:06:07.008", "ERROR", 5, "f", "null", "null", "boom", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Append(ctx(t), models.Run{
		RunID:       "run-1",
		CreatedAt:   at,
		Status:      "error",
		Hours:       5,
		Fingerprint: "f",
		Message:     "boom",
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id != "run-1" {
		t.Fatalf("id = %q, want run-1", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunAppend_DBError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	mock.ExpectExec("INSERT INTO runs").WillReturnError(errors.New("down"))

	_, err = repo.Append(ctx(t), models.Run{Status: "SUCCESS"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestRunList_NoFilters_DecodesColumns(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(runColumns).
		AddRow("1", now, "SUCCESS", 100, "fp1", `["a","b"]`, `[25,75]`, nil, `{"iterations":12}`).
		AddRow("2", now.Add(time.Hour), "ERROR", 100, "fp2", "null", "null", "bad input", nil)

	mock.ExpectQuery(regexp.QuoteMeta(selectRunsSQL + " ORDER BY created_at ASC")).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].RunID != "1" || len(got[0].States) != 2 || got[0].Frequencies[1] != 75 {
		t.Fatalf("unexpected first run: %+v", got[0])
	}
	meta, ok := got[0].Metadata.(map[string]any)
	if !ok || meta["iterations"] != float64(12) {
		t.Fatalf("metadata not decoded: %#v", got[0].Metadata)
	}
	if got[1].Message != "bad input" || got[1].States != nil || got[1].Metadata != nil {
		t.Fatalf("unexpected second run: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunList_WithFilters_OrderAndArgs(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectRunsSQL + ` WHERE created_at >= ? AND created_at <= ? AND status = ? ORDER BY created_at ASC`

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("2025-01-01 11:00:00.000", "2025-01-01 12:00:00.000", "ERROR").
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("3", to, "ERROR", 1, "fp", nil, nil, "x", nil))

	got, err := repo.List(ctx(t), from, to, " error ")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunList_ScanError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)

	rows := sqlmock.NewRows(runColumns).
		// created_at of the wrong type forces a scan error
		AddRow("x", 123, "SUCCESS", 1, "fp", nil, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(selectRunsSQL)).WillReturnRows(rows)

	if _, err := repo.List(ctx(t), time.Time{}, time.Time{}, ""); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}

func TestRunRecent(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectRunsSQL + " ORDER BY created_at DESC LIMIT ?")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows(runColumns).
			AddRow("b", now, "SUCCESS", 1, "fp", nil, nil, nil, nil).
			AddRow("a", now.Add(-time.Minute), "SUCCESS", 1, "fp", nil, nil, nil, nil))

	got, err := repo.Recent(ctx(t), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "b" {
		t.Fatalf("unexpected results: %+v", got)
	}

	// non-positive limits never hit the database
	got, err = repo.Recent(ctx(t), 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("Recent(0) = %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestRunDeleteBefore(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	repo := NewRunSQLite(db)
	cutoff := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(deleteRunsBeforeSQL)).
		WithArgs("2025-06-01 00:00:00.000").
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteBefore(ctx(t), cutoff)
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 7 {
		t.Fatalf("deleted = %d, want 7", n)
	}

	mock.ExpectExec(regexp.QuoteMeta(deleteRunsBeforeSQL)).WillReturnError(errors.New("locked"))
	if _, err := repo.DeleteBefore(ctx(t), cutoff); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}
