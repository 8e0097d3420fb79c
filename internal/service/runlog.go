package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"markov_occupancy/internal/models"
	"markov_occupancy/internal/repository"
)

type RunLogService struct {
	runRepo repository.RunRepo
}

func NewRunLogService(runRepo repository.RunRepo) *RunLogService {
	return &RunLogService{runRepo: runRepo}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrInvalidStatus    = errors.New("invalid status: must be SUCCESS or ERROR")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeStatus trims spaces and uppercases the status filter.
func normalizeStatus(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates them.
func normalizeAndValidateFilter(f RunFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}

	status := normalizeStatus(f.Status)
	switch status {
	case "", models.RunSucceeded, models.RunFailed:
	default:
		return time.Time{}, time.Time{}, "", ErrInvalidStatus
	}
	return from, to, status, nil
}

func (s *RunLogService) List(ctx context.Context, f RunFilter) ([]models.Run, error) {
	from, to, status, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.runRepo.List(ctx, from, to, status)
}

// Recent returns up to limit runs, newest first.
func (s *RunLogService) Recent(ctx context.Context, limit int) ([]models.Run, error) {
	return s.runRepo.Recent(ctx, limit)
}
