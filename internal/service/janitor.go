package service

import (
	"context"
	"time"

	"markov_occupancy/internal/logger"
	"markov_occupancy/internal/metrics"
	"markov_occupancy/internal/repository"
)

const defaultRetention = 7 * 24 * time.Hour

// JanitorService deletes runs older than the retention window.
type JanitorService struct {
	runRepo   repository.RunRepo
	retention time.Duration
	metrics   *metrics.Metrics
	log       *logger.Logger
}

func NewJanitorService(runRepo repository.RunRepo, retention time.Duration, m *metrics.Metrics, log *logger.Logger) *JanitorService {
	if log == nil {
		log = logger.Nop()
	}
	return &JanitorService{runRepo: runRepo, retention: retention, metrics: m, log: log}
}

// Run prunes once at start and then at every tick until ctx is canceled.
func (s *JanitorService) Run(ctx context.Context, every time.Duration) {
	s.prune(ctx, time.Now())

	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.prune(ctx, now)
		}
	}
}

// prune removes runs created before now minus the retention.
func (s *JanitorService) prune(ctx context.Context, now time.Time) int64 {
	cutoff := now.UTC().Add(-s.retention)
	n, err := s.runRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warnw("runs_prune_failed", "err", err)
		}
		return 0
	}
	if n > 0 {
		s.log.Infow("runs_pruned", "count", n, "cutoff", cutoff)
		s.metrics.RunsPruned(n)
	}
	return n
}
