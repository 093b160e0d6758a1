package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/observability/metrics"
)

// StatsWorker periodically samples the number of live verified posts and
// publishes it as a gauge.
type StatsWorker struct {
	postRepository domain.PostRepository
	logger         *slog.Logger
	interval       time.Duration
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(postRepo domain.PostRepository, logger *slog.Logger, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		postRepository: postRepo,
		logger:         logger,
		interval:       interval,
	}
}

// Start begins the stats worker loop
// This runs continuously in a goroutine until the context is cancelled
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))

	w.sample(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.sample(ctx)
		}
	}
}

func (w *StatsWorker) sample(ctx context.Context) {
	count, err := w.postRepository.CountActive(ctx)
	if err != nil {
		w.logger.Error("failed to count active posts",
			slog.String("error", err.Error()),
		)
		return
	}

	metrics.SetActivePosts(count)
	w.logger.Debug("active post gauge updated", slog.Int64("count", count))
}
