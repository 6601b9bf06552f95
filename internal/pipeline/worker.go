package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs pipeline cycles on a fixed interval until its context is
// cancelled. A failed cycle is logged and retried on the next tick; the
// report history only ever grows from succeeded cycles.
type Worker struct {
	runner   *Runner
	interval time.Duration
	logger   *slog.Logger
}

// NewWorker creates a worker over the runner. Intervals at or below zero
// default to 30s.
func NewWorker(runner *Runner, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Worker{runner: runner, interval: interval, logger: slog.Default()}
}

// Run executes one cycle immediately, then one per interval until ctx is
// cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if _, err := w.runner.Run(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("analysis cycle failed", "error", err)
	}
}
