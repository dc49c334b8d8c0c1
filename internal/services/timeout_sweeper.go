package services

import (
	"context"
	"log/slog"
	"time"
)

// TimeoutSweeper periodically force-submits attempts that ran past their
// quiz time limit.
type TimeoutSweeper struct {
	grading  GradingService
	interval time.Duration
	logger   *slog.Logger
}

func NewTimeoutSweeper(grading GradingService, interval time.Duration, logger *slog.Logger) *TimeoutSweeper {
	return &TimeoutSweeper{
		grading:  grading,
		interval: interval,
		logger:   logger.With("component", "timeout_sweeper"),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (t *TimeoutSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("Timeout sweeper started", "interval", t.interval)
	for {
		t.sweep(ctx)

		select {
		case <-ctx.Done():
			t.logger.Info("Timeout sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (t *TimeoutSweeper) sweep(ctx context.Context) {
	report, err := t.grading.ForceSubmitTimedOut(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.logger.ErrorContext(ctx, "Timeout sweep failed", "error", err)
		}
		return
	}
	if len(report.Failed) > 0 {
		t.logger.WarnContext(ctx, "Timeout sweep left attempts unprocessed", "attempt_ids", report.Failed)
	}
}
