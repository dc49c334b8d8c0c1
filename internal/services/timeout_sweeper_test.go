package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SAP-F-2025/grading-service/internal/models"
	"github.com/stretchr/testify/assert"
)

// sweepCounter satisfies GradingService for the sweeper; only
// ForceSubmitTimedOut is ever called.
type sweepCounter struct {
	GradingService
	calls atomic.Int32
	err   error
}

func (s *sweepCounter) ForceSubmitTimedOut(ctx context.Context) (*models.SweepReport, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &models.SweepReport{Failed: []string{"att-9"}}, nil
}

func TestTimeoutSweeper_RunsUntilCancelled(t *testing.T) {
	grading := &sweepCounter{}
	sweeper := NewTimeoutSweeper(grading, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return grading.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestTimeoutSweeper_SurvivesErrors(t *testing.T) {
	grading := &sweepCounter{err: errors.New("database unavailable")}
	sweeper := NewTimeoutSweeper(grading, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	assert.Eventually(t, func() bool { return grading.calls.Load() >= 2 }, time.Second, time.Millisecond)
}
