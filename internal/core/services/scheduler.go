package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/driftline/driftline/internal/core/domain"
	"github.com/driftline/driftline/internal/core/ports/driving"
	"github.com/driftline/driftline/internal/logger"
)

// DefaultSynthesisInterval is how often the scheduler triggers a run
// when the interval is not configured.
const DefaultSynthesisInterval = 30 * time.Minute

// Scheduler triggers periodic synthesis runs for one workspace.
// It is a pure core service with no external control API.
type Scheduler struct {
	workspaceID string
	interval    time.Duration
	synthesis   driving.SynthesisService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. A non-positive interval falls back
// to the default.
func NewScheduler(workspaceID string, interval time.Duration, synthesis driving.SynthesisService) *Scheduler {
	if interval <= 0 {
		interval = DefaultSynthesisInterval
	}
	return &Scheduler{
		workspaceID: workspaceID,
		interval:    interval,
		synthesis:   synthesis,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for an in-flight
// run to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runOnce executes one synthesis pass. Conflicts are expected when a
// manual run races the schedule; the signals stay queued for the next
// tick, so the loss is logged and swallowed.
func (s *Scheduler) runOnce(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	result, err := s.synthesis.Run(ctx, s.workspaceID, domain.TriggerScheduled)
	if err != nil {
		if errors.Is(err, domain.ErrSynthesisConflict) {
			logger.Debug("Scheduled run lost a race, will retry next tick")
			return
		}
		logger.Error("Scheduled synthesis failed: %v", err)
		return
	}
	if result.CommitID != nil {
		logger.Info("Scheduled synthesis committed %s (%d signals)", *result.CommitID, result.ProcessedCount)
	}
}
