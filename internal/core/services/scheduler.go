package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler runs RefreshAll on a fixed interval. Runs never overlap: the
// next one is timed from the end of the previous one.
type Scheduler struct {
	refresh  driving.RefreshService
	interval time.Duration
	opts     driving.RefreshOptions
	after    func(time.Duration) <-chan time.Time
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	history []domain.ScheduledRun
}

// NewScheduler creates a scheduler refreshing with opts every interval.
func NewScheduler(refresh driving.RefreshService, interval time.Duration, opts driving.RefreshOptions) *Scheduler {
	return &Scheduler{
		refresh:  refresh,
		interval: interval,
		opts:     opts,
		after:    time.After,
		now:      time.Now,
	}
}

// Start refreshes immediately and then once per interval. It blocks until
// ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("%w: refresh interval must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for {
		s.runOnce(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Info("next refresh in %s", s.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-s.after(s.interval):
		}
	}
}

// Stop ends the loop and waits for an in-flight refresh to complete.
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

// History returns the most recent runs, oldest first.
func (s *Scheduler) History() []domain.ScheduledRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduledRun, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	logger.Section("scheduled refresh")
	run := domain.ScheduledRun{Started: s.now()}
	reports, err := s.refresh.RefreshAll(ctx, s.opts)
	run.Finished = s.now()
	run.Stores = len(reports)
	for _, r := range reports {
		run.Records += r.Crawl.Records
	}
	if err != nil {
		run.Err = err.Error()
		if !errors.Is(err, context.Canceled) {
			logger.Error("scheduled refresh: %v", err)
		}
	}

	s.mu.Lock()
	s.history = append(s.history, run)
	if len(s.history) > domain.MaxRunHistory {
		s.history = s.history[len(s.history)-domain.MaxRunHistory:]
	}
	s.mu.Unlock()
}
