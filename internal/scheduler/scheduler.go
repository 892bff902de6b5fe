// Package scheduler drives periodic check cycles.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazz-dev/appstatus/internal/query"
)

// CycleRunner runs one complete check cycle.
type CycleRunner interface {
	RunCheckCycle(ctx context.Context) (query.CycleReport, error)
}

// Scheduler runs check cycles on a fixed interval in a single goroutine.
// Cycles never overlap; a slow cycle simply delays the next tick's work.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New creates a Scheduler. Pass nil logger to use the default logger.
func New(runner CycleRunner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the scheduling goroutine. It is non-blocking; the first
// cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the scheduling goroutine has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	report, err := s.runner.RunCheckCycle(ctx)
	if err != nil {
		s.logger.Error("check cycle aborted", "error", err)
		return
	}
	if len(report.AppendErrors) > 0 {
		s.logger.Warn("check cycle finished with append failures",
			"failures", len(report.AppendErrors),
		)
	}
}
