// Package schedule wires up the cron job that runs the batch pipeline once a
// day at the configured local time.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/pipeline"
)

// Scheduler wraps robfig/cron and manages the daily batch.
type Scheduler struct {
	cron    *cron.Cron
	runners []*pipeline.Runner
	spec    string // cron spec, e.g. "0 9 * * *"
	logger  *slog.Logger

	mu      sync.Mutex // one batch at a time
	running bool
}

// New creates a Scheduler that fires daily at cfg.DailyAt local time.
func New(cfg config.ScheduleConfig, runners []*pipeline.Runner, logger *slog.Logger) (*Scheduler, error) {
	hm, err := config.ParseDailyAt(cfg.DailyAt)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	return &Scheduler{
		cron:    cron.New(),
		runners: runners,
		spec:    fmt.Sprintf("%d %d * * *", hm[1], hm[0]),
		logger:  logger,
	}, nil
}

// Start registers the daily job and starts the scheduler. When runOnStart is
// set, one batch runs immediately so the sink is populated without waiting
// for the first tick.
func (s *Scheduler) Start(ctx context.Context, runOnStart bool) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunBatch(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec, "sources", len(s.runners))

	if runOnStart {
		go s.RunBatch(ctx)
	}

	return nil
}

// Stop shuts the scheduler down and waits for an in-flight batch to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
}

// RunBatch runs every source's pipeline sequentially. A failed source is
// logged and does not stop the remaining sources. Overlapping ticks are
// dropped: if a batch is still running when the next fires, the new one is
// skipped.
func (s *Scheduler) RunBatch(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("previous batch still running, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("batch started", "sources", len(s.runners))

	for _, r := range s.runners {
		if ctx.Err() != nil {
			s.logger.Info("batch cancelled")
			return
		}
		if _, err := r.Run(ctx); err != nil {
			s.logger.Error("source run failed",
				"source", r.Name,
				"error", err,
			)
		}
	}

	s.logger.Info("batch complete")
}
