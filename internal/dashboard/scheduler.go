package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler drives the two recurring tasks: a short-cadence presence
// update and a longer-cadence full dashboard refresh. Each task body runs
// inside a failure boundary that logs and continues; one bad cycle never
// stops the loop.
type Scheduler struct {
	service        *Service
	presenceEvery  time.Duration
	dashboardEvery time.Duration
	logger         *slog.Logger
}

// NewScheduler creates a scheduler over the dashboard service. Zero
// intervals fall back to the defaults (5m presence, 1m dashboard).
func NewScheduler(service *Service, presenceEvery, dashboardEvery time.Duration, logger *slog.Logger) *Scheduler {
	if presenceEvery <= 0 {
		presenceEvery = 5 * time.Minute
	}
	if dashboardEvery <= 0 {
		dashboardEvery = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service:        service,
		presenceEvery:  presenceEvery,
		dashboardEvery: dashboardEvery,
		logger:         logger,
	}
}

// Run starts both loops and blocks until ctx is canceled. Each task fires
// once immediately so the dashboard appears without waiting a full
// interval.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loop(ctx, "dashboard", s.dashboardEvery, s.service.RunCycle)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, "presence", s.presenceEvery, s.service.UpdatePresence)
	}()

	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, task func(context.Context) error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	s.runOnce(ctx, name, task)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler loop stopped", "task", name)
			return
		case <-ticker.C:
			s.runOnce(ctx, name, task)
		}
	}
}

// runOnce is the failure boundary: task errors are logged, never
// propagated, so the next tick always happens.
func (s *Scheduler) runOnce(ctx context.Context, name string, task func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	if err := task(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("scheduled task failed", "task", name, "error", err)
	}
}
