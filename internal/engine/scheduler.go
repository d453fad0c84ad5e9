package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs cycles on a fixed interval until the context is canceled.
// A failed cycle is logged and the next tick still runs: the daemon should
// ride out transient upstream outages, not crash on them.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler builds a Scheduler around an Engine.
func NewScheduler(engine *Engine, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{engine: engine, interval: interval, logger: logger}
}

// Run executes an immediate cycle and then one per interval. It returns nil
// once the context is canceled; cancellation between rooms is safe because
// every room's crawl is independently committed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.engine.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("cycle failed", zap.Error(err))
	}
}
