package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	defaultInterval     = 10 * time.Minute
	defaultDiscardRatio = 0.5
)

// Collector reclaims space left behind by overwritten and deleted records.
type Collector interface {
	CollectGarbage(discardRatio float64) (int, error)
}

type Job struct {
	store        Collector
	interval     time.Duration
	discardRatio float64
	logger       *zap.Logger
}

func New(store Collector, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:        store,
		interval:     interval,
		discardRatio: defaultDiscardRatio,
		logger:       logger,
	}
}

// Run performs one collection pass.
func (j *Job) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rewritten, err := j.store.CollectGarbage(j.discardRatio)
	if err != nil {
		return fmt.Errorf("collect storage garbage: %w", err)
	}
	if rewritten > 0 {
		j.logger.Info("storage garbage collection completed", zap.Int("rewritten_files", rewritten))
	}
	return nil
}

// Start runs a pass every interval until ctx is cancelled. Failed passes are
// logged and retried on the next tick.
func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("storage garbage collection failed", zap.Error(err))
			}
		}
	}
}
