package keeper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/storage"
)

// RunConfig holds the loop settings.
type RunConfig struct {
	Interval time.Duration
	// SkipSweep disables the startup sweep of empty positions.
	SkipSweep bool
}

// Runner repeats controller cycles on a fixed interval and journals each one.
type Runner struct {
	cfg        RunConfig
	controller *Controller
	journal    storage.Storage
	logger     *zap.Logger
}

// NewRunner builds a Runner. A nil journal disables journaling.
func NewRunner(cfg RunConfig, controller *Controller, journal storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, controller: controller, journal: journal, logger: logger}
}

// Run approves spending, sweeps empty positions once, then cycles until ctx is
// cancelled. Only fatal configuration errors end the loop early.
func (r *Runner) Run(ctx context.Context) error {
	if r.controller == nil {
		return fmt.Errorf("controller is nil")
	}
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}

	if err := r.controller.Prepare(ctx); err != nil {
		if IsKind(err, KindFatalConfig) {
			return err
		}
		r.logger.Warn("prepare allowances", zap.Error(err))
	}
	if !r.cfg.SkipSweep {
		closed, err := r.controller.Sweep(ctx)
		if err != nil {
			r.logger.Warn("sweep empty positions", zap.Error(err))
		}
		r.logger.Info("sweep complete", zap.Int("closed", len(closed)))
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := r.cycle(ctx); err != nil {
			return err
		}
		timer.Reset(r.cfg.Interval)
	}
}

func (r *Runner) cycle(ctx context.Context) error {
	res, err := r.controller.RunCycle(ctx)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	if r.journal != nil {
		if jerr := r.journal.PutCycle(ctx, res.Record(r.controller.pool.Address, err)); jerr != nil {
			r.logger.Warn("journal cycle", zap.Error(jerr))
		}
	}
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindFatalConfig:
		return err
	case KindInput:
		r.logger.Error("cycle rejected", zap.Error(err))
	default:
		r.logger.Warn("cycle failed", zap.Error(err), zap.String("kind", KindOf(err).String()))
	}
	return nil
}
