package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/keeper"
)

func runSweep(cmd *cobra.Command, _ []string) error {
	return withController(cmd, func(ctx context.Context, c *keeper.Controller) ([]*uint256.Int, error) {
		return c.Sweep(ctx)
	})
}

func runCloseAll(cmd *cobra.Command, _ []string) error {
	return withController(cmd, func(ctx context.Context, c *keeper.Controller) ([]*uint256.Int, error) {
		return c.CloseAll(ctx)
	})
}

func withController(cmd *cobra.Command, fn func(context.Context, *keeper.Controller) ([]*uint256.Int, error)) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.ValidateWrite(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	// Closing positions never touches the hedge.
	cfg.HedgeEnabled = false
	controllerCfg, err := controllerConfig(cfg, a)
	if err != nil {
		return err
	}
	controller, err := keeper.NewController(controllerCfg, a.pool, keeper.Deps{
		Pool:    a.reader,
		Manager: a.manager,
		Router:  a.router,
		Assets:  a.tokens,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	closed, err := fn(ctx, controller)
	ids := make([]string, 0, len(closed))
	for _, id := range closed {
		ids = append(ids, id.Dec())
	}
	logger.Info("positions closed", zap.Strings("ids", ids))
	return err
}
