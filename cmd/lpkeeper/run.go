package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/config"
	"github.com/xb1002/onchainLpV2/internal/hedge"
	"github.com/xb1002/onchainLpV2/internal/keeper"
	"github.com/xb1002/onchainLpV2/internal/metrics"
	"github.com/xb1002/onchainLpV2/internal/model"
	"github.com/xb1002/onchainLpV2/internal/storage"
	"github.com/xb1002/onchainLpV2/internal/storage/postgres"
)

func runKeeper(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	observers := []keeper.Observer{keeper.NewLogObserver(logger)}
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observers = append(observers, metrics.New(registry))
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, registry, logger); err != nil {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	journal, closeJournal, err := openJournal(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	controllerCfg, err := controllerConfig(cfg, a)
	if err != nil {
		return err
	}
	deps := keeper.Deps{
		Pool:     a.reader,
		Manager:  a.manager,
		Router:   a.router,
		Assets:   a.tokens,
		Observer: keeper.Observers(observers...),
		Logger:   logger,
	}
	if cfg.HedgeEnabled {
		deps.Venue = hedge.NewBinanceVenue(cfg.BinanceAPIKey, cfg.BinanceSecretKey, cfg.BinanceTestnet, logger)
	}
	controller, err := keeper.NewController(controllerCfg, a.pool, deps)
	if err != nil {
		return err
	}

	logger.Info("keeper start",
		zap.String("pool", a.pool.Address.Hex()),
		zap.String("owner", a.owner.Hex()),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int32("half_width", cfg.HalfWidth),
		zap.String("tolerance", cfg.Tolerance),
		zap.Bool("hedge_enabled", cfg.HedgeEnabled),
		zap.String("journal", cfg.Journal),
	)

	runner := keeper.NewRunner(keeper.RunConfig{Interval: cfg.PollInterval}, controller, journal, logger)
	return runner.Run(ctx)
}

func controllerConfig(cfg config.Config, a *app) (keeper.Config, error) {
	tolerance, err := config.ParseDecimal("tolerance", cfg.Tolerance)
	if err != nil {
		return keeper.Config{}, err
	}
	slippage, err := config.ParseDecimal("swap-slippage", cfg.SwapSlippage)
	if err != nil {
		return keeper.Config{}, err
	}
	out := keeper.Config{
		Owner:           a.owner,
		PositionManager: a.manager.Address(),
		SwapRouter:      a.router.Address(),
		HalfWidth:       cfg.HalfWidth,
		Tolerance:       tolerance,
		SwapSlippage:    slippage,
		Deadline:        cfg.Deadline,
		HedgeEnabled:    cfg.HedgeEnabled,
		HedgeLeverage:   cfg.HedgeLeverage,
	}
	if cfg.SwapFee != 0 {
		if out.SwapFee, err = model.ParseFeeTier(cfg.SwapFee); err != nil {
			return keeper.Config{}, err
		}
	}
	if out.CollectMinFee0, err = config.ParseAmount("collect-min-fee0", cfg.CollectMinFee0); err != nil {
		return keeper.Config{}, err
	}
	if out.CollectMinFee1, err = config.ParseAmount("collect-min-fee1", cfg.CollectMinFee1); err != nil {
		return keeper.Config{}, err
	}
	if out.IncreaseMinAmount0, err = config.ParseAmount("increase-min-amount0", cfg.IncreaseMinAmount0); err != nil {
		return keeper.Config{}, err
	}
	if out.IncreaseMinAmount1, err = config.ParseAmount("increase-min-amount1", cfg.IncreaseMinAmount1); err != nil {
		return keeper.Config{}, err
	}

	if !cfg.HedgeEnabled {
		return out, nil
	}
	multiplier, err := config.ParseDecimal("hedge-multiplier", cfg.HedgeMultiplier)
	if err != nil {
		return keeper.Config{}, err
	}
	out.Sizer = hedge.NewSizer(cfg.HedgeSymbol, multiplier)
	switch strings.ToLower(cfg.HedgeToken) {
	case "token0":
		out.HedgeToken = a.pool.Token0.Address
	case "token1":
		out.HedgeToken = a.pool.Token1.Address
	default:
		if out.HedgeToken, err = config.ParseAddress("hedge-token", cfg.HedgeToken); err != nil {
			return keeper.Config{}, err
		}
	}
	return out, nil
}

// openJournal prefers Postgres when a DSN is configured and falls back to the JSONL file.
func openJournal(ctx context.Context, cfg config.Config) (storage.Storage, func(), error) {
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, store.Close, nil
	}
	if cfg.Journal == "" {
		return nil, func() {}, nil
	}
	return storage.NewJsonlStorage(cfg.Journal), func() {}, nil
}
