package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xb1002/onchainLpV2/internal/chain"
	"github.com/xb1002/onchainLpV2/internal/config"
	"github.com/xb1002/onchainLpV2/internal/dex"
	"github.com/xb1002/onchainLpV2/internal/model"
)

// app holds the chain-side collaborators shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	client  *chain.Client
	signer  *chain.Transactor
	owner   common.Address
	pool    model.Pool
	reader  *dex.PoolContract
	manager *dex.PositionManager
	router  *dex.Router
	tokens  *dex.ERC20
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// newApp dials the RPC and resolves the pool. A signer is loaded only when write is set.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, write bool) (*app, error) {
	client, err := chain.NewClient(ctx, cfg.RPCURL, chain.WithReadRetry(cfg.Retries, cfg.RetryDelay))
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, client: client}

	var sender dex.Sender
	if write || cfg.PrivateKey != "" {
		signer, err := chain.NewTransactor(ctx, client, cfg.PrivateKey, logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		a.signer = signer
		a.owner = signer.From()
		if write {
			sender = signer
		}
	}
	if cfg.Owner != "" {
		if a.owner, err = config.ParseAddress("owner", cfg.Owner); err != nil {
			client.Close()
			return nil, err
		}
	}

	if err := a.wire(ctx, sender); err != nil {
		client.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, sender dex.Sender) error {
	poolAddr, err := a.poolAddress()
	if err != nil {
		return err
	}
	if a.reader, err = dex.NewPoolContract(a.client, poolAddr); err != nil {
		return err
	}
	if a.tokens, err = dex.NewERC20(a.client, sender, a.logger); err != nil {
		return err
	}
	managerAddr, err := config.ParseAddress("position-manager", a.cfg.PositionManager)
	if err != nil {
		return err
	}
	if a.manager, err = dex.NewPositionManager(a.client, sender, managerAddr, a.logger); err != nil {
		return err
	}
	routerAddr, err := config.ParseAddress("swap-router", a.cfg.SwapRouter)
	if err != nil {
		return err
	}
	if a.router, err = dex.NewRouter(a.client, sender, routerAddr, a.logger); err != nil {
		return err
	}

	info, err := a.reader.PoolInfo(ctx)
	if err != nil {
		return fmt.Errorf("read pool %s: %w", poolAddr.Hex(), err)
	}
	token0, err := a.tokens.Token(ctx, info.Token0)
	if err != nil {
		return fmt.Errorf("token0 metadata: %w", err)
	}
	token1, err := a.tokens.Token(ctx, info.Token1)
	if err != nil {
		return fmt.Errorf("token1 metadata: %w", err)
	}
	a.pool = model.NewPool(poolAddr, token0, token1, info.Fee)

	a.logger.Info("pool resolved",
		zap.String("pool", poolAddr.Hex()),
		zap.String("pair", a.pool.String()),
		zap.Int32("tick_spacing", info.TickSpacing),
		zap.String("owner", a.owner.Hex()),
		zap.Bool("signer", sender != nil),
	)
	return nil
}

func (a *app) poolAddress() (common.Address, error) {
	if a.cfg.Pool != "" {
		return config.ParseAddress("pool", a.cfg.Pool)
	}
	token0, err := config.ParseAddress("token0", a.cfg.Token0)
	if err != nil {
		return common.Address{}, err
	}
	token1, err := config.ParseAddress("token1", a.cfg.Token1)
	if err != nil {
		return common.Address{}, err
	}
	fee, err := model.ParseFeeTier(a.cfg.Fee)
	if err != nil {
		return common.Address{}, err
	}
	factory, err := config.ParseAddress("factory", a.cfg.Factory)
	if err != nil {
		return common.Address{}, err
	}
	initCodeHash := dex.DefaultPoolInitCodeHash
	if a.cfg.InitCodeHash != "" {
		initCodeHash = common.HexToHash(strings.TrimSpace(a.cfg.InitCodeHash))
	}
	return dex.ComputePoolAddress(factory, initCodeHash, token0, token1, fee), nil
}

func (a *app) Close() {
	a.client.Close()
}
