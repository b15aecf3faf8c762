package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xb1002/onchainLpV2/internal/config"
	"github.com/xb1002/onchainLpV2/internal/dex"
	"github.com/xb1002/onchainLpV2/internal/model"
	"github.com/xb1002/onchainLpV2/internal/storage"
)

var (
	usdc = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func TestPoolAddressFromTokens(t *testing.T) {
	a := &app{cfg: config.Config{
		Token0:  weth.Hex(),
		Token1:  usdc.Hex(),
		Fee:     500,
		Factory: config.DefaultFactory,
	}}
	addr, err := a.poolAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"), addr)

	a.cfg.Pool = "0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"
	addr, err = a.poolAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(a.cfg.Pool), addr)

	a.cfg.Pool = ""
	a.cfg.Fee = 100
	_, err = a.poolAddress()
	assert.Error(t, err)
}

func testApp(t *testing.T) *app {
	t.Helper()
	manager, err := dex.NewPositionManager(nil, nil, common.HexToAddress(config.DefaultPositionManager), nil)
	require.NoError(t, err)
	router, err := dex.NewRouter(nil, nil, common.HexToAddress(config.DefaultSwapRouter), nil)
	require.NoError(t, err)
	return &app{
		owner:   common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		pool:    model.NewPool(common.Address{}, model.Token{Address: weth, Symbol: "WETH", Decimals: 18}, model.Token{Address: usdc, Symbol: "USDC", Decimals: 6}, model.FeeLow),
		manager: manager,
		router:  router,
	}
}

func TestControllerConfig(t *testing.T) {
	a := testApp(t)
	cfg := config.Config{
		HalfWidth:       200,
		Tolerance:       "0.05",
		SwapSlippage:    "0.005",
		CollectMinFee0:  "1000",
		HedgeEnabled:    true,
		HedgeSymbol:     "ETHUSDT",
		HedgeLeverage:   3,
		HedgeMultiplier: "1",
		HedgeToken:      "token1",
	}

	out, err := controllerConfig(cfg, a)
	require.NoError(t, err)
	assert.Equal(t, a.owner, out.Owner)
	assert.Equal(t, common.HexToAddress(config.DefaultPositionManager), out.PositionManager)
	assert.Equal(t, "0.05", out.Tolerance.String())
	assert.Equal(t, uint64(1000), out.CollectMinFee0.Uint64())
	assert.True(t, out.CollectMinFee1.IsZero())
	assert.Equal(t, model.FeeTier(0), out.SwapFee)
	// USDC sorts below WETH, so token1 is WETH.
	assert.Equal(t, weth, out.HedgeToken)
	assert.Equal(t, "ETHUSDT", out.Sizer.Instrument)

	cfg.SwapFee = 123
	_, err = controllerConfig(cfg, a)
	assert.Error(t, err)
}

func TestOpenJournalFallsBackToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.jsonl")
	journal, closeFn, err := openJournal(context.Background(), config.Config{Journal: path})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &storage.JsonlStorage{}, journal)

	journal, closeFn, err = openJournal(context.Background(), config.Config{})
	require.NoError(t, err)
	defer closeFn()
	assert.Nil(t, journal)
}
