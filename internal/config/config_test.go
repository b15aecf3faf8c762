package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testUSDC  = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	testWETH  = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	testOwner = "0x00000000000000000000000000000000000000aa"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, uint32(500), cfg.Fee)
	assert.Equal(t, uint32(500), cfg.SwapFee)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, int32(200), cfg.HalfWidth)
	assert.Equal(t, "0.05", cfg.Tolerance)
	assert.Equal(t, 10*time.Minute, cfg.Deadline)
	assert.Equal(t, 3, cfg.HedgeLeverage)
	assert.Equal(t, "1", cfg.HedgeMultiplier)
	assert.Equal(t, "token0", cfg.HedgeToken)
	assert.Equal(t, DefaultPositionManager, cfg.PositionManager)
	assert.Equal(t, 3, cfg.Retries)
	assert.False(t, cfg.HedgeEnabled)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "keeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("half-width: 400\ntolerance: \"0.10\"\nrpc: http://file\n"), 0o644))

	t.Setenv("LPKEEPER_HALF_WIDTH", "300")
	t.Setenv("LPKEEPER_POLL_INTERVAL", "5s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("rpc", "", "")
	require.NoError(t, flags.Parse([]string{"--rpc", "http://flag"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "http://flag", cfg.RPCURL)
	assert.Equal(t, int32(300), cfg.HalfWidth)
	assert.Equal(t, "0.10", cfg.Tolerance)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LPKEEPER_HEDGE_SYMBOL=ETHUSDT\n"), 0o644))
	t.Setenv("LPKEEPER_HEDGE_SYMBOL", "")
	os.Unsetenv("LPKEEPER_HEDGE_SYMBOL")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "ETHUSDT", cfg.HedgeSymbol)
}

func validRun() Config {
	return Config{
		RPCURL:          "http://localhost:8545",
		PrivateKey:      testKey,
		Token0:          testUSDC,
		Token1:          testWETH,
		Fee:             500,
		Factory:         DefaultFactory,
		PositionManager: DefaultPositionManager,
		SwapRouter:      DefaultSwapRouter,
		SwapSlippage:    "0.005",
		PollInterval:    30 * time.Second,
		HalfWidth:       200,
		Tolerance:       "0.05",
		Deadline:        10 * time.Minute,
		HedgeLeverage:   3,
		HedgeMultiplier: "1",
		HedgeToken:      "token0",
	}
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing rpc", mutate: func(c *Config) { c.RPCURL = "" }, wantErr: "rpc is required"},
		{name: "missing key", mutate: func(c *Config) { c.PrivateKey = ""; c.Owner = testOwner }, wantErr: "private-key is required"},
		{name: "missing pool", mutate: func(c *Config) { c.Token1 = "" }, wantErr: "pool or token0 and token1"},
		{name: "bad token", mutate: func(c *Config) { c.Token0 = "0x1234" }, wantErr: "token0: invalid address"},
		{name: "zero width", mutate: func(c *Config) { c.HalfWidth = 0 }, wantErr: "half-width"},
		{name: "negative tolerance", mutate: func(c *Config) { c.Tolerance = "-0.1" }, wantErr: "tolerance"},
		{name: "bad threshold", mutate: func(c *Config) { c.CollectMinFee0 = "1.5" }, wantErr: "collect-min-fee0"},
		{name: "hedge without symbol", mutate: func(c *Config) { c.HedgeEnabled = true }, wantErr: "hedge-symbol"},
		{name: "hedge without keys", mutate: func(c *Config) {
			c.HedgeEnabled = true
			c.HedgeSymbol = "ETHUSDT"
		}, wantErr: "binance-api-key"},
		{name: "hedge ok", mutate: func(c *Config) {
			c.HedgeEnabled = true
			c.HedgeSymbol = "ETHUSDT"
			c.BinanceAPIKey = "k"
			c.BinanceSecretKey = "s"
			c.HedgeToken = testWETH
		}},
		{name: "hedge bad multiplier", mutate: func(c *Config) {
			c.HedgeEnabled = true
			c.HedgeSymbol = "ETHUSDT"
			c.BinanceAPIKey = "k"
			c.BinanceSecretKey = "s"
			c.HedgeMultiplier = "0"
		}, wantErr: "hedge-multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRun()
			tt.mutate(&cfg)
			err := cfg.ValidateRun()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReadAcceptsOwner(t *testing.T) {
	cfg := validRun()
	cfg.PrivateKey = ""
	cfg.Owner = testOwner
	assert.NoError(t, cfg.ValidateRead())
	assert.Error(t, cfg.ValidateWrite())
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("x", "")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	amount, err = ParseAmount("x", " 1000000000000000000000 ")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", amount.Dec())

	_, err = ParseAmount("x", "-1")
	assert.Error(t, err)
}
