package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mainnet deployments used when no override is configured.
const (
	DefaultFactory         = "0x1F98431c8aD98523631AE4a59f267346ea31F984"
	DefaultPositionManager = "0xC36442b4a4522E871399CD717aBDD847Ab11FE88"
	DefaultSwapRouter      = "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL     string
	PrivateKey string
	Owner      string

	Pool            string
	Token0          string
	Token1          string
	Fee             uint32
	Factory         string
	InitCodeHash    string
	PositionManager string
	SwapRouter      string
	SwapFee         uint32
	SwapSlippage    string

	PollInterval time.Duration
	HalfWidth    int32
	Tolerance    string
	Deadline     time.Duration

	CollectMinFee0     string
	CollectMinFee1     string
	IncreaseMinAmount0 string
	IncreaseMinAmount1 string

	HedgeEnabled     bool
	HedgeSymbol      string
	HedgeLeverage    int
	HedgeMultiplier  string
	HedgeToken       string
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceTestnet   bool

	Journal     string
	PGDSN       string
	MetricsAddr string
	LogLevel    string
	LogFile     string
	Retries     int
	RetryDelay  time.Duration
}

// Load merges a .env file, config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("LPKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("fee", 500)
	v.SetDefault("factory", DefaultFactory)
	v.SetDefault("position-manager", DefaultPositionManager)
	v.SetDefault("swap-router", DefaultSwapRouter)
	v.SetDefault("swap-fee", 500)
	v.SetDefault("swap-slippage", "0.005")
	v.SetDefault("poll-interval", 30*time.Second)
	v.SetDefault("half-width", 200)
	v.SetDefault("tolerance", "0.05")
	v.SetDefault("deadline", 10*time.Minute)
	v.SetDefault("hedge-leverage", 3)
	v.SetDefault("hedge-multiplier", "1")
	v.SetDefault("hedge-token", "token0")
	v.SetDefault("journal", "./data/cycles.jsonl")
	v.SetDefault("log-level", "info")
	v.SetDefault("retries", 3)
	v.SetDefault("retry-delay", 200*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:     v.GetString("rpc"),
		PrivateKey: v.GetString("private-key"),
		Owner:      v.GetString("owner"),

		Pool:            v.GetString("pool"),
		Token0:          v.GetString("token0"),
		Token1:          v.GetString("token1"),
		Fee:             v.GetUint32("fee"),
		Factory:         v.GetString("factory"),
		InitCodeHash:    v.GetString("init-code-hash"),
		PositionManager: v.GetString("position-manager"),
		SwapRouter:      v.GetString("swap-router"),
		SwapFee:         v.GetUint32("swap-fee"),
		SwapSlippage:    v.GetString("swap-slippage"),

		PollInterval: v.GetDuration("poll-interval"),
		HalfWidth:    v.GetInt32("half-width"),
		Tolerance:    v.GetString("tolerance"),
		Deadline:     v.GetDuration("deadline"),

		CollectMinFee0:     v.GetString("collect-min-fee0"),
		CollectMinFee1:     v.GetString("collect-min-fee1"),
		IncreaseMinAmount0: v.GetString("increase-min-amount0"),
		IncreaseMinAmount1: v.GetString("increase-min-amount1"),

		HedgeEnabled:     v.GetBool("hedge-enabled"),
		HedgeSymbol:      v.GetString("hedge-symbol"),
		HedgeLeverage:    v.GetInt("hedge-leverage"),
		HedgeMultiplier:  v.GetString("hedge-multiplier"),
		HedgeToken:       v.GetString("hedge-token"),
		BinanceAPIKey:    v.GetString("binance-api-key"),
		BinanceSecretKey: v.GetString("binance-secret-key"),
		BinanceTestnet:   v.GetBool("binance-testnet"),

		Journal:     v.GetString("journal"),
		PGDSN:       v.GetString("pg-dsn"),
		MetricsAddr: v.GetString("metrics-addr"),
		LogLevel:    v.GetString("log-level"),
		LogFile:     v.GetString("log-file"),
		Retries:     v.GetInt("retries"),
		RetryDelay:  v.GetDuration("retry-delay"),
	}

	return cfg, nil
}

// ValidateRead checks the settings needed to inspect the wallet and pool.
func (c Config) ValidateRead() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	if c.PrivateKey == "" && c.Owner == "" {
		return fmt.Errorf("private-key or owner is required")
	}
	if c.Pool == "" && (c.Token0 == "" || c.Token1 == "") {
		return fmt.Errorf("pool or token0 and token1 are required")
	}
	for name, value := range map[string]string{
		"pool":             c.Pool,
		"token0":           c.Token0,
		"token1":           c.Token1,
		"owner":            c.Owner,
		"factory":          c.Factory,
		"position-manager": c.PositionManager,
		"swap-router":      c.SwapRouter,
	} {
		if value == "" {
			continue
		}
		if _, err := ParseAddress(name, value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateWrite checks the settings needed to send transactions.
func (c Config) ValidateWrite() error {
	if err := c.ValidateRead(); err != nil {
		return err
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private-key is required")
	}
	if c.Deadline <= 0 {
		return fmt.Errorf("deadline must be positive")
	}
	return nil
}

// ValidateRun checks the settings of the rebalance loop.
func (c Config) ValidateRun() error {
	if err := c.ValidateWrite(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll-interval must be positive")
	}
	if c.HalfWidth <= 0 {
		return fmt.Errorf("half-width must be positive")
	}
	if tol, err := ParseDecimal("tolerance", c.Tolerance); err != nil {
		return err
	} else if tol.IsNegative() {
		return fmt.Errorf("tolerance must not be negative")
	}
	if _, err := ParseDecimal("swap-slippage", c.SwapSlippage); err != nil {
		return err
	}
	for name, value := range map[string]string{
		"collect-min-fee0":     c.CollectMinFee0,
		"collect-min-fee1":     c.CollectMinFee1,
		"increase-min-amount0": c.IncreaseMinAmount0,
		"increase-min-amount1": c.IncreaseMinAmount1,
	} {
		if _, err := ParseAmount(name, value); err != nil {
			return err
		}
	}
	if !c.HedgeEnabled {
		return nil
	}
	if c.HedgeSymbol == "" {
		return fmt.Errorf("hedge-symbol is required when hedging")
	}
	if c.BinanceAPIKey == "" || c.BinanceSecretKey == "" {
		return fmt.Errorf("binance-api-key and binance-secret-key are required when hedging")
	}
	if c.HedgeLeverage < 0 {
		return fmt.Errorf("hedge-leverage must not be negative")
	}
	if mult, err := ParseDecimal("hedge-multiplier", c.HedgeMultiplier); err != nil {
		return err
	} else if !mult.IsPositive() {
		return fmt.Errorf("hedge-multiplier must be positive")
	}
	switch strings.ToLower(c.HedgeToken) {
	case "token0", "token1":
		return nil
	}
	_, err := ParseAddress("hedge-token", c.HedgeToken)
	return err
}

// ParseAddress validates a hex address setting.
func ParseAddress(name, value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

// ParseDecimal parses a decimal setting.
func ParseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// ParseAmount parses a raw token amount. Empty means zero.
func ParseAmount(name, value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return amount, nil
}
