package main

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	root := &cobra.Command{
		Use:          "lpkeeper",
		Short:        "Uniswap V3 concentrated liquidity keeper",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Keep a position centred on the pool price",
		RunE:  runKeeper,
	}
	addChainFlags(runCmd.Flags())
	runCmd.Flags().Duration("poll-interval", 30*time.Second, "time between cycles")
	runCmd.Flags().Int32("half-width", 200, "ticks on each side of the current tick")
	runCmd.Flags().String("tolerance", "0.05", "allowed value imbalance before swapping")
	runCmd.Flags().Uint32("swap-fee", 500, "fee tier of the pool used for rebalance swaps")
	runCmd.Flags().String("swap-slippage", "0.005", "accepted shortfall against the simulated swap output")
	runCmd.Flags().Duration("deadline", 10*time.Minute, "transaction deadline")
	runCmd.Flags().String("collect-min-fee0", "", "collect in range once token0 fees reach this raw amount")
	runCmd.Flags().String("collect-min-fee1", "", "collect in range once token1 fees reach this raw amount")
	runCmd.Flags().String("increase-min-amount0", "", "compound collected token0 once the wallet holds this raw amount")
	runCmd.Flags().String("increase-min-amount1", "", "compound collected token1 once the wallet holds this raw amount")
	runCmd.Flags().Bool("hedge-enabled", false, "hedge token exposure on Binance futures")
	runCmd.Flags().String("hedge-symbol", "", "futures symbol, e.g. ETHUSDT")
	runCmd.Flags().Int("hedge-leverage", 3, "futures leverage")
	runCmd.Flags().String("hedge-multiplier", "1", "contracts per unit of the hedged token")
	runCmd.Flags().String("hedge-token", "token0", "hedged token: token0, token1 or an address")
	runCmd.Flags().Bool("binance-testnet", false, "use the Binance futures testnet")
	runCmd.Flags().String("journal", "./data/cycles.jsonl", "cycle journal JSONL path")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for the cycle journal")
	runCmd.Flags().String("metrics-addr", "", "listen address for /metrics, empty disables")
	root.AddCommand(runCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show owned positions, uncollected fees and recent cycles",
		RunE:  runStatus,
	}
	addChainFlags(statusCmd.Flags())
	statusCmd.Flags().String("owner", "", "wallet to inspect, defaults to the private key's address")
	statusCmd.Flags().String("journal", "./data/cycles.jsonl", "cycle journal JSONL path")
	statusCmd.Flags().String("pg-dsn", "", "read the journal from Postgres instead")
	statusCmd.Flags().Int("cycles", 10, "recent cycles to show")
	root.AddCommand(statusCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Burn owned positions that hold no liquidity",
		RunE:  runSweep,
	}
	addChainFlags(sweepCmd.Flags())
	sweepCmd.Flags().Duration("deadline", 10*time.Minute, "transaction deadline")
	root.AddCommand(sweepCmd)

	closeCmd := &cobra.Command{
		Use:   "close-all",
		Short: "Withdraw and burn every owned position",
		RunE:  runCloseAll,
	}
	addChainFlags(closeCmd.Flags())
	closeCmd.Flags().Duration("deadline", 10*time.Minute, "transaction deadline")
	root.AddCommand(closeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addChainFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "Ethereum RPC URL")
	flags.String("pool", "", "pool address")
	flags.String("token0", "", "pool token, used with token1 and fee when pool is not set")
	flags.String("token1", "", "pool token, used with token0 and fee when pool is not set")
	flags.Uint32("fee", 500, "pool fee tier")
	flags.String("factory", "", "V3 factory address")
	flags.String("init-code-hash", "", "pool init code hash")
	flags.String("position-manager", "", "NonfungiblePositionManager address")
	flags.String("swap-router", "", "SwapRouter02 address")
	flags.Int("retries", 3, "read retries per RPC call")
	flags.Duration("retry-delay", 200*time.Millisecond, "initial read retry delay")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write logs to this rotated file")
}

func newLogger(level, file string) (*zap.Logger, error) {
	atom := zap.NewAtomicLevel()
	if err := atom.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.Lock(os.Stderr), atom),
	}
	if file = strings.TrimSpace(file); file != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, atom))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
