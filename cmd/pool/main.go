package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pool",
		Short:        "Constant-product liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply an operation script to a pool and record its events",
		RunE:  runReplay,
	}

	addPoolFlags(replayCmd)
	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("out", "./data/events.jsonl", "output events JSONL")
	replayCmd.Flags().String("errors", "./data/op_errors.jsonl", "failed operations JSONL")
	replayCmd.Flags().Bool("truncate", false, "empty outputs and the checkpoint file before replaying")
	replayCmd.Flags().Uint64("batch-size", 500, "operations per batch")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("checkpoint-name", "replay", "checkpoint row name when Postgres is configured")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN (events, snapshot, metrics and checkpoint)")
	replayCmd.Flags().Duration("window", time.Hour, "metrics window, 0 for a single window")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts for sink writes")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against the given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("amount-in", "", "input amount, or the desired output with --exact-out")
	quoteCmd.Flags().String("reserve-in", "", "reserve of the input asset")
	quoteCmd.Flags().String("reserve-out", "", "reserve of the output asset")
	quoteCmd.Flags().Bool("exact-out", false, "treat --amount-in as the desired output and quote the input")
	quoteCmd.Flags().Bool("price", false, "include the reserve price")
	quoteCmd.Flags().Int("precision", 18, "decimals of the precise price")
	quoteCmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode recorded pool events into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("in", "", "input events JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().StringSlice("event", nil, "only keep these event names (comma-separated)")
	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Aggregate recorded pool events into window metrics",
		RunE:  runMetrics,
	}

	addPoolFlags(metricsCmd)
	metricsCmd.Flags().String("in", "", "input events JSONL")
	metricsCmd.Flags().String("window", "1h", "aggregation window (e.g. 1m, 5m, 1h)")
	metricsCmd.Flags().String("since", "", "only count events from this timestamp (unix seconds or RFC3339)")
	metricsCmd.Flags().String("pg-dsn", "", "Postgres DSN, metrics are upserted when set")
	metricsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(metricsCmd)

	return root
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool", "", "pool holding account address")
	cmd.Flags().String("asset1", "", "first asset address")
	cmd.Flags().String("asset2", "", "second asset address")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
