package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityPool/internal/config"
	"liquidityPool/internal/pool"
	"liquidityPool/internal/replay"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}
	if cfg.Window < 0 {
		return fmt.Errorf("window must not be negative")
	}

	poolCfg, err := parsePoolConfig(cfg.Pool)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventSink := storage.NewJsonlStorage(cfg.Out)
	errorSink := storage.NewJsonlStorage(cfg.Errors)

	var (
		sink       storage.Storage = eventSink
		checkpoint replay.CheckpointStore
		publisher  replay.Publisher
	)

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}

		sink = storage.Multi{eventSink, store}
		publisher = store
		if cfg.CheckpointEnabled {
			checkpoint = &replay.DBCheckpointStore{Store: store, Name: cfg.CheckpointName}
		}
	} else if cfg.CheckpointEnabled {
		checkpoint = replay.NewFileCheckpointStore(cfg.Checkpoint, true)
	}

	if cfg.Truncate {
		if err := resetOutputs(cfg, eventSink, errorSink); err != nil {
			return err
		}
	}

	runner := replay.NewRunner(replay.RunConfig{
		InputPath:     cfg.In,
		Pool:          poolCfg,
		BatchSize:     cfg.BatchSize,
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff:  cfg.RetryBackoff,
		WindowSeconds: uint64(cfg.Window / time.Second),
	}, sink, errorSink, checkpoint, publisher, logger)

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.String("pool", poolCfg.Address.Hex()),
		zap.String("asset1", poolCfg.Asset1.Hex()),
		zap.String("asset2", poolCfg.Asset2.Hex()),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), summary.Snapshot)
}

// resetOutputs starts a replay from scratch. Only the file checkpoint can be
// reset here; a Postgres checkpoint is selected by name instead.
func resetOutputs(cfg config.ReplayConfig, sinks ...*storage.JsonlStorage) error {
	if cfg.PGDSN != "" && cfg.CheckpointEnabled {
		return fmt.Errorf("--truncate cannot reset a Postgres checkpoint, pick a new --checkpoint-name")
	}
	for _, sink := range sinks {
		if err := sink.Truncate(); err != nil {
			return err
		}
	}
	if cfg.Checkpoint == "" {
		return nil
	}
	if err := os.Remove(cfg.Checkpoint); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

func parsePoolConfig(cfg config.PoolConfig) (pool.Config, error) {
	address, err := replay.ParseAddress(cfg.Address)
	if err != nil {
		return pool.Config{}, fmt.Errorf("pool: %w", err)
	}
	asset1, err := replay.ParseAddress(cfg.Asset1)
	if err != nil {
		return pool.Config{}, fmt.Errorf("asset1: %w", err)
	}
	asset2, err := replay.ParseAddress(cfg.Asset2)
	if err != nil {
		return pool.Config{}, fmt.Errorf("asset2: %w", err)
	}
	return pool.Config{Address: address, Asset1: asset1, Asset2: asset2}, nil
}
