package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityPool/internal/aggregate"
	"liquidityPool/internal/config"
	"liquidityPool/internal/eventlog"
	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
	"liquidityPool/internal/storage/postgres"
)

func runMetrics(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadMetrics(cfgFile, cmd.Flags())
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

	windowDuration, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}
	if windowDuration < 0 {
		return fmt.Errorf("window must not be negative")
	}
	windowSeconds := uint64(windowDuration / time.Second)

	since, err := config.ParseTimestamp(cfg.Since)
	if err != nil {
		return fmt.Errorf("parse since: %w", err)
	}

	poolCfg, err := parsePoolConfig(cfg.Pool)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	logger.Info("metrics start",
		zap.String("in", cfg.In),
		zap.String("pool", poolCfg.Address.Hex()),
		zap.Uint64("window_seconds", windowSeconds),
		zap.Uint64("since", since),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	metrics, err := aggregateStream(inputFile, poolCfg, windowSeconds, since, logger)
	if err != nil {
		return err
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.UpsertMetrics(ctx, metrics); err != nil {
			return err
		}
	}

	logger.Info("metrics complete", zap.Int("windows", len(metrics)))
	return printJSON(cmd.OutOrStdout(), metrics)
}

// aggregateStream folds the recorded events of one pool into window metrics.
// Every event moves the closing reserves; only events at or after since are
// counted into windows. Records repeated by a retried sink write are ignored.
func aggregateStream(r io.Reader, cfg pool.Config, windowSeconds, since uint64, logger *zap.Logger) ([]model.PoolMetrics, error) {
	decoder, err := eventlog.NewDecoder()
	if err != nil {
		return nil, err
	}

	poolAddress := cfg.Address.Hex()
	agg := aggregate.NewAggregator(windowSeconds, poolAddress, cfg.Asset1.Hex(), cfg.Asset2.Hex())
	reserves := aggregate.NewReserves(cfg.Asset1.Hex(), cfg.Asset2.Hex())

	type recordKey struct{ seq, logIndex uint64 }
	seen := make(map[recordKey]struct{})

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var lastSeq uint64
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse record: %w", err)
		}
		if !strings.EqualFold(record.Address, poolAddress) {
			continue
		}
		key := recordKey{record.Seq, record.LogIndex}
		if _, ok := seen[key]; ok {
			logger.Debug("duplicate record", zap.Uint64("seq", record.Seq), zap.Uint64("log_index", record.LogIndex))
			continue
		}
		seen[key] = struct{}{}
		if record.Seq < lastSeq {
			return nil, fmt.Errorf("record seq %d after seq %d", record.Seq, lastSeq)
		}
		lastSeq = record.Seq

		event, err := decoder.Decode(record)
		if err != nil {
			return nil, fmt.Errorf("decode seq %d: %w", record.Seq, err)
		}
		if err := reserves.Apply(*event); err != nil {
			return nil, err
		}
		if event.Timestamp < since {
			continue
		}
		if err := agg.Add(*event); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	reserve1, reserve2, totalShares, err := reserves.Values()
	if err != nil {
		return nil, err
	}
	return agg.Metrics(reserve1, reserve2, totalShares), nil
}
