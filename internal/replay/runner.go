package replay

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"liquidityPool/internal/aggregate"
	"liquidityPool/internal/amm"
	"liquidityPool/internal/eventlog"
	"liquidityPool/internal/ledger"
	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
	"liquidityPool/internal/storage"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	InputPath     string
	Pool          pool.Config
	BatchSize     uint64
	MaxRetries    int
	RetryBackoff  time.Duration
	WindowSeconds uint64
}

// ErrorSink receives operations that could not be applied.
type ErrorSink interface {
	PutOperationErrors(ctx context.Context, errs []model.OperationError) error
}

// Publisher receives the final pool state and metrics. postgres.Store
// implements it.
type Publisher interface {
	UpsertPoolSnapshot(ctx context.Context, snap model.PoolSnapshot) error
	UpsertMetrics(ctx context.Context, metrics []model.PoolMetrics) error
}

// Summary describes a finished replay.
type Summary struct {
	From     uint64
	To       uint64
	Applied  int
	Failed   int
	Events   int
	Snapshot model.PoolSnapshot
	Metrics  []model.PoolMetrics
}

// Runner applies a replay script to a pool and its ledger in batches,
// writing observations to a sink and checkpointing after every batch.
type Runner struct {
	cfg        RunConfig
	storage    storage.Storage
	errors     ErrorSink
	checkpoint CheckpointStore
	publisher  Publisher
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies. checkpoint and publisher
// may be nil.
func NewRunner(cfg RunConfig, storageSink storage.Storage, errSink ErrorSink, checkpoint CheckpointStore, publisher Publisher, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		storage:    storageSink,
		errors:     errSink,
		checkpoint: checkpoint,
		publisher:  publisher,
		logger:     logger,
	}
}

// Run executes the replay loop.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.storage == nil {
		return Summary{}, fmt.Errorf("storage is nil")
	}
	if r.errors == nil {
		return Summary{}, fmt.Errorf("error sink is nil")
	}
	if r.cfg.BatchSize == 0 {
		return Summary{}, fmt.Errorf("batch size must be greater than zero")
	}

	entries, err := ReadOperations(r.cfg.InputPath)
	if err != nil {
		return Summary{}, err
	}

	recorder := eventlog.NewRecorder(r.logger)
	p, l, lastSeq, err := r.restore(ctx, recorder)
	if err != nil {
		return Summary{}, err
	}
	decoder, err := eventlog.NewDecoder()
	if err != nil {
		return Summary{}, err
	}
	asset1, asset2 := p.Assets()
	agg := aggregate.NewAggregator(r.cfg.WindowSeconds, p.Address().Hex(), asset1.Hex(), asset2.Hex())

	summary := Summary{From: lastSeq + 1, To: uint64(len(entries))}
	if summary.From > summary.To {
		r.logger.Info("nothing to replay", zap.Uint64("from", summary.From), zap.Uint64("to", summary.To))
		return r.finish(ctx, summary, p, agg)
	}

	ranges, err := SplitRange(summary.From, summary.To, r.cfg.BatchSize)
	if err != nil {
		return Summary{}, err
	}

	for _, batch := range ranges {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var opErrors []model.OperationError
		for seq := batch.From; seq <= batch.To; seq++ {
			if err := ctx.Err(); err != nil {
				// nothing from this batch is checkpointed, so a rerun replays it
				return summary, err
			}
			entry := entries[seq-1]
			recorder.Begin(entry.Seq, entry.Hash, entry.Op.Timestamp)

			err := entry.ParseErr
			if err == nil {
				err = apply(ctx, p, l, entry.Op)
			}
			if err != nil {
				summary.Failed++
				opErrors = append(opErrors, operationError(entry, err))
				r.logger.Debug("operation failed", zap.Uint64("seq", entry.Seq), zap.String("op", entry.Op.Op), zap.Error(err))
				continue
			}
			summary.Applied++
		}

		records, err := recorder.Drain()
		if err != nil {
			return summary, fmt.Errorf("encode observations: %w", err)
		}
		summary.Events += len(records)

		if err := r.writeBatch(ctx, records, opErrors); err != nil {
			return summary, err
		}
		for _, record := range records {
			event, err := decoder.Decode(record)
			if err != nil {
				return summary, fmt.Errorf("decode recorded observation seq %d: %w", record.Seq, err)
			}
			if err := agg.Add(*event); err != nil {
				return summary, fmt.Errorf("aggregate: %w", err)
			}
		}

		if err := p.CheckInvariants(); err != nil {
			return summary, fmt.Errorf("after seq %d: %w", batch.To, err)
		}
		if r.checkpoint != nil {
			cp := Checkpoint{LastSeq: batch.To, Pool: p.Snapshot(), Ledger: l.Snapshot()}
			if err := r.checkpoint.Save(ctx, cp); err != nil {
				return summary, fmt.Errorf("save checkpoint: %w", err)
			}
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
			zap.Int("events", len(records)),
			zap.Int("failed", len(opErrors)),
		)
	}

	return r.finish(ctx, summary, p, agg)
}

// restore rebuilds the pool and ledger from the last checkpoint, or starts
// empty ones.
func (r *Runner) restore(ctx context.Context, observer pool.Observer) (*pool.Pool, *ledger.Memory, uint64, error) {
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load(ctx)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("load checkpoint: %w", err)
		}
		if ok {
			l, err := ledger.RestoreMemory(cp.Ledger)
			if err != nil {
				return nil, nil, 0, fmt.Errorf("restore ledger: %w", err)
			}
			p, err := pool.Restore(cp.Pool, l, observer, r.logger)
			if err != nil {
				return nil, nil, 0, fmt.Errorf("restore pool: %w", err)
			}
			asset1, asset2 := p.Assets()
			if p.Address() != r.cfg.Pool.Address || asset1 != r.cfg.Pool.Asset1 || asset2 != r.cfg.Pool.Asset2 {
				return nil, nil, 0, fmt.Errorf("checkpoint belongs to pool %s (%s/%s)", cp.Pool.Address, cp.Pool.Asset1, cp.Pool.Asset2)
			}
			r.logger.Info("resume from checkpoint", zap.Uint64("last_seq", cp.LastSeq), zap.String("updated_at", cp.UpdatedAt))
			return p, l, cp.LastSeq, nil
		}
	}

	l := ledger.NewMemory()
	p, err := pool.New(r.cfg.Pool, l, observer, r.logger)
	if err != nil {
		return nil, nil, 0, err
	}
	return p, l, 0, nil
}

func (r *Runner) writeBatch(ctx context.Context, records []model.LogRecord, opErrors []model.OperationError) error {
	if len(records) > 0 {
		err := withRetry(ctx, r.logger, "store observations", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			return r.storage.PutLogBatch(ctx, records)
		})
		if err != nil {
			return fmt.Errorf("store observations: %w", err)
		}
	}
	if len(opErrors) > 0 {
		err := withRetry(ctx, r.logger, "store operation errors", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			return r.errors.PutOperationErrors(ctx, opErrors)
		})
		if err != nil {
			return fmt.Errorf("store operation errors: %w", err)
		}
	}
	return nil
}

func (r *Runner) finish(ctx context.Context, summary Summary, p *pool.Pool, agg *aggregate.Aggregator) (Summary, error) {
	reserve1, reserve2 := p.Reserves()
	summary.Snapshot = p.Snapshot()
	summary.Metrics = agg.Metrics(reserve1, reserve2, p.TotalShares())

	r.logger.Info("replay complete",
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
		zap.Int("events", summary.Events),
		zap.String("reserve1", summary.Snapshot.Reserve1),
		zap.String("reserve2", summary.Snapshot.Reserve2),
		zap.String("total_shares", summary.Snapshot.TotalShares),
		zap.String("price", p.Price().Dec()),
		zap.String("price_precise", amm.FormatRat(p.PriceRat(), 18)),
	)
	for _, m := range summary.Metrics {
		r.logger.Info("pool metrics",
			zap.Time("window_start", m.WindowStart),
			zap.Uint64("swaps", m.SwapCount),
			zap.String("volume1", m.Volume1),
			zap.String("volume2", m.Volume2),
			zap.String("nominal_fee1", m.NominalFee1),
			zap.String("nominal_fee2", m.NominalFee2),
		)
	}

	if r.publisher == nil {
		return summary, nil
	}
	err := withRetry(ctx, r.logger, "publish pool state", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		return multierr.Combine(
			r.publisher.UpsertPoolSnapshot(ctx, summary.Snapshot),
			r.publisher.UpsertMetrics(ctx, summary.Metrics),
		)
	})
	if err != nil {
		return summary, fmt.Errorf("publish pool state: %w", err)
	}
	return summary, nil
}

func operationError(entry Entry, err error) model.OperationError {
	return model.OperationError{
		Seq:     entry.Seq,
		TxHash:  entry.Hash.Hex(),
		Op:      entry.Op.Op,
		Account: entry.Op.Account,
		Error:   err.Error(),
	}
}
