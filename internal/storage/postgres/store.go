package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityPool/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for pool events, snapshots, metrics
// and replay progress.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutLogBatch inserts encoded observations. Records already stored under the
// same (pool, seq, log index) are left untouched so replays are idempotent.
func (s *Store) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		topic0 := ""
		if len(log.Topics) > 0 {
			topic0 = log.Topics[0]
		}
		batch.Queue(`
			INSERT INTO pool_events (
				pool_address, seq, log_index, tx_hash, topic0, topics, data, ts, recorded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (pool_address, seq, log_index) DO NOTHING
		`,
			log.Address,
			int64(log.Seq),
			int64(log.LogIndex),
			log.TxHash,
			topic0,
			log.Topics,
			log.Data,
			int64(log.Timestamp),
			log.RecordedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range logs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPoolSnapshot inserts or replaces the latest state of a pool.
func (s *Store) UpsertPoolSnapshot(ctx context.Context, snap model.PoolSnapshot) error {
	shares, err := json.Marshal(snap.Shares)
	if err != nil {
		return fmt.Errorf("marshal shares: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			pool_address, asset1, asset2, reserve1, reserve2, total_shares, shares, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7, now())
		ON CONFLICT (pool_address)
		DO UPDATE SET
			asset1 = EXCLUDED.asset1,
			asset2 = EXCLUDED.asset2,
			reserve1 = EXCLUDED.reserve1,
			reserve2 = EXCLUDED.reserve2,
			total_shares = EXCLUDED.total_shares,
			shares = EXCLUDED.shares,
			updated_at = now()
	`,
		snap.Address,
		snap.Asset1,
		snap.Asset2,
		snap.Reserve1,
		snap.Reserve2,
		snap.TotalShares,
		shares,
	)
	return err
}

// UpsertMetrics inserts or updates pool metrics windows.
func (s *Store) UpsertMetrics(ctx context.Context, metrics []model.PoolMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_metrics (
				pool_address, window_start_ts, window_end_ts,
				swap_count, provide_count, withdraw_count,
				volume1, volume2, nominal_fee1, nominal_fee2, fee_rate1, fee_rate2,
				reserve1, reserve2, total_shares, price, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::numeric,$8::numeric,$9::numeric,$10::numeric,$11,$12,
				$13::numeric,$14::numeric,$15::numeric,$16,now(),now())
			ON CONFLICT (pool_address, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				provide_count = EXCLUDED.provide_count,
				withdraw_count = EXCLUDED.withdraw_count,
				volume1 = EXCLUDED.volume1,
				volume2 = EXCLUDED.volume2,
				nominal_fee1 = EXCLUDED.nominal_fee1,
				nominal_fee2 = EXCLUDED.nominal_fee2,
				fee_rate1 = EXCLUDED.fee_rate1,
				fee_rate2 = EXCLUDED.fee_rate2,
				reserve1 = EXCLUDED.reserve1,
				reserve2 = EXCLUDED.reserve2,
				total_shares = EXCLUDED.total_shares,
				price = EXCLUDED.price,
				updated_at = now()
		`,
			m.PoolAddress,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.ProvideCount),
			int64(m.WithdrawCount),
			m.Volume1,
			m.Volume2,
			m.NominalFee1,
			m.NominalFee2,
			m.FeeRate1,
			m.FeeRate2,
			m.Reserve1,
			m.Reserve2,
			m.TotalShares,
			m.Price,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed sequence and its JSON payload for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, []byte, bool, error) {
	if name == "" {
		return 0, nil, false, fmt.Errorf("state name required")
	}
	var (
		seq     int64
		payload []byte
	)
	row := s.pool.QueryRow(ctx, `SELECT last_seq, payload FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&seq, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	return uint64(seq), payload, true, nil
}

// SaveState upserts the last processed sequence and payload for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64, payload []byte) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_seq, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE
		SET last_seq = EXCLUDED.last_seq, payload = EXCLUDED.payload, updated_at = now()
	`, name, int64(seq), payload)
	return err
}
