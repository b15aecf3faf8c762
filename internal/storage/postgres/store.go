package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xb1002/onchainLpV2/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS keeper_cycles (
	id            BIGSERIAL PRIMARY KEY,
	pool_address  TEXT        NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	state_before  TEXT        NOT NULL,
	state_after   TEXT        NOT NULL,
	position_id   TEXT,
	tick          INTEGER     NOT NULL,
	tick_lower    INTEGER,
	tick_upper    INTEGER,
	actions       TEXT[],
	tx_hashes     TEXT[],
	hedge         JSONB,
	error         TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS keeper_cycles_pool_started ON keeper_cycles (pool_address, started_at);
`

// Store provides Postgres persistence for the cycle journal.
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

// EnsureSchema creates the journal table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutCycle inserts one cycle record.
func (s *Store) PutCycle(ctx context.Context, rec model.CycleRecord) error {
	var hedge []byte
	if rec.Hedge != nil {
		encoded, err := json.Marshal(rec.Hedge)
		if err != nil {
			return fmt.Errorf("marshal hedge order: %w", err)
		}
		hedge = encoded
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO keeper_cycles (
			pool_address, started_at, finished_at, state_before, state_after,
			position_id, tick, tick_lower, tick_upper, actions, tx_hashes, hedge, error
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		rec.Pool,
		rec.StartedAt,
		rec.FinishedAt,
		rec.StateBefore,
		rec.StateAfter,
		nullString(rec.PositionID),
		rec.Tick,
		rec.TickLower,
		rec.TickUpper,
		rec.Actions,
		rec.TxHashes,
		hedge,
		nullString(rec.Error),
	)
	return err
}

// RecentCycles returns the last limit records, oldest first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]model.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT pool_address, started_at, finished_at, state_before, state_after,
			COALESCE(position_id, ''), tick, COALESCE(tick_lower, 0), COALESCE(tick_upper, 0),
			COALESCE(actions, '{}'), COALESCE(tx_hashes, '{}'), hedge, COALESCE(error, '')
		FROM (
			SELECT * FROM keeper_cycles ORDER BY started_at DESC, id DESC LIMIT $1
		) recent
		ORDER BY started_at, id
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CycleRecord, error) {
		var (
			rec   model.CycleRecord
			hedge []byte
		)
		if err := row.Scan(
			&rec.Pool,
			&rec.StartedAt,
			&rec.FinishedAt,
			&rec.StateBefore,
			&rec.StateAfter,
			&rec.PositionID,
			&rec.Tick,
			&rec.TickLower,
			&rec.TickUpper,
			&rec.Actions,
			&rec.TxHashes,
			&hedge,
			&rec.Error,
		); err != nil {
			return rec, err
		}
		if len(hedge) > 0 {
			rec.Hedge = new(model.HedgeOrder)
			if err := json.Unmarshal(hedge, rec.Hedge); err != nil {
				return rec, fmt.Errorf("decode hedge order: %w", err)
			}
		}
		return rec, nil
	})
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
