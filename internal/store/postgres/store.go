package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wrsmith108/bingo-demo/internal/session"
)

// snapshotID keys the single persisted game row. The daemon runs one game at
// a time, so the snapshot table holds at most one row.
const snapshotID = "current"

// Store is the PostgreSQL-backed persistence layer. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the PostgreSQL database at dsn, verifies the
// connection, and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Ping probes the database, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all connections held by the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveSnapshot upserts the current game state. Idle snapshots are not worth
// persisting; callers should use ClearSnapshot instead when a game ends.
func (s *Store) SaveSnapshot(ctx context.Context, snap session.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("postgres: marshal snapshot: %w", err)
	}

	const q = `
		INSERT INTO game_snapshots (id, status, category_id, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    category_id = EXCLUDED.category_id,
		    snapshot = EXCLUDED.snapshot,
		    updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, snapshotID, string(snap.Status), snap.CategoryID, payload); err != nil {
		return fmt.Errorf("postgres: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted game state. The second return value is
// false when no snapshot is stored.
func (s *Store) LoadSnapshot(ctx context.Context) (session.Snapshot, bool, error) {
	const q = `SELECT snapshot FROM game_snapshots WHERE id = $1`

	var payload []byte
	err := s.pool.QueryRow(ctx, q, snapshotID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return session.Snapshot{}, false, nil
	}
	if err != nil {
		return session.Snapshot{}, false, fmt.Errorf("postgres: load snapshot: %w", err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return session.Snapshot{}, false, fmt.Errorf("postgres: unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// ClearSnapshot removes the persisted game state. Clearing an empty table is
// not an error.
func (s *Store) ClearSnapshot(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM game_snapshots WHERE id = $1`, snapshotID); err != nil {
		return fmt.Errorf("postgres: clear snapshot: %w", err)
	}
	return nil
}
