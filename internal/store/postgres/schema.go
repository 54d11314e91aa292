// Package postgres provides PostgreSQL-backed persistence for the bingo
// daemon: the active game snapshot (so a restart resumes the board instead
// of losing it), a log of completed games, and a searchable log of processed
// transcripts.
//
// All operations share a single [pgxpool.Pool]. [Migrate] is idempotent and
// runs on every start.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlGameSnapshots = `
CREATE TABLE IF NOT EXISTS game_snapshots (
    id           TEXT         PRIMARY KEY,
    status       TEXT         NOT NULL,
    category_id  TEXT         NOT NULL,
    snapshot     JSONB        NOT NULL,
    updated_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

const ddlCompletedGames = `
CREATE TABLE IF NOT EXISTS completed_games (
    id            BIGSERIAL    PRIMARY KEY,
    category_id   TEXT         NOT NULL,
    winning_word  TEXT         NOT NULL DEFAULT '',
    line_type     TEXT         NOT NULL DEFAULT '',
    filled_count  INT          NOT NULL DEFAULT 0,
    started_at    TIMESTAMPTZ,
    completed_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_completed_games_category
    ON completed_games (category_id);

CREATE INDEX IF NOT EXISTS idx_completed_games_completed_at
    ON completed_games (completed_at);
`

const ddlTranscriptLog = `
CREATE TABLE IF NOT EXISTS transcript_log (
    id              BIGSERIAL    PRIMARY KEY,
    text            TEXT         NOT NULL,
    detected_words  TEXT[]       NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transcript_log_created_at
    ON transcript_log (created_at);

CREATE INDEX IF NOT EXISTS idx_transcript_log_fts
    ON transcript_log USING GIN (to_tsvector('english', text));
`

// Migrate creates or ensures all required tables and indexes exist. It is
// idempotent and safe to call on every application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlGameSnapshots,
		ddlCompletedGames,
		ddlTranscriptLog,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
