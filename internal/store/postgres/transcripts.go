package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// TranscriptEntry is one row of the transcript log.
type TranscriptEntry struct {
	ID            int64     `json:"id"`
	Text          string    `json:"text"`
	DetectedWords []string  `json:"detectedWords"`
	CreatedAt     time.Time `json:"createdAt"`
}

// WriteTranscript appends a processed final transcript and the words
// detection credited from it.
func (s *Store) WriteTranscript(ctx context.Context, text string, detected []string) error {
	if detected == nil {
		detected = []string{}
	}
	const q = `INSERT INTO transcript_log (text, detected_words) VALUES ($1, $2)`
	if _, err := s.pool.Exec(ctx, q, text, detected); err != nil {
		return fmt.Errorf("postgres: write transcript: %w", err)
	}
	return nil
}

// RecentTranscripts returns the latest transcript entries, newest first.
// limit <= 0 defaults to 20.
func (s *Store) RecentTranscripts(ctx context.Context, limit int) ([]TranscriptEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
		SELECT id, text, detected_words, created_at
		FROM   transcript_log
		ORDER  BY created_at DESC
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent transcripts: %w", err)
	}
	return collectTranscripts(rows)
}

// SearchTranscripts runs a full-text search over the transcript log. The
// query goes through plainto_tsquery, so no operator syntax is needed.
func (s *Store) SearchTranscripts(ctx context.Context, query string, limit int) ([]TranscriptEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
		SELECT id, text, detected_words, created_at
		FROM   transcript_log
		WHERE  to_tsvector('english', text) @@ plainto_tsquery('english', $1)
		ORDER  BY created_at DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: search transcripts: %w", err)
	}
	return collectTranscripts(rows)
}

func collectTranscripts(rows pgx.Rows) ([]TranscriptEntry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TranscriptEntry, error) {
		var e TranscriptEntry
		err := row.Scan(&e.ID, &e.Text, &e.DetectedWords, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan transcripts: %w", err)
	}
	return entries, nil
}
