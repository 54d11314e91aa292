package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wrsmith108/bingo-demo/internal/session"
)

// CompletedGame is one row of the finished-games log.
type CompletedGame struct {
	ID          int64      `json:"id"`
	CategoryID  string     `json:"categoryId"`
	WinningWord string     `json:"winningWord"`
	LineType    string     `json:"lineType"`
	FilledCount int        `json:"filledCount"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt time.Time  `json:"completedAt"`
}

// RecordCompletedGame appends a won game to the log. Snapshots that are not
// in the won state are rejected.
func (s *Store) RecordCompletedGame(ctx context.Context, snap session.Snapshot) error {
	if snap.Status != session.StatusWon {
		return fmt.Errorf("postgres: cannot record a game in status %q", snap.Status)
	}

	lineType := ""
	if snap.WinningLine != nil {
		lineType = string(snap.WinningLine.Type)
	}
	completedAt := time.Now()
	if snap.CompletedAt != nil {
		completedAt = *snap.CompletedAt
	}

	const q = `
		INSERT INTO completed_games
		    (category_id, winning_word, line_type, filled_count, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q,
		snap.CategoryID,
		snap.WinningWord,
		lineType,
		snap.FilledCount,
		snap.StartedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: record completed game: %w", err)
	}
	return nil
}

// CompletedGames returns the most recent finished games, newest first.
// limit <= 0 defaults to 50.
func (s *Store) CompletedGames(ctx context.Context, limit int) ([]CompletedGame, error) {
	if limit <= 0 {
		limit = 50
	}

	const q = `
		SELECT id, category_id, winning_word, line_type, filled_count, started_at, completed_at
		FROM   completed_games
		ORDER  BY completed_at DESC
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list completed games: %w", err)
	}

	games, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CompletedGame, error) {
		var g CompletedGame
		err := row.Scan(&g.ID, &g.CategoryID, &g.WinningWord, &g.LineType, &g.FilledCount, &g.StartedAt, &g.CompletedAt)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan completed games: %w", err)
	}
	return games, nil
}
