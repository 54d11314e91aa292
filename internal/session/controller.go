// Package session owns the authoritative game state. A [Controller] runs the
// idle → playing → won lifecycle and is the only component that mutates a
// card: manual marks, detected-speech marks, and resets all flow through it.
//
// Every operation is serialized behind a single mutex and returns an
// immutable [Snapshot]; callers never hold a reference into live state. The
// set of words already credited to speech detection is tracked on the
// controller and updated inside the same critical section as the fill, so
// two transcript events arriving back-to-back cannot credit the same word
// twice.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wrsmith108/bingo-demo/internal/category"
	"github.com/wrsmith108/bingo-demo/internal/detect"
	"github.com/wrsmith108/bingo-demo/internal/game"
)

// Status is the lifecycle state of a game session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
)

// Option is a functional option for [New]. Use these to inject test doubles.
type Option func(*Controller)

// WithClock replaces the wall clock used for fill and completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithOnChange registers a callback invoked with the new snapshot after
// every state-changing operation (no-ops do not fire it). The callback runs
// outside the controller lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller is the single owner of a GameSession. All methods are safe for
// concurrent use; mutations are serialized so at most one is in flight.
type Controller struct {
	categories *category.Registry
	now        func() time.Time
	onChange   func(Snapshot)

	mu          sync.Mutex
	status      Status
	category    category.Category
	card        *game.Card
	filledCount int
	startedAt   *time.Time
	completedAt *time.Time
	winningLine *game.WinningLine
	winningWord string

	// autoFilled tracks words already credited to speech detection during
	// the current playing session. Session-scoped: cleared on Start and
	// Reset, never persisted.
	autoFilled map[string]struct{}
}

// New creates a Controller in the idle state, drawing word pools from reg.
func New(reg *category.Registry, opts ...Option) *Controller {
	c := &Controller{
		categories: reg,
		now:        time.Now,
		status:     StatusIdle,
		autoFilled: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start generates a fresh card for categoryID and moves the session to
// playing. Structural failures — an unknown category or a pool too small to
// fill the grid — are returned to the caller; they indicate a configuration
// error, not a runtime race. Starting over an active session replaces it.
func (c *Controller) Start(categoryID string) (Snapshot, error) {
	cat, err := c.categories.Get(categoryID)
	if err != nil {
		return c.Snapshot(), fmt.Errorf("session: start: %w", err)
	}

	card, err := game.Generate(cat.Words)
	if err != nil {
		return c.Snapshot(), fmt.Errorf("session: start %q: %w", categoryID, err)
	}

	c.mu.Lock()
	now := c.now()
	c.status = StatusPlaying
	c.category = cat
	c.card = card
	c.filledCount = 1 // free space
	c.startedAt = &now
	c.completedAt = nil
	c.winningLine = nil
	c.winningWord = ""
	c.autoFilled = make(map[string]struct{})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	slog.Info("session started", "category", categoryID, "words", len(card.Words))
	c.publish(snap)
	return snap, nil
}

// FillManual toggles the square with the given ID on behalf of a direct user
// interaction. Incompatible states are silent no-ops returning the unchanged
// snapshot: no active card, session not playing, unknown square, or the free
// space.
//
// Toggle semantics are deliberately asymmetric: a manual click on a square
// that was filled manually unfills it, but a manual click on a square filled
// by speech detection leaves it filled.
func (c *Controller) FillManual(squareID string) Snapshot {
	c.mu.Lock()

	if c.card == nil || c.status != StatusPlaying {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	sq := c.card.SquareAt(squareID)
	if sq == nil || sq.FreeSpace {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	if sq.Filled {
		if sq.AutoFilled {
			// Speech-credited squares don't unfill on a manual click.
			snap := c.snapshotLocked()
			c.mu.Unlock()
			return snap
		}
		sq.Filled = false
		sq.AutoFilled = false
		sq.FilledAt = nil
		c.filledCount = game.CountFilled(c.card)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
		return snap
	}

	now := c.now()
	sq.Filled = true
	sq.AutoFilled = false
	sq.FilledAt = &now
	c.filledCount = game.CountFilled(c.card)
	c.declareWinLocked(sq.Word)

	snap := c.snapshotLocked()
	won := c.status == StatusWon
	c.mu.Unlock()

	if won {
		slog.Info("bingo", "word", snap.WinningWord, "line", snap.WinningLine.Type)
	}
	c.publish(snap)
	return snap
}

// ApplyTranscript runs word detection over a finalized transcript fragment
// and fills every newly detected square. No-op when no session is playing.
//
// Detected words are processed in detector output order. Each word is added
// to the session tracker before its square is located, so a word cannot be
// credited twice even across rapid successive calls; words whose square is
// already filled are skipped. Win evaluation runs after each individual fill
// so the earliest detected word completing a line is credited as the winning
// word, and remaining words in the batch are dropped once the session is won.
func (c *Controller) ApplyTranscript(text string) Snapshot {
	c.mu.Lock()

	if c.card == nil || c.status != StatusPlaying {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	// Exclusion set: everything already credited by the tracker plus every
	// currently filled non-free square.
	already := make(map[string]struct{}, len(c.autoFilled))
	for w := range c.autoFilled {
		already[w] = struct{}{}
	}
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := &c.card.Squares[row][col]
			if sq.Filled && !sq.FreeSpace {
				already[strings.ToLower(sq.Word)] = struct{}{}
			}
		}
	}

	detected := detect.Detect(text, c.card.Words, already)
	if len(detected) == 0 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	filled := 0
	for _, word := range detected {
		if c.status == StatusWon {
			break
		}

		// Credit the word before locating its square.
		c.autoFilled[strings.ToLower(word)] = struct{}{}

		sq := c.findUnfilledLocked(word)
		if sq == nil {
			continue
		}

		now := c.now()
		sq.Filled = true
		sq.AutoFilled = true
		sq.FilledAt = &now
		c.filledCount = game.CountFilled(c.card)
		filled++
		c.declareWinLocked(word)
	}

	snap := c.snapshotLocked()
	won := c.status == StatusWon
	c.mu.Unlock()

	if filled > 0 {
		slog.Debug("transcript fills applied", "detected", len(detected), "filled", filled)
		if won {
			slog.Info("bingo", "word", snap.WinningWord, "line", snap.WinningLine.Type)
		}
		c.publish(snap)
	}
	return snap
}

// Reset clears the session back to idle. Resetting an idle session is a
// no-op. Stale transcript events arriving after a reset fall through
// ApplyTranscript's status guard.
func (c *Controller) Reset() Snapshot {
	c.mu.Lock()
	if c.status == StatusIdle {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	c.status = StatusIdle
	c.category = category.Category{}
	c.card = nil
	c.filledCount = 0
	c.startedAt = nil
	c.completedAt = nil
	c.winningLine = nil
	c.winningWord = ""
	c.autoFilled = make(map[string]struct{})
	snap := c.snapshotLocked()
	c.mu.Unlock()

	slog.Info("session reset")
	c.publish(snap)
	return snap
}

// Snapshot returns the current immutable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Restore replaces the controller state with a previously persisted
// snapshot. Only playing and won sessions can be resumed; anything else is
// rejected. The auto-fill tracker is rebuilt from the card's speech-credited
// squares, and no listening state is ever restored — a resumed session has
// no live microphone to resume.
func (c *Controller) Restore(snap Snapshot) error {
	switch snap.Status {
	case StatusPlaying, StatusWon:
	default:
		return fmt.Errorf("session: cannot restore a session in status %q", snap.Status)
	}
	if snap.Card == nil {
		return fmt.Errorf("session: cannot restore a session without a card")
	}

	cat, err := c.categories.Get(snap.CategoryID)
	if err != nil {
		return fmt.Errorf("session: restore: %w", err)
	}

	c.mu.Lock()
	c.status = snap.Status
	c.category = cat
	c.card = snap.Card.Clone()
	c.filledCount = game.CountFilled(c.card)
	c.startedAt = snap.StartedAt
	c.completedAt = snap.CompletedAt
	c.winningLine = snap.WinningLine
	c.winningWord = snap.WinningWord

	c.autoFilled = make(map[string]struct{})
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := c.card.Squares[row][col]
			if sq.Filled && sq.AutoFilled {
				c.autoFilled[strings.ToLower(sq.Word)] = struct{}{}
			}
		}
	}
	restored := c.snapshotLocked()
	c.mu.Unlock()

	slog.Info("session restored", "status", snap.Status, "category", snap.CategoryID)
	c.publish(restored)
	return nil
}

// declareWinLocked re-evaluates the grid and, when a line is complete, moves
// the session to won crediting word. Caller holds c.mu.
func (c *Controller) declareWinLocked(word string) {
	line := game.CheckWin(c.card)
	if line == nil {
		return
	}
	now := c.now()
	c.status = StatusWon
	c.completedAt = &now
	c.winningLine = line
	c.winningWord = word
}

// findUnfilledLocked locates an unfilled square holding word
// (case-insensitive). Caller holds c.mu.
func (c *Controller) findUnfilledLocked(word string) *game.Square {
	for row := 0; row < game.Size; row++ {
		for col := 0; col < game.Size; col++ {
			sq := &c.card.Squares[row][col]
			if !sq.Filled && strings.EqualFold(sq.Word, word) {
				return sq
			}
		}
	}
	return nil
}

// publish delivers snap to the registered change callback, if any.
func (c *Controller) publish(snap Snapshot) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}
