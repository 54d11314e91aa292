package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/wrsmith108/bingo-demo/internal/game"
)

// Snapshot is an immutable view of a session at one point in time. The card
// is a deep copy; mutating it does not affect the controller.
type Snapshot struct {
	Status       Status            `json:"status"`
	CategoryID   string            `json:"categoryId,omitempty"`
	CategoryName string            `json:"categoryName,omitempty"`
	Card         *game.Card        `json:"card,omitempty"`
	FilledCount  int               `json:"filledCount"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CompletedAt  *time.Time        `json:"completedAt,omitempty"`
	WinningLine  *game.WinningLine `json:"winningLine,omitempty"`
	WinningWord  string            `json:"winningWord,omitempty"`
}

// snapshotLocked builds a Snapshot from current state. Caller holds c.mu.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:       c.status,
		CategoryID:   c.category.ID,
		CategoryName: c.category.Name,
		FilledCount:  c.filledCount,
		StartedAt:    c.startedAt,
		CompletedAt:  c.completedAt,
		WinningLine:  c.winningLine,
		WinningWord:  c.winningWord,
	}
	if c.card != nil {
		snap.Card = c.card.Clone()
	}
	return snap
}

// Hint describes the line closest to completion, for surfacing in UIs.
type Hint struct {
	Needed int    `json:"needed"`
	Line   string `json:"line"`
}

// Hint returns the nearest incomplete line of the snapshot's card, or nil
// when there is no card or no line is within reach.
func (s Snapshot) Hint() *Hint {
	if s.Card == nil {
		return nil
	}
	closest := game.ClosestToWin(s.Card)
	if closest == nil {
		return nil
	}
	return &Hint{Needed: closest.Needed, Line: closest.Line}
}

// ShareText renders a plain-text result summary suitable for pasting into
// chat: an emoji grid of the card plus category, square count, and the
// winning line when the game is over. appURL, when non-empty, is appended as
// a play link.
func (s Snapshot) ShareText(appURL string) string {
	var b strings.Builder

	b.WriteString("Buzzword Bingo")
	if s.CategoryName != "" {
		fmt.Fprintf(&b, " — %s", s.CategoryName)
	}
	b.WriteString("\n")

	if s.Status == StatusWon && s.WinningLine != nil {
		fmt.Fprintf(&b, "BINGO! %s", lineDescription(s.WinningLine))
		if s.WinningWord != "" {
			fmt.Fprintf(&b, " on %q", s.WinningWord)
		}
		b.WriteString("\n")
	}

	if s.Card != nil {
		fmt.Fprintf(&b, "%d/%d squares\n\n", s.FilledCount, game.Size*game.Size)
		for row := 0; row < game.Size; row++ {
			for col := 0; col < game.Size; col++ {
				sq := s.Card.Squares[row][col]
				switch {
				case sq.FreeSpace:
					b.WriteString("⭐")
				case sq.Filled:
					b.WriteString("🟩")
				default:
					b.WriteString("⬜")
				}
			}
			b.WriteString("\n")
		}
	}

	if appURL != "" {
		fmt.Fprintf(&b, "\nPlay at %s", appURL)
	}
	return b.String()
}

func lineDescription(line *game.WinningLine) string {
	switch line.Type {
	case game.LineRow:
		return fmt.Sprintf("Row %d", line.Index+1)
	case game.LineColumn:
		return fmt.Sprintf("Column %d", line.Index+1)
	default:
		if line.Index == 0 {
			return "Diagonal ↘"
		}
		return "Diagonal ↙"
	}
}
