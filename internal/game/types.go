// Package game implements the deterministic bingo core: card generation,
// win detection over the 5×5 grid, and the closest-to-win hint.
//
// All functions in this package are pure — they read a [Card]'s fill state
// and never mutate it. The stateful game lifecycle (starting sessions,
// filling squares, declaring wins) lives in internal/session.
package game

import (
	"fmt"
	"time"
)

// Size is the side length of the bingo grid.
const Size = 5

// FreeRow and FreeCol locate the fixed free space at the grid centre.
const (
	FreeRow = 2
	FreeCol = 2
)

// WordCount is the number of words drawn onto a card: every cell except the
// free space.
const WordCount = Size*Size - 1

// Square is a single cell of a bingo card.
type Square struct {
	// ID is the stable "row-col" identifier, e.g. "2-3".
	ID string `json:"id"`

	// Word is the buzzword this square represents. Empty for the free space.
	Word string `json:"word"`

	// Row and Col are the zero-based grid coordinates, both in [0,4].
	Row int `json:"row"`
	Col int `json:"col"`

	// Filled reports whether the square has been marked.
	Filled bool `json:"filled"`

	// AutoFilled is true only when the square was filled by speech
	// detection rather than a manual mark.
	AutoFilled bool `json:"autoFilled"`

	// FreeSpace is true only for the centre square, which is always filled.
	FreeSpace bool `json:"freeSpace"`

	// FilledAt records when the square transitioned to filled. Nil while
	// the square is unfilled.
	FilledAt *time.Time `json:"filledAt,omitempty"`
}

// Card is a 5×5 grid of squares plus the flat word list used for detection.
// A Card is owned by exactly one session; callers outside internal/session
// only ever see copies.
type Card struct {
	Squares [Size][Size]Square `json:"squares"`

	// Words holds the 24 non-free-space words in placement order. Order is
	// irrelevant for matching but stable for reproducibility.
	Words []string `json:"words"`
}

// SquareID formats the canonical identifier for the square at (row, col).
func SquareID(row, col int) string {
	return fmt.Sprintf("%d-%d", row, col)
}

// SquareAt returns a pointer to the square with the given ID, or nil when the
// ID does not parse or is out of range.
func (c *Card) SquareAt(id string) *Square {
	var row, col int
	if _, err := fmt.Sscanf(id, "%d-%d", &row, &col); err != nil {
		return nil
	}
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return nil
	}
	return &c.Squares[row][col]
}

// Clone returns a deep copy of the card. The square grid is an array and
// copies by value; only the word slice needs duplicating.
func (c *Card) Clone() *Card {
	dup := *c
	dup.Words = make([]string, len(c.Words))
	copy(dup.Words, c.Words)
	return &dup
}

// LineType distinguishes the three kinds of winning line.
type LineType string

const (
	LineRow      LineType = "row"
	LineColumn   LineType = "column"
	LineDiagonal LineType = "diagonal"
)

// WinningLine identifies a fully-filled line on the card. Index is 0–4 for
// rows and columns and 0–1 for the two diagonal orientations (0 = top-left to
// bottom-right). Immutable once computed.
type WinningLine struct {
	Type    LineType `json:"type"`
	Index   int      `json:"index"`
	Squares []string `json:"squares"`
}
