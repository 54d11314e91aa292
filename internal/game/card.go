package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrPoolTooSmall is returned by [Generate] when the word pool cannot fill
// the 24 non-free squares.
var ErrPoolTooSmall = errors.New("game: word pool has fewer than 24 entries")

// Generate draws 24 distinct words uniformly at random from pool and lays
// them out row-major across the grid, skipping the centre cell. The centre
// becomes the free space: pre-filled, never auto-filled.
//
// The pool is not mutated. Pool entries are assumed distinct (the category
// registry validates this); sampling without replacement then guarantees the
// 24 placed words are pairwise distinct.
func Generate(pool []string) (*Card, error) {
	if len(pool) < WordCount {
		return nil, fmt.Errorf("%w: got %d", ErrPoolTooSmall, len(pool))
	}

	// Shuffle a copy and take the prefix: unbiased sampling without
	// replacement.
	drawn := make([]string, len(pool))
	copy(drawn, pool)
	rand.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})
	drawn = drawn[:WordCount]

	card := &Card{Words: drawn}

	next := 0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			sq := Square{
				ID:  SquareID(row, col),
				Row: row,
				Col: col,
			}
			if row == FreeRow && col == FreeCol {
				sq.FreeSpace = true
				sq.Filled = true
			} else {
				sq.Word = drawn[next]
				next++
			}
			card.Squares[row][col] = sq
		}
	}

	return card, nil
}
