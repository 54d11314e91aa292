package game

import "fmt"

// Diagonal display labels, matching arrow direction: index 0 runs top-left to
// bottom-right, index 1 top-right to bottom-left.
const (
	labelDiagDown = "Diagonal ↘"
	labelDiagUp   = "Diagonal ↙"
)

// line is one of the 12 evaluable lines, carrying its priority-order metadata.
type line struct {
	typ     LineType
	index   int
	label   string
	squares [Size]*Square
}

// lines returns all 12 lines in fixed priority order: rows 0–4, columns 0–4,
// then the descending and ascending diagonals. This order is the tie-break
// for both CheckWin and ClosestToWin.
func lines(c *Card) []line {
	out := make([]line, 0, 2*Size+2)

	for row := 0; row < Size; row++ {
		l := line{typ: LineRow, index: row, label: fmt.Sprintf("Row %d", row+1)}
		for col := 0; col < Size; col++ {
			l.squares[col] = &c.Squares[row][col]
		}
		out = append(out, l)
	}

	for col := 0; col < Size; col++ {
		l := line{typ: LineColumn, index: col, label: fmt.Sprintf("Column %d", col+1)}
		for row := 0; row < Size; row++ {
			l.squares[row] = &c.Squares[row][col]
		}
		out = append(out, l)
	}

	down := line{typ: LineDiagonal, index: 0, label: labelDiagDown}
	up := line{typ: LineDiagonal, index: 1, label: labelDiagUp}
	for i := 0; i < Size; i++ {
		down.squares[i] = &c.Squares[i][i]
		up.squares[i] = &c.Squares[i][Size-1-i]
	}
	out = append(out, down, up)

	return out
}

// filledCount returns how many of the line's squares are filled. The free
// space counts as filled like any other square.
func (l line) filledCount() int {
	n := 0
	for _, sq := range l.squares {
		if sq.Filled {
			n++
		}
	}
	return n
}

// ids returns the ordered square identifiers composing the line.
func (l line) ids() []string {
	out := make([]string, Size)
	for i, sq := range l.squares {
		out[i] = sq.ID
	}
	return out
}

// CheckWin returns the first fully-filled line under the fixed priority order
// (rows, then columns, then the two diagonals), or nil when no line is
// complete. The priority order decides the tie-break when a single fill
// completes several lines at once: a fill completing both a row and a column
// reports the row.
func CheckWin(c *Card) *WinningLine {
	for _, l := range lines(c) {
		if l.filledCount() == Size {
			return &WinningLine{Type: l.typ, Index: l.index, Squares: l.ids()}
		}
	}
	return nil
}

// CountFilled returns the total number of filled squares, 1–25 on any
// generated card since the free space is pre-filled.
func CountFilled(c *Card) int {
	n := 0
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if c.Squares[row][col].Filled {
				n++
			}
		}
	}
	return n
}

// Closest describes the line nearest to completion for UI hints.
type Closest struct {
	// Needed is how many more squares the line requires, always in [1,4].
	Needed int `json:"needed"`

	// Line is the display label, e.g. "Row 1", "Column 3", "Diagonal ↘".
	Line string `json:"line"`
}

// ClosestToWin returns the line with the smallest strictly-positive number of
// squares still needed; already-complete lines are excluded. Ties are broken
// by the same evaluation order as CheckWin. Returns nil only when no line has
// between 1 and 4 squares outstanding.
func ClosestToWin(c *Card) *Closest {
	best := Closest{Needed: Size}
	for _, l := range lines(c) {
		needed := Size - l.filledCount()
		if needed > 0 && needed < best.Needed {
			best = Closest{Needed: needed, Line: l.label}
		}
	}
	if best.Needed == Size {
		return nil
	}
	return &best
}
