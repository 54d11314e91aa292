package game

import (
	"errors"
	"fmt"
	"testing"
)

// testPool returns a pool of n distinct words.
func testPool(n int) []string {
	pool := make([]string, n)
	for i := range pool {
		pool[i] = fmt.Sprintf("word-%02d", i)
	}
	return pool
}

// fill marks the square at (row, col) as filled.
func fill(c *Card, row, col int) {
	c.Squares[row][col].Filled = true
}

func TestGenerate_PoolTooSmall(t *testing.T) {
	t.Parallel()

	_, err := Generate(testPool(23))
	if !errors.Is(err, ErrPoolTooSmall) {
		t.Fatalf("got err = %v, want ErrPoolTooSmall", err)
	}
}

func TestGenerate_CardShape(t *testing.T) {
	t.Parallel()

	pool := testPool(40)
	card, err := Generate(pool)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	poolSet := make(map[string]struct{}, len(pool))
	for _, w := range pool {
		poolSet[w] = struct{}{}
	}

	seen := make(map[string]struct{})
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			sq := card.Squares[row][col]
			if sq.ID != SquareID(row, col) {
				t.Errorf("square (%d,%d): ID = %q", row, col, sq.ID)
			}
			if sq.Row != row || sq.Col != col {
				t.Errorf("square (%d,%d): coords (%d,%d)", row, col, sq.Row, sq.Col)
			}

			if row == FreeRow && col == FreeCol {
				if !sq.FreeSpace || !sq.Filled || sq.AutoFilled {
					t.Errorf("free space: %+v", sq)
				}
				if sq.Word != "" {
					t.Errorf("free space carries word %q", sq.Word)
				}
				continue
			}

			if sq.FreeSpace {
				t.Errorf("square (%d,%d) marked free space", row, col)
			}
			if sq.Filled || sq.AutoFilled || sq.FilledAt != nil {
				t.Errorf("square (%d,%d) not pristine: %+v", row, col, sq)
			}
			if _, inPool := poolSet[sq.Word]; !inPool {
				t.Errorf("word %q not drawn from pool", sq.Word)
			}
			if _, dup := seen[sq.Word]; dup {
				t.Errorf("word %q placed twice", sq.Word)
			}
			seen[sq.Word] = struct{}{}
		}
	}

	if len(card.Words) != WordCount {
		t.Fatalf("len(Words) = %d, want %d", len(card.Words), WordCount)
	}
	for _, w := range card.Words {
		if _, ok := seen[w]; !ok {
			t.Errorf("Words contains %q which is not on the grid", w)
		}
	}
}

func TestGenerate_ExactPool(t *testing.T) {
	t.Parallel()

	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatalf("Generate with 24 words: %v", err)
	}
	if len(card.Words) != 24 {
		t.Fatalf("len(Words) = %d", len(card.Words))
	}
}

func TestCountFilled_FreshCard(t *testing.T) {
	t.Parallel()

	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatal(err)
	}
	if got := CountFilled(card); got != 1 {
		t.Errorf("CountFilled on fresh card = %d, want 1", got)
	}
}

func TestCountFilled_FirstRow(t *testing.T) {
	t.Parallel()

	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatal(err)
	}
	for col := 0; col < Size; col++ {
		fill(card, 0, col)
	}
	// Row 0 plus the free space in row 2.
	if got := CountFilled(card); got != 6 {
		t.Errorf("CountFilled = %d, want 6", got)
	}
}

func TestCheckWin_NoWin(t *testing.T) {
	t.Parallel()

	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatal(err)
	}
	if win := CheckWin(card); win != nil {
		t.Errorf("fresh card reports win %+v", win)
	}

	// Four of five in a row is still no win.
	for col := 0; col < 4; col++ {
		fill(card, 0, col)
	}
	if win := CheckWin(card); win != nil {
		t.Errorf("partial row reports win %+v", win)
	}
}

func TestCheckWin_Lines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cells     [][2]int
		wantType  LineType
		wantIndex int
	}{
		{
			name:      "row 0",
			cells:     [][2]int{{0, 0}, {0, 1}, {0, 2}, {0, 3}, {0, 4}},
			wantType:  LineRow,
			wantIndex: 0,
		},
		{
			name:      "row through free space",
			cells:     [][2]int{{2, 0}, {2, 1}, {2, 3}, {2, 4}},
			wantType:  LineRow,
			wantIndex: 2,
		},
		{
			name:      "column 3",
			cells:     [][2]int{{0, 3}, {1, 3}, {2, 3}, {3, 3}, {4, 3}},
			wantType:  LineColumn,
			wantIndex: 3,
		},
		{
			name:      "descending diagonal",
			cells:     [][2]int{{0, 0}, {1, 1}, {3, 3}, {4, 4}},
			wantType:  LineDiagonal,
			wantIndex: 0,
		},
		{
			name:      "ascending diagonal",
			cells:     [][2]int{{0, 4}, {1, 3}, {3, 1}, {4, 0}},
			wantType:  LineDiagonal,
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			card, err := Generate(testPool(24))
			if err != nil {
				t.Fatal(err)
			}
			for _, cell := range tt.cells {
				fill(card, cell[0], cell[1])
			}

			win := CheckWin(card)
			if win == nil {
				t.Fatal("CheckWin = nil, want a winning line")
			}
			if win.Type != tt.wantType || win.Index != tt.wantIndex {
				t.Errorf("got {%s %d}, want {%s %d}", win.Type, win.Index, tt.wantType, tt.wantIndex)
			}
			if len(win.Squares) != Size {
				t.Errorf("winning line has %d squares", len(win.Squares))
			}
		})
	}
}

func TestCheckWin_PriorityOrder(t *testing.T) {
	t.Parallel()

	// Row 0 and column 0 complete simultaneously, sharing (0,0): the row
	// wins the tie-break.
	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < Size; i++ {
		fill(card, 0, i)
		fill(card, i, 0)
	}

	win := CheckWin(card)
	if win == nil {
		t.Fatal("CheckWin = nil")
	}
	if win.Type != LineRow || win.Index != 0 {
		t.Errorf("got {%s %d}, want {row 0}", win.Type, win.Index)
	}
}

func TestClosestToWin(t *testing.T) {
	t.Parallel()

	t.Run("one square missing", func(t *testing.T) {
		t.Parallel()

		card, err := Generate(testPool(24))
		if err != nil {
			t.Fatal(err)
		}
		for col := 0; col < 4; col++ {
			fill(card, 0, col)
		}

		got := ClosestToWin(card)
		if got == nil {
			t.Fatal("ClosestToWin = nil")
		}
		if got.Needed != 1 || got.Line != "Row 1" {
			t.Errorf("got %+v, want {1 Row 1}", got)
		}
	})

	t.Run("fresh card favours the free space lines", func(t *testing.T) {
		t.Parallel()

		card, err := Generate(testPool(24))
		if err != nil {
			t.Fatal(err)
		}

		// Only the free space is filled: row 3 is the first line with
		// needed=4 under evaluation order.
		got := ClosestToWin(card)
		if got == nil {
			t.Fatal("ClosestToWin = nil")
		}
		if got.Needed != 4 || got.Line != "Row 3" {
			t.Errorf("got %+v, want {4 Row 3}", got)
		}
	})

	t.Run("won line excluded", func(t *testing.T) {
		t.Parallel()

		card, err := Generate(testPool(24))
		if err != nil {
			t.Fatal(err)
		}
		for col := 0; col < Size; col++ {
			fill(card, 0, col)
		}
		fill(card, 1, 0)
		fill(card, 1, 1)

		got := ClosestToWin(card)
		if got == nil {
			t.Fatal("ClosestToWin = nil")
		}
		if got.Line == "Row 1" {
			t.Errorf("completed line returned as closest: %+v", got)
		}
		// Row 2 has two filled, column 1 has two filled (0,1)+(1,1)... the
		// nearest is needed=3 via row 2 under evaluation order.
		if got.Needed != 3 || got.Line != "Row 2" {
			t.Errorf("got %+v, want {3 Row 2}", got)
		}
	})

	t.Run("ties broken by evaluation order", func(t *testing.T) {
		t.Parallel()

		card, err := Generate(testPool(24))
		if err != nil {
			t.Fatal(err)
		}
		// Column 4 and row 4 both at needed=3; rows evaluate first.
		fill(card, 4, 0)
		fill(card, 4, 1)
		fill(card, 0, 4)
		fill(card, 1, 4)

		got := ClosestToWin(card)
		if got == nil {
			t.Fatal("ClosestToWin = nil")
		}
		if got.Needed != 3 || got.Line != "Row 5" {
			t.Errorf("got %+v, want {3 Row 5}", got)
		}
	})
}

func TestSquareAt(t *testing.T) {
	t.Parallel()

	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"0-0", true},
		{"4-4", true},
		{"2-2", true},
		{"5-0", false},
		{"0-5", false},
		{"-1-0", false},
		{"banana", false},
		{"", false},
	}
	for _, tt := range tests {
		got := card.SquareAt(tt.id)
		if (got != nil) != tt.want {
			t.Errorf("SquareAt(%q) = %v, want present=%v", tt.id, got, tt.want)
		}
	}
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	card, err := Generate(testPool(24))
	if err != nil {
		t.Fatal(err)
	}
	dup := card.Clone()

	fill(dup, 0, 0)
	dup.Words[0] = "mutated"

	if card.Squares[0][0].Filled {
		t.Error("clone shares square state with original")
	}
	if card.Words[0] == "mutated" {
		t.Error("clone shares word slice with original")
	}
}
