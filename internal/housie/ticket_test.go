package housie

import (
	"testing"

	"github.com/khelghar/gametable/internal/randutil"
)

func TestGeneratedTicketsSatisfyLayoutRules(t *testing.T) {
	for seed := int64(0); seed < 200; seed++ {
		rng := randutil.New(seed)
		tk := GenerateTicket(1, rng)
		assertTicketValid(t, tk)
	}
}

func TestFallbackLayoutIsValid(t *testing.T) {
	if !layoutValid(fallbackLayout) {
		t.Fatal("fallback layout violates its own constraints")
	}
}

func TestTicketNumbersDistinct(t *testing.T) {
	rng := randutil.New(7)
	tk := GenerateTicket(1, rng)
	seen := map[int]bool{}
	for _, n := range tk.Numbers() {
		if seen[n] {
			t.Fatalf("number %d printed twice", n)
		}
		seen[n] = true
	}
	if len(seen) != 15 {
		t.Fatalf("expected 15 numbers, got %d", len(seen))
	}
}

func TestTicketGenerationDeterministicPerSeed(t *testing.T) {
	a := GenerateTicket(1, randutil.New(42))
	b := GenerateTicket(1, randutil.New(42))
	if a.Grid != b.Grid {
		t.Fatal("same seed produced different tickets")
	}
}

func TestRowNumbersListsOnlyThatRow(t *testing.T) {
	rng := randutil.New(3)
	tk := GenerateTicket(1, rng)
	for r := 0; r < rows; r++ {
		got := tk.RowNumbers(r)
		if len(got) != cellsPerRow {
			t.Fatalf("row %d: expected %d numbers, got %d", r, cellsPerRow, len(got))
		}
	}
}

func assertTicketValid(t *testing.T, tk Ticket) {
	t.Helper()

	for r := 0; r < rows; r++ {
		filled := 0
		for c := 0; c < cols; c++ {
			if tk.Grid[r][c] != 0 {
				filled++
			}
		}
		if filled != cellsPerRow {
			t.Fatalf("row %d has %d numbers, want %d", r, filled, cellsPerRow)
		}
	}

	for c := 0; c < cols; c++ {
		lo := c*10 + 1
		hi := c*10 + 10
		if c == cols-1 {
			hi = TotalNumbers
		}

		filled := 0
		prev := 0
		for r := 0; r < rows; r++ {
			v := tk.Grid[r][c]
			if v == 0 {
				continue
			}
			filled++
			if v < lo || v > hi {
				t.Fatalf("column %d value %d outside [%d,%d]", c, v, lo, hi)
			}
			if prev != 0 && v <= prev {
				t.Fatalf("column %d not ascending: %d then %d", c, prev, v)
			}
			prev = v
		}
		if filled == 0 || filled > 2 {
			t.Fatalf("column %d has %d numbers, want 1 or 2", c, filled)
		}
	}

	for r := 0; r+1 < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			if tk.Grid[r][c] == 0 && tk.Grid[r][c+1] == 0 &&
				tk.Grid[r+1][c] == 0 && tk.Grid[r+1][c+1] == 0 {
				t.Fatalf("blank 2x2 block at row %d col %d", r, c)
			}
		}
	}
}
