// Package housie implements the 90-ball number-calling game: ticket
// generation, the calling lifecycle, and incremental winner detection.
package housie

import (
	rand "math/rand/v2"
)

const (
	// TotalNumbers is the size of the calling pool.
	TotalNumbers = 90

	rows = 3
	cols = 9

	cellsPerRow = 5

	// layoutAttempts bounds the random layout search before the static
	// fallback is used, so generation can never hang.
	layoutAttempts = 200
)

// Ticket is one 3x9 housie ticket. Grid cells hold the printed number, 0
// for a blank. Owner is empty until the ticket is booked.
type Ticket struct {
	ID    int             `json:"id"`
	Grid  [rows][cols]int `json:"grid"`
	Owner string          `json:"owner,omitempty"`
}

// Numbers returns the 15 printed numbers of the ticket.
func (t Ticket) Numbers() []int {
	out := make([]int, 0, rows*cellsPerRow)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if t.Grid[r][c] != 0 {
				out = append(out, t.Grid[r][c])
			}
		}
	}
	return out
}

// RowNumbers returns the printed numbers of one row.
func (t Ticket) RowNumbers(row int) []int {
	out := make([]int, 0, cellsPerRow)
	for c := 0; c < cols; c++ {
		if t.Grid[row][c] != 0 {
			out = append(out, t.Grid[row][c])
		}
	}
	return out
}

// fallbackLayout is a known-valid fill pattern used when the random search
// exhausts its attempt budget.
var fallbackLayout = [rows][cols]bool{
	{true, true, false, true, false, true, false, true, false},
	{false, true, true, false, true, false, true, false, true},
	{true, false, true, true, false, true, false, false, true},
}

// GenerateTicket produces a ticket satisfying the standard constraints:
// five numbers per row, one or two per column, no 2x2 all-blank block,
// column c drawing from its decade [10c+1, 10c+10] (the last column runs to
// 90), ascending top to bottom within a column.
func GenerateTicket(id int, rng *rand.Rand) Ticket {
	layout, ok := searchLayout(rng)
	if !ok {
		layout = fallbackLayout
	}

	var t Ticket
	t.ID = id
	for c := 0; c < cols; c++ {
		lo := c*10 + 1
		hi := c*10 + 10
		if c == cols-1 {
			hi = TotalNumbers
		}

		need := 0
		for r := 0; r < rows; r++ {
			if layout[r][c] {
				need++
			}
		}

		picked := pickSortedDistinct(rng, lo, hi, need)
		i := 0
		for r := 0; r < rows; r++ {
			if layout[r][c] {
				t.Grid[r][c] = picked[i]
				i++
			}
		}
	}
	return t
}

// searchLayout composes three independent row patterns and rejects the
// combination until the column and blank-block constraints hold. The
// attempt budget guarantees termination.
func searchLayout(rng *rand.Rand) ([rows][cols]bool, bool) {
	for attempt := 0; attempt < layoutAttempts; attempt++ {
		var layout [rows][cols]bool
		for r := 0; r < rows; r++ {
			layout[r] = rowPattern(rng)
		}
		if layoutValid(layout) {
			return layout, true
		}
	}
	return [rows][cols]bool{}, false
}

// rowPattern shuffles five filled cells into nine positions, rejecting
// patterns with three identical consecutive values to spread fills out.
func rowPattern(rng *rand.Rand) [cols]bool {
	for {
		var row [cols]bool
		for i := 0; i < cellsPerRow; i++ {
			row[i] = true
		}
		for i := cols - 1; i > 0; i-- {
			j := rng.IntN(i + 1)
			row[i], row[j] = row[j], row[i]
		}

		runby3 := false
		for i := 0; i+2 < cols; i++ {
			if row[i] == row[i+1] && row[i+1] == row[i+2] {
				runby3 = true
				break
			}
		}
		if !runby3 {
			return row
		}
	}
}

func layoutValid(layout [rows][cols]bool) bool {
	// Every column carries one or two numbers, never zero or three.
	for c := 0; c < cols; c++ {
		sum := 0
		for r := 0; r < rows; r++ {
			if layout[r][c] {
				sum++
			}
		}
		if sum == 0 || sum == 3 {
			return false
		}
	}

	// No 2x2 window of four blanks anywhere.
	for r := 0; r+1 < rows; r++ {
		for c := 0; c+1 < cols; c++ {
			if !layout[r][c] && !layout[r][c+1] && !layout[r+1][c] && !layout[r+1][c+1] {
				return false
			}
		}
	}
	return true
}

// pickSortedDistinct draws n distinct values from [lo, hi] in ascending
// order.
func pickSortedDistinct(rng *rand.Rand, lo, hi, n int) []int {
	pool := make([]int, 0, hi-lo+1)
	for v := lo; v <= hi; v++ {
		pool = append(pool, v)
	}
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	picked := pool[:n]

	// Insertion sort; n is at most 3.
	for i := 1; i < len(picked); i++ {
		for j := i; j > 0 && picked[j] < picked[j-1]; j-- {
			picked[j], picked[j-1] = picked[j-1], picked[j]
		}
	}
	return picked
}
