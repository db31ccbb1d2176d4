package housie

// DetectWinners scans the booked active tickets against the called numbers
// and appends any newly earned prizes. The scan is idempotent: a ticket never
// claims the same prize twice, existing winners are never removed, and a
// prize stops paying once its quota is filled. The game ends when the
// full-house quota is met, every enabled prize is claimed, or the pool
// runs dry.
func (g *Game) DetectWinners() []Winner {
	called := make(map[int]bool, len(g.Called))
	for _, n := range g.Called {
		called[n] = true
	}

	var fresh []Winner
	for i := 0; i < g.activeCount(); i++ {
		t := &g.Tickets[i]
		if t.Owner == "" {
			continue
		}

		marked := 0
		rowMarked := [rows]int{}
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if t.Grid[r][c] != 0 && called[t.Grid[r][c]] {
					marked++
					rowMarked[r]++
				}
			}
		}

		if marked >= 7 {
			fresh = g.award(fresh, PrizeEarlySeven, t)
		}
		if rowMarked[0] == cellsPerRow {
			fresh = g.award(fresh, PrizeTopLine, t)
		}
		if rowMarked[1] == cellsPerRow {
			fresh = g.award(fresh, PrizeMiddleLine, t)
		}
		if rowMarked[2] == cellsPerRow {
			fresh = g.award(fresh, PrizeBottomLine, t)
		}
		if marked == rows*cellsPerRow {
			fresh = g.award(fresh, PrizeFullHouse, t)
		}
	}

	if g.quotaFilled(PrizeFullHouse) || g.allPrizesClaimed() || len(g.Remaining) == 0 {
		g.Over = true
		g.AutoCalling = false
	}
	return fresh
}

// allPrizesClaimed reports whether every prize with a nonzero quota has
// been fully awarded. A quota of 0 disables a prize and does not count.
func (g *Game) allPrizesClaimed() bool {
	any := false
	for prize, quota := range g.Quotas {
		if quota <= 0 {
			continue
		}
		any = true
		if !g.quotaFilled(prize) {
			return false
		}
	}
	return any
}

// award appends a prize claim unless the ticket already holds it or the
// quota is exhausted.
func (g *Game) award(fresh []Winner, prize string, t *Ticket) []Winner {
	for _, w := range g.Winners {
		if w.Prize == prize && w.TicketID == t.ID {
			return fresh
		}
	}
	if g.quotaFilled(prize) {
		return fresh
	}
	w := Winner{Prize: prize, TicketID: t.ID, Owner: t.Owner, CallSeq: len(g.Called)}
	g.Winners = append(g.Winners, w)
	return append(fresh, w)
}

func (g *Game) quotaFilled(prize string) bool {
	quota, ok := g.Quotas[prize]
	if !ok {
		quota = 1
	}
	have := 0
	for _, w := range g.Winners {
		if w.Prize == prize {
			have++
		}
	}
	return have >= quota
}
