package housie

import (
	"reflect"
	"testing"
	"time"

	"github.com/khelghar/gametable/internal/randutil"
)

func newTestGame(t *testing.T, seed int64, tickets int) *Game {
	t.Helper()
	return NewGame(Config{Tickets: tickets, TicketLimit: 2}, randutil.New(seed))
}

func TestCallNextCoversPoolWithoutRepeats(t *testing.T) {
	g := newTestGame(t, 1, 2)
	seen := map[int]bool{}
	for {
		n, ok := g.CallNext(time.Now())
		if !ok {
			break
		}
		if n < 1 || n > TotalNumbers {
			t.Fatalf("called %d outside pool", n)
		}
		if seen[n] {
			t.Fatalf("number %d called twice", n)
		}
		seen[n] = true
	}
	if len(seen) != TotalNumbers && !g.Over {
		t.Fatalf("calling stopped after %d numbers with game not over", len(seen))
	}
}

func TestCurrentAndPreviousTrackCalls(t *testing.T) {
	g := newTestGame(t, 14, 1)
	if g.Current() != 0 || g.Previous() != 0 {
		t.Fatal("fresh game reports calls")
	}

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	first, _ := g.CallNext(at)
	if g.Current() != first || g.Previous() != 0 {
		t.Fatalf("after one call: current %d previous %d", g.Current(), g.Previous())
	}
	second, _ := g.CallNext(at.Add(8 * time.Second))
	if g.Current() != second || g.Previous() != first {
		t.Fatalf("after two calls: current %d previous %d", g.Current(), g.Previous())
	}
	if !g.LastCall.Equal(at.Add(8 * time.Second)) {
		t.Fatalf("lastCall not updated: %v", g.LastCall)
	}

	g.Reset(randutil.New(14))
	if !g.LastCall.IsZero() {
		t.Fatal("reset kept lastCall")
	}
}

func TestAllPrizesClaimedEndsGame(t *testing.T) {
	g := NewGame(Config{Tickets: 1, PrizeQuotas: map[string]int{
		PrizeEarlySeven: 1,
	}}, randutil.New(15))
	g.Book(1, "ravi")

	g.Called = g.Tickets[0].Numbers()[:7]
	g.DetectWinners()
	if !g.Over {
		t.Fatal("only enabled prize claimed but game not over")
	}
}

func TestBookingRules(t *testing.T) {
	g := newTestGame(t, 2, 4)

	if !g.Book(1, "ravi") {
		t.Fatal("booking a free ticket failed")
	}
	if g.Book(1, "meera") {
		t.Fatal("double-booked a ticket")
	}
	if g.Book(2, "") {
		t.Fatal("booked with empty owner")
	}

	// Only the first TicketLimit tickets are active and sellable.
	if g.Book(3, "meera") {
		t.Fatal("booked outside the active window")
	}
	if g.Book(4, "meera") {
		t.Fatal("booked outside the active window")
	}

	g.CallNext(time.Now())
	if g.Book(2, "meera") {
		t.Fatal("booked after calling started")
	}
	if g.Unbook(1, "ravi") {
		t.Fatal("unbooked after calling started")
	}
}

func TestWinnersOnlyFromActiveTickets(t *testing.T) {
	g := newTestGame(t, 16, 3)
	g.TicketLimit = 2
	// Booked directly so the window alone decides eligibility.
	g.Tickets[2].Owner = "ravi"

	g.Called = g.Tickets[2].Numbers()
	g.DetectWinners()
	for _, w := range g.Winners {
		if w.TicketID == g.Tickets[2].ID {
			t.Fatalf("inactive ticket claimed %s", w.Prize)
		}
	}
}

func TestUnbookRequiresOwner(t *testing.T) {
	g := newTestGame(t, 3, 2)
	g.Book(1, "ravi")
	if g.Unbook(1, "meera") {
		t.Fatal("non-owner released the ticket")
	}
	if !g.Unbook(1, "ravi") {
		t.Fatal("owner could not release the ticket")
	}
	if !g.Book(1, "meera") {
		t.Fatal("released ticket not bookable")
	}
}

func TestEarlySevenAwardedAtSeventhMark(t *testing.T) {
	g := newTestGame(t, 4, 1)
	g.Book(1, "ravi")
	nums := g.Tickets[0].Numbers()

	g.Called = nums[:6]
	g.DetectWinners()
	if len(g.Winners) != 0 {
		t.Fatalf("prize awarded at 6 marks: %+v", g.Winners)
	}

	g.Called = nums[:7]
	fresh := g.DetectWinners()
	if len(fresh) != 1 || fresh[0].Prize != PrizeEarlySeven {
		t.Fatalf("expected early seven, got %+v", fresh)
	}
	if fresh[0].TicketID != 1 || fresh[0].Owner != "ravi" {
		t.Fatalf("wrong claimant: %+v", fresh[0])
	}
}

func TestLinePrizesPerRow(t *testing.T) {
	g := newTestGame(t, 5, 1)
	g.Book(1, "ravi")

	wantByRow := []string{PrizeTopLine, PrizeMiddleLine, PrizeBottomLine}
	for r, want := range wantByRow {
		g.Called = g.Tickets[0].RowNumbers(r)
		g.Winners = nil
		g.DetectWinners()
		found := false
		for _, w := range g.Winners {
			if w.Prize == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("row %d complete but %s missing: %+v", r, want, g.Winners)
		}
	}
}

func TestFullHouseEndsGame(t *testing.T) {
	g := newTestGame(t, 6, 1)
	g.Book(1, "ravi")
	g.AutoCalling = true
	g.Called = g.Tickets[0].Numbers()
	g.DetectWinners()

	if !g.Over {
		t.Fatal("full house quota met but game not over")
	}
	if g.AutoCalling {
		t.Fatal("auto calling still on after game over")
	}
	if _, ok := g.CallNext(time.Now()); ok {
		t.Fatal("CallNext succeeded after game over")
	}
}

func TestDetectWinnersIdempotent(t *testing.T) {
	g := newTestGame(t, 7, 1)
	g.Book(1, "ravi")
	g.Called = g.Tickets[0].Numbers()[:8]

	first := g.DetectWinners()
	if len(first) == 0 {
		t.Fatal("expected at least the early seven")
	}
	before := append([]Winner(nil), g.Winners...)

	again := g.DetectWinners()
	if len(again) != 0 {
		t.Fatalf("second scan produced new winners: %+v", again)
	}
	if !reflect.DeepEqual(before, g.Winners) {
		t.Fatal("winner list changed on re-scan")
	}
}

func TestWinnersMonotonicAcrossCalls(t *testing.T) {
	g := newTestGame(t, 8, 3)
	g.TicketLimit = 0
	for i := range g.Tickets {
		g.Book(g.Tickets[i].ID, "ravi")
	}

	var prev []Winner
	for {
		if _, ok := g.CallNext(time.Now()); !ok {
			break
		}
		if len(g.Winners) < len(prev) {
			t.Fatal("winner list shrank")
		}
		if !reflect.DeepEqual(prev, g.Winners[:len(prev)]) {
			t.Fatal("earlier winners were rewritten")
		}
		prev = append([]Winner(nil), g.Winners...)
	}
}

func TestPrizeQuotaCapsClaims(t *testing.T) {
	g := NewGame(Config{Tickets: 3, PrizeQuotas: map[string]int{
		PrizeEarlySeven: 1,
		PrizeFullHouse:  1,
	}}, randutil.New(9))
	for i := range g.Tickets {
		g.Book(g.Tickets[i].ID, "ravi")
	}

	// Mark seven numbers on every ticket; only one early seven may pay.
	var called []int
	for i := range g.Tickets {
		called = append(called, g.Tickets[i].Numbers()[:7]...)
	}
	g.Called = called
	g.DetectWinners()

	count := 0
	for _, w := range g.Winners {
		if w.Prize == PrizeEarlySeven {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("quota 1 but %d early sevens paid", count)
	}
}

func TestUnbookedTicketsNeverWin(t *testing.T) {
	g := newTestGame(t, 10, 1)
	g.Called = g.Tickets[0].Numbers()
	g.DetectWinners()
	for _, w := range g.Winners {
		t.Fatalf("unbooked ticket claimed %s", w.Prize)
	}
}

func TestResetStartsFromScratch(t *testing.T) {
	g := newTestGame(t, 11, 2)
	g.Book(1, "ravi")
	oldGrid := g.Tickets[0].Grid
	for i := 0; i < 20; i++ {
		g.CallNext(time.Now())
	}
	g.Reset(randutil.New(12))

	if len(g.Called) != 0 || len(g.Winners) != 0 {
		t.Fatal("reset left calling history behind")
	}
	if len(g.Remaining) != TotalNumbers {
		t.Fatalf("pool rebuilt with %d numbers", len(g.Remaining))
	}
	if g.Tickets[0].Owner != "" {
		t.Fatal("reset kept a booking")
	}
	if g.Tickets[0].Grid == oldGrid {
		t.Fatal("reset reused the old grid")
	}
	if len(g.Tickets) != 2 || g.Tickets[0].ID != 1 || g.Tickets[1].ID != 2 {
		t.Fatalf("reset changed ticket ids: %+v", g.Tickets)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := newTestGame(t, 13, 2)
	g.Book(1, "ravi")
	c := g.Clone()

	c.CallNext(time.Now())
	c.Tickets[0].Owner = "meera"
	c.Quotas[PrizeTopLine] = 5

	if len(g.Called) != 0 {
		t.Fatal("clone call mutated original history")
	}
	if g.Tickets[0].Owner != "ravi" {
		t.Fatal("clone mutated original booking")
	}
	if g.Quotas[PrizeTopLine] == 5 {
		t.Fatal("clone shares quota map")
	}
}
