package teenpatti

import (
	"reflect"
	"testing"

	"github.com/khelghar/gametable/internal/deck"
	"github.com/khelghar/gametable/internal/evaluator"
)

// sideShowReady deals four players and walks the turn to p1 with both p0
// and p1 seen, so p1 may request a side-show against p0.
func sideShowReady(t *testing.T, seed int64) TableState {
	t.Helper()
	s := fourPlayerTable(t, seed)
	s = mustApply(t, s, Intent{Action: ActionSee, UniqueID: "p0"})
	s = mustApply(t, s, Intent{Action: ActionChaal, UniqueID: "p0"})
	s = mustApply(t, s, Intent{Action: ActionSee, UniqueID: "p1"})
	return s
}

func TestSideShowRequestTargetsNearestActivePredecessor(t *testing.T) {
	s := sideShowReady(t, 30)
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})

	req := s.SideShowRequest
	if req == nil {
		t.Fatal("no pending request")
	}
	if req.InitiatorID != s.Players[1].ID || req.TargetID != s.Players[0].ID {
		t.Errorf("request %+v, want p1 -> p0", req)
	}
	if req.Amount != 40 { // 2x the seen chaal stake of 20
		t.Errorf("amount = %d, want 40", req.Amount)
	}
}

func TestSideShowRequiresSeenInitiatorAndTarget(t *testing.T) {
	s := fourPlayerTable(t, 31)

	// Blind initiator.
	if _, ok := Apply(s, Intent{Action: ActionSideShow, UniqueID: "p0"}, testEnv(31)); ok {
		t.Error("blind initiator should be refused")
	}

	// Seen initiator, blind target.
	s = mustApply(t, s, Intent{Action: ActionChaal, UniqueID: "p0"})
	s = mustApply(t, s, Intent{Action: ActionSee, UniqueID: "p1"})
	if _, ok := Apply(s, Intent{Action: ActionSideShow, UniqueID: "p1"}, testEnv(31)); ok {
		t.Error("blind target should be refused")
	}
}

func TestSideShowRefusedHeadsUp(t *testing.T) {
	s := sideShowReady(t, 32)
	s = mustApply(t, s, Intent{Action: ActionChaal, UniqueID: "p1"})
	s = mustApply(t, s, Intent{Action: ActionFold, UniqueID: "p2"})
	s = mustApply(t, s, Intent{Action: ActionFold, UniqueID: "p3"})
	// Back to p0, heads-up now.
	if s.ActiveCount() != 2 {
		t.Fatalf("active = %d, want 2", s.ActiveCount())
	}
	if _, ok := Apply(s, Intent{Action: ActionSideShow, UniqueID: "p0"}, testEnv(32)); ok {
		t.Error("side-show with two active players should be refused")
	}
}

func TestPendingSideShowSuspendsOtherActions(t *testing.T) {
	s := sideShowReady(t, 33)
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})

	blocked := []Intent{
		{Action: ActionChaal, UniqueID: "p1"},
		{Action: ActionFold, UniqueID: "p1"},
		{Action: ActionSideShow, UniqueID: "p1"},
		{Action: ActionDeal},
		{Action: ActionPlayAgain},
		{Action: ActionTick},
	}
	for _, in := range blocked {
		next, ok := Apply(s, in, testEnv(33))
		if ok {
			t.Errorf("intent %s should be suspended while a request is pending", in.Action)
		}
		if !reflect.DeepEqual(next, s) {
			t.Errorf("intent %s changed state during suspension", in.Action)
		}
	}

	// Only the named target may answer.
	if _, ok := Apply(s, Intent{Action: ActionSideShowAccept, UniqueID: "p2"}, testEnv(33)); ok {
		t.Error("non-target accepted the side-show")
	}
}

func TestSideShowDenyLeavesInitiatorTurnAndChips(t *testing.T) {
	s := sideShowReady(t, 34)
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})

	chips := s.Players[1].Chips
	pot := s.Pot
	s = mustApply(t, s, Intent{Action: ActionSideShowDeny, UniqueID: "p0"})

	if s.SideShowRequest != nil {
		t.Error("deny did not clear the request")
	}
	if s.Players[1].Chips != chips || s.Pot != pot {
		t.Error("deny must not move chips")
	}
	if s.CurrentPlayerIndex != 1 {
		t.Errorf("turn = %d, want still 1", s.CurrentPlayerIndex)
	}

	// The initiator then chooses another action.
	s = mustApply(t, s, Intent{Action: ActionChaal, UniqueID: "p1"})
	if s.CurrentPlayerIndex != 2 {
		t.Errorf("turn = %d after chaal, want 2", s.CurrentPlayerIndex)
	}
}

func TestSideShowAcceptComparesAndFoldsLoser(t *testing.T) {
	s := sideShowReady(t, 35)
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})

	req := *s.SideShowRequest
	initChips := s.Players[1].Chips
	targetChips := s.Players[0].Chips
	pot := s.Pot

	s = mustApply(t, s, Intent{Action: ActionSideShowAccept, UniqueID: "p0"})

	if s.SideShowRequest != nil {
		t.Error("accept did not clear the request")
	}
	if got := initChips - s.Players[1].Chips; got != req.Amount {
		t.Errorf("initiator paid %d, want %d", got, req.Amount)
	}
	if s.Players[0].Chips != targetChips {
		t.Error("target must not pay for a side-show")
	}
	if s.Pot != pot+req.Amount {
		t.Errorf("pot = %d, want %d", s.Pot, pot+req.Amount)
	}

	folded := 0
	if s.Players[0].IsFolded {
		folded++
	}
	if s.Players[1].IsFolded {
		folded++
	}
	if folded != 1 {
		t.Fatalf("%d of the pair folded, want exactly 1", folded)
	}

	res := s.SideShowResult
	if res == nil {
		t.Fatal("no side-show result recorded")
	}
	h0 := evaluator.Evaluate(res.Target.Cards)
	h1 := evaluator.Evaluate(res.Initiator.Cards)
	wantInitiatorWin := evaluator.Compare(h1, h0) > 0
	if wantInitiatorWin != (res.Winner.UniqueID == "p1") {
		t.Errorf("winner = %s with ranks initiator=%d target=%d", res.Winner.UniqueID, h1.Rank, h0.Rank)
	}

	// Play resumes after the initiator, skipping whoever just folded.
	if s.Players[s.CurrentPlayerIndex].IsFolded {
		t.Error("turn landed on a folded seat")
	}
	if s.CurrentPlayerIndex != 2 {
		t.Errorf("turn = %d, want 2", s.CurrentPlayerIndex)
	}
}

func TestSideShowLoserCardsStayPrivate(t *testing.T) {
	s := sideShowReady(t, 36)
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})
	s = mustApply(t, s, Intent{Action: ActionSideShowAccept, UniqueID: "p0"})

	// The table-level snapshot must not flip the public reveal flag; the
	// comparison is visible only through the private result payload.
	if s.ShowdownReveal {
		t.Error("side-show must not reveal hands publicly")
	}
	if s.IsGameOver {
		t.Error("side-show among 4 players must not end the hand")
	}
}

func TestSideShowSkipsFoldedSeatWhenPickingTarget(t *testing.T) {
	s := fourPlayerTable(t, 37)
	s = mustApply(t, s, Intent{Action: ActionSee, UniqueID: "p0"})
	s = mustApply(t, s, Intent{Action: ActionChaal, UniqueID: "p0"})
	s = mustApply(t, s, Intent{Action: ActionSee, UniqueID: "p1"})
	s = mustApply(t, s, Intent{Action: ActionChaal, UniqueID: "p1"})
	s = mustApply(t, s, Intent{Action: ActionFold, UniqueID: "p2"})
	s = mustApply(t, s, Intent{Action: ActionSee, UniqueID: "p3"})

	// p2 folded, so p3's nearest active predecessor is p1.
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p3"})
	if got := s.SideShowRequest.TargetID; got != s.Players[1].ID {
		t.Fatalf("target id = %d, want p1's seat", got)
	}

	s = mustApply(t, s, Intent{Action: ActionSideShowAccept, UniqueID: "p1"})
	if s.IsGameOver {
		t.Fatal("three actives minus one is not game over")
	}
	if s.ActiveCount() != 2 {
		t.Fatalf("active = %d, want 2", s.ActiveCount())
	}
}

func TestTimeoutDeniesPendingSideShow(t *testing.T) {
	s := sideShowReady(t, 38)
	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})

	pot := s.Pot
	s = mustApply(t, s, Intent{Action: ActionTimeout})

	if s.SideShowRequest != nil {
		t.Error("timeout should deny the pending request")
	}
	if s.Pot != pot {
		t.Error("deny-on-timeout must not move chips")
	}
	if s.Players[1].IsFolded {
		t.Error("deny-on-timeout must not fold the initiator")
	}
	if s.CurrentPlayerIndex != 1 {
		t.Errorf("turn = %d, want still the initiator's", s.CurrentPlayerIndex)
	}
}

func TestSideShowTieGoesToTarget(t *testing.T) {
	s := sideShowReady(t, 39)
	// Force identical hand values in different suits.
	s.Players[0].Cards = []deck.Card{
		deck.NewCard(deck.Spades, deck.King),
		deck.NewCard(deck.Hearts, deck.Queen),
		deck.NewCard(deck.Diamonds, deck.Nine),
	}
	s.Players[1].Cards = []deck.Card{
		deck.NewCard(deck.Clubs, deck.King),
		deck.NewCard(deck.Diamonds, deck.Queen),
		deck.NewCard(deck.Hearts, deck.Nine),
	}

	s = mustApply(t, s, Intent{Action: ActionSideShow, UniqueID: "p1"})
	s = mustApply(t, s, Intent{Action: ActionSideShowAccept, UniqueID: "p0"})

	if s.SideShowResult.Winner.UniqueID != "p0" {
		t.Errorf("tie winner = %s, want the target p0", s.SideShowResult.Winner.UniqueID)
	}
	if !s.Players[1].IsFolded {
		t.Error("tied initiator should fold")
	}
}
