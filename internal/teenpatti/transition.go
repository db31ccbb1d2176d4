package teenpatti

import (
	rand "math/rand/v2"
	"time"

	"github.com/khelghar/gametable/internal/deck"
	"github.com/khelghar/gametable/internal/evaluator"
)

// Env carries the ambient inputs a transition needs. Passing them
// explicitly keeps Apply a pure function of (state, intent, env), safe to
// re-invoke when the store retries a conflicting transaction.
type Env struct {
	Rand *rand.Rand
	Now  time.Time
}

// Apply computes the next table state for one intent. It never mutates its
// input. Illegal or stale intents return the state unchanged with
// changed=false; the engine is safe against duplicate and out-of-turn
// submissions.
//
// The caller deletes the table document when the returned state has an
// empty roster.
func Apply(s TableState, in Intent, env Env) (TableState, bool) {
	next := s.Clone()

	// While a side-show request is pending, only the response path (and the
	// free See action) may touch the table.
	if s.SideShowRequest != nil {
		switch in.Action {
		case ActionSee, ActionSideShowAccept, ActionSideShowDeny, ActionTimeout, ActionLeave:
		default:
			return s, false
		}
	}

	switch in.Action {
	case ActionJoin:
		return applyJoin(next, in)
	case ActionDeal:
		return applyDeal(next, env)
	case ActionSee:
		return applySee(next, in)
	case ActionChaal, ActionFold, ActionShow:
		return applyBet(next, in)
	case ActionSideShow:
		return applySideShowRequest(next, in)
	case ActionSideShowAccept:
		return applySideShowResponse(next, in, true)
	case ActionSideShowDeny:
		return applySideShowResponse(next, in, false)
	case ActionTick:
		return applyTick(next)
	case ActionTimeout:
		return applyTimeout(next)
	case ActionLeave:
		return applyLeave(next, in)
	case ActionPlayAgain:
		return applyPlayAgain(next)
	default:
		return s, false
	}
}

func applyJoin(s TableState, in Intent) (TableState, bool) {
	if s.SeatOf(in.UniqueID) != -1 {
		return s, false // already seated, idempotent
	}
	if len(s.Players) >= s.seatLimit() {
		return s, false
	}

	chips := in.Chips
	if chips <= 0 {
		chips = 10000
	}
	// Seat ids survive departures, so a new seat takes max+1 rather than
	// the roster length.
	nextID := 0
	for _, p := range s.Players {
		if p.ID >= nextID {
			nextID = p.ID + 1
		}
	}
	s.Players = append(s.Players, Player{
		ID:           nextID,
		UniqueID:     in.UniqueID,
		Name:         in.Name,
		IsBot:        in.IsBot,
		AvatarSeed:   in.UniqueID,
		Chips:        chips,
		InitialChips: chips,
		Status:       StatusJoined,
	})
	return s, true
}

func applyDeal(s TableState, env Env) (TableState, bool) {
	if s.GamePhase != PhaseLobby || len(s.Players) < 2 {
		return s, false
	}
	if s.SessionExpired(env.Now) {
		// Session over: the table is locked from dealing until reset.
		return s, false
	}

	d := deck.New(env.Rand)
	for i := range s.Players {
		p := &s.Players[i]
		if p.IsFolded {
			continue
		}
		p.Cards = d.DealN(3)
		p.Chips -= s.BootAmount
		p.InitialChips = p.Chips + s.BootAmount
		p.IsSeen = false
		p.Status = StatusPlaying
		s.Pot += s.BootAmount
	}

	s.GamePhase = PhaseBetting
	s.CurrentPlayerIndex = firstActiveSeat(&s)
	s.BettingRound = 1
	s.IsGameOver = false
	s.WinnerInfo = WinnerInfo{}
	s.ShowdownReveal = false
	s.SideShowRequest = nil
	s.SideShowResult = nil
	s.TurnTimeLeft = s.TurnDuration
	return s, true
}

func applySee(s TableState, in Intent) (TableState, bool) {
	seat := s.SeatOf(in.UniqueID)
	if s.GamePhase != PhaseBetting || s.IsGameOver || seat == -1 || seat != s.CurrentPlayerIndex {
		return s, false
	}
	p := &s.Players[seat]
	if p.IsFolded || p.IsSeen {
		return s, false
	}
	// Seeing is a free informational action: no turn advance, timer refilled
	// so the player still gets a full window to choose a real action.
	p.IsSeen = true
	s.TurnTimeLeft = s.TurnDuration
	return s, true
}

func applyBet(s TableState, in Intent) (TableState, bool) {
	seat := s.SeatOf(in.UniqueID)
	if s.GamePhase != PhaseBetting || s.IsGameOver || seat == -1 || seat != s.CurrentPlayerIndex {
		return s, false
	}
	p := &s.Players[seat]
	if p.IsFolded {
		return s, false
	}

	action := in.Action
	chaalStake := s.BootAmount
	if p.IsSeen {
		chaalStake = s.BootAmount * 2
	}

	var stake int
	switch action {
	case ActionChaal:
		stake = chaalStake
	case ActionShow:
		if s.ActiveCount() != 2 {
			return s, false
		}
		stake = chaalStake * 2
	}

	if action == ActionChaal || action == ActionShow {
		if p.Chips >= stake {
			p.Chips -= stake
			s.Pot += stake
		} else {
			action = ActionFold // cannot cover the stake
		}
	}

	if action == ActionFold {
		p.IsFolded = true
	}

	if s.ActiveCount() <= 1 || action == ActionShow {
		resolveGameOver(&s, action == ActionShow)
		return s, true
	}

	advanceTurn(&s, seat)
	return s, true
}

func applySideShowRequest(s TableState, in Intent) (TableState, bool) {
	seat := s.SeatOf(in.UniqueID)
	if s.GamePhase != PhaseBetting || s.IsGameOver || seat == -1 || seat != s.CurrentPlayerIndex {
		return s, false
	}
	p := &s.Players[seat]
	if p.IsFolded || !p.IsSeen || s.ActiveCount() <= 2 {
		return s, false
	}

	targetSeat := s.sideShowTarget(seat)
	if targetSeat == -1 || !s.Players[targetSeat].IsSeen {
		return s, false
	}

	// Side-show costs double the (seen) chaal stake, paid only on accept.
	s.SideShowRequest = &SideShowRequest{
		InitiatorID: s.Players[seat].ID,
		TargetID:    s.Players[targetSeat].ID,
		Amount:      s.BootAmount * 2 * 2,
	}
	return s, true
}

func applySideShowResponse(s TableState, in Intent, accepted bool) (TableState, bool) {
	req := s.SideShowRequest
	if req == nil {
		return s, false
	}
	// Only the named target may answer. A timeout submits a deny on the
	// target's behalf.
	if in.UniqueID != "" {
		seat := s.SeatOf(in.UniqueID)
		if seat == -1 || s.Players[seat].ID != req.TargetID {
			return s, false
		}
	}

	s.SideShowRequest = nil

	if !accepted {
		// Initiator keeps the turn and must pick another action.
		s.TurnTimeLeft = s.TurnDuration
		return s, true
	}

	initSeat := s.seatOfID(req.InitiatorID)
	targetSeat := s.seatOfID(req.TargetID)
	if initSeat == -1 || targetSeat == -1 {
		return s, true
	}
	initiator := &s.Players[initSeat]
	target := &s.Players[targetSeat]
	if initiator.Chips < req.Amount {
		return s, true // cannot cover the comparison, treated as a lapsed request
	}

	initiator.Chips -= req.Amount
	s.Pot += req.Amount

	initHand := evaluator.Evaluate(initiator.Cards)
	targetHand := evaluator.Evaluate(target.Cards)

	// Ties go to the target: the defender keeps their seat.
	winner, loser := target, initiator
	if evaluator.Compare(initHand, targetHand) > 0 {
		winner, loser = initiator, target
	}
	loser.IsFolded = true

	s.SideShowResult = &SideShowResult{
		Initiator: initiator.clone(),
		Target:    target.clone(),
		Winner:    winner.clone(),
		Loser:     loser.clone(),
	}

	if s.ActiveCount() <= 1 {
		resolveGameOver(&s, false)
		return s, true
	}

	// Play continues from the initiator's position, skipping the newly
	// folded seat.
	advanceTurn(&s, initSeat)
	return s, true
}

func applyTick(s TableState) (TableState, bool) {
	if s.GamePhase != PhaseBetting || s.IsGameOver || s.TurnTimeLeft <= 0 {
		return s, false
	}
	s.TurnTimeLeft--
	return s, true
}

func applyTimeout(s TableState) (TableState, bool) {
	if s.GamePhase != PhaseBetting || s.IsGameOver {
		return s, false
	}

	// A pending side-show times out as a deny.
	if s.SideShowRequest != nil {
		return applySideShowResponse(s, Intent{Action: ActionSideShowDeny}, false)
	}

	seat := s.CurrentPlayerIndex
	if seat < 0 || seat >= len(s.Players) || s.Players[seat].IsFolded {
		return s, false
	}
	return applyBet(s, Intent{Action: ActionFold, UniqueID: s.Players[seat].UniqueID})
}

func applyLeave(s TableState, in Intent) (TableState, bool) {
	seat := s.SeatOf(in.UniqueID)
	if seat == -1 {
		return s, false
	}

	// Leaving mid-hand is an implicit fold before the seat empties.
	if s.GamePhase == PhaseBetting && !s.IsGameOver && !s.Players[seat].IsFolded {
		s.Players[seat].IsFolded = true

		if s.ActiveCount() <= 1 {
			resolveGameOver(&s, false)
			s.ShowdownReveal = false
		} else if s.CurrentPlayerIndex == seat {
			advanceTurn(&s, seat)
		}
	}

	// Remember whose turn it is so removal can re-point the index.
	currentUID := ""
	if s.CurrentPlayerIndex >= 0 && s.CurrentPlayerIndex < len(s.Players) {
		currentUID = s.Players[s.CurrentPlayerIndex].UniqueID
	}

	remaining := make([]Player, 0, len(s.Players)-1)
	for _, p := range s.Players {
		if p.UniqueID != in.UniqueID {
			remaining = append(remaining, p)
		}
	}
	s.Players = remaining

	if len(s.Players) == 0 {
		// Empty roster: caller tears the document down.
		return s, true
	}

	if idx := s.SeatOf(currentUID); idx != -1 {
		s.CurrentPlayerIndex = idx
	} else if len(s.Players) > 0 {
		s.CurrentPlayerIndex = firstActiveSeat(&s)
	}
	return s, true
}

func applyPlayAgain(s TableState) (TableState, bool) {
	if !s.IsGameOver {
		return s, false
	}

	s.GamePhase = PhaseLobby
	s.IsGameOver = false
	s.Pot = 0
	s.CurrentPlayerIndex = 0
	s.BettingRound = 0
	s.WinnerInfo = WinnerInfo{}
	s.ShowdownReveal = false
	s.SideShowRequest = nil
	s.SideShowResult = nil
	s.TurnTimeLeft = s.TurnDuration

	for i := range s.Players {
		p := &s.Players[i]
		p.Cards = nil
		p.IsFolded = false
		p.IsSeen = false
		p.Status = StatusJoined
	}
	return s, true
}

// resolveGameOver ends the hand. With one active player left they take the
// pot as "Last remaining player"; a two-player show compares hands, earlier
// seat winning exact ties.
func resolveGameOver(s *TableState, isShow bool) {
	s.IsGameOver = true
	s.ShowdownReveal = true
	s.GamePhase = PhaseShowdown

	active := s.ActivePlayers()
	switch {
	case len(active) == 1:
		seat := s.SeatOf(active[0].UniqueID)
		s.Players[seat].Chips += s.Pot
		w := s.Players[seat].clone()
		s.WinnerInfo = WinnerInfo{Winner: &w, HandName: "Last remaining player"}
	case isShow && len(active) == 2:
		h1 := evaluator.Evaluate(active[0].Cards)
		h2 := evaluator.Evaluate(active[1].Cards)
		winIdx, handName := 1, h2.Category.String()
		if evaluator.Beats(h1, h2) {
			winIdx, handName = 0, h1.Category.String()
		}
		seat := s.SeatOf(active[winIdx].UniqueID)
		s.Players[seat].Chips += s.Pot
		w := s.Players[seat].clone()
		s.WinnerInfo = WinnerInfo{Winner: &w, HandName: handName}
	}
	s.Pot = 0
}

// advanceTurn moves the turn to the next non-folded seat after from,
// refilling the timer. Wrapping past the end of the seat order counts a
// completed betting round.
func advanceTurn(s *TableState, from int) {
	next := s.nextActiveSeat(from)
	if next == -1 {
		return
	}
	if next <= from {
		s.BettingRound++
	}
	s.CurrentPlayerIndex = next
	s.TurnTimeLeft = s.TurnDuration
}

func firstActiveSeat(s *TableState) int {
	for i, p := range s.Players {
		if !p.IsFolded {
			return i
		}
	}
	return 0
}
