package teenpatti

import (
	"time"

	"github.com/thoas/go-funk"
)

// GamePhase is the coarse lifecycle of a hand.
type GamePhase string

const (
	PhaseLobby    GamePhase = "lobby"
	PhaseBetting  GamePhase = "betting"
	PhaseShowdown GamePhase = "showdown"
)

// DefaultTurnSeconds matches the original table's 30s turn clock. Tables can
// override it via configuration.
const DefaultTurnSeconds = 30

// MaxSeats is the table capacity.
const MaxSeats = 4

// SideShowRequest is a pending private comparison. While it is set, only the
// response path (accept/deny) may mutate the table.
type SideShowRequest struct {
	InitiatorID int `json:"initiatorId"`
	TargetID    int `json:"targetId"`
	Amount      int `json:"amount"`
}

// SideShowResult records a resolved comparison for display. The loser's
// cards appear only here, never in the public snapshot.
type SideShowResult struct {
	Initiator Player `json:"initiator"`
	Target    Player `json:"target"`
	Winner    Player `json:"winner"`
	Loser     Player `json:"loser"`
}

// WinnerInfo names the hand's winner once the game is over.
type WinnerInfo struct {
	Winner   *Player `json:"winner"`
	HandName string  `json:"handName"`
}

// TableState is the single authoritative document for one table. Every
// viewer derives its projection purely from the latest snapshot.
type TableState struct {
	Players            []Player         `json:"players"` // seat order = turn order
	MaxPlayers         int              `json:"maxPlayers"`
	Pot                int              `json:"pot"`
	BootAmount         int              `json:"bootAmount"`
	GamePhase          GamePhase        `json:"gamePhase"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	BettingRound       int              `json:"bettingRound"`
	IsGameOver         bool             `json:"isGameOver"`
	WinnerInfo         WinnerInfo       `json:"winnerInfo"`
	ShowdownReveal     bool             `json:"showdownReveal"`
	SideShowRequest    *SideShowRequest `json:"sideShowRequest,omitempty"`
	SideShowResult     *SideShowResult  `json:"sideShowResult,omitempty"`
	TurnTimeLeft       int              `json:"turnTimeLeft"`
	TurnDuration       int              `json:"turnDuration"`
	SessionEndTime     int64            `json:"sessionEndTime,omitempty"` // unix millis, 0 = no session timer
}

// NewTable returns a fresh lobby document.
func NewTable(bootAmount int, sessionEnd int64) TableState {
	return TableState{
		Players:      []Player{},
		MaxPlayers:   MaxSeats,
		BootAmount:   bootAmount,
		GamePhase:    PhaseLobby,
		TurnTimeLeft: DefaultTurnSeconds,
		TurnDuration: DefaultTurnSeconds,

		SessionEndTime: sessionEnd,
	}
}

// seatLimit clamps the configured table size to the hard seat cap.
func (s *TableState) seatLimit() int {
	if s.MaxPlayers > 0 && s.MaxPlayers < MaxSeats {
		return s.MaxPlayers
	}
	return MaxSeats
}

// Clone deep-copies the table state. Apply always works on a clone so a
// rejected intent can hand the caller's state back untouched.
func (s TableState) Clone() TableState {
	out := s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.clone()
	}
	if s.SideShowRequest != nil {
		req := *s.SideShowRequest
		out.SideShowRequest = &req
	}
	if s.SideShowResult != nil {
		res := SideShowResult{
			Initiator: s.SideShowResult.Initiator.clone(),
			Target:    s.SideShowResult.Target.clone(),
			Winner:    s.SideShowResult.Winner.clone(),
			Loser:     s.SideShowResult.Loser.clone(),
		}
		out.SideShowResult = &res
	}
	if s.WinnerInfo.Winner != nil {
		w := s.WinnerInfo.Winner.clone()
		out.WinnerInfo.Winner = &w
	}
	return out
}

// ActiveCount returns the number of non-folded players.
func (s *TableState) ActiveCount() int {
	return len(funk.Filter(s.Players, func(p Player) bool { return !p.IsFolded }).([]Player))
}

// ActivePlayers returns the non-folded players in seat order.
func (s *TableState) ActivePlayers() []Player {
	return funk.Filter(s.Players, func(p Player) bool { return !p.IsFolded }).([]Player)
}

// SeatOf returns the slice index of the player with the given session
// identity, or -1.
func (s *TableState) SeatOf(uniqueID string) int {
	return funk.IndexOf(s.Players, func(p Player) bool { return p.UniqueID == uniqueID })
}

// seatOfID returns the slice index of the player with the given seat id.
func (s *TableState) seatOfID(id int) int {
	return funk.IndexOf(s.Players, func(p Player) bool { return p.ID == id })
}

// nextActiveSeat walks forward in seat order from (from+1), skipping folded
// seats, and returns the next active slice index. Returns -1 when nobody is
// active.
func (s *TableState) nextActiveSeat(from int) int {
	n := len(s.Players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if !s.Players[idx].IsFolded {
			return idx
		}
	}
	return -1
}

// sideShowTarget returns the slice index of the nearest non-folded
// predecessor of seat, the only seat a side-show may target. This is the
// single place that encodes the eligibility rule.
func (s *TableState) sideShowTarget(seat int) int {
	n := len(s.Players)
	for i := 1; i < n; i++ {
		idx := (seat - i + n) % n
		if idx == seat {
			break
		}
		if !s.Players[idx].IsFolded {
			return idx
		}
	}
	return -1
}

// SessionExpired reports whether the table's session timer has passed. An
// expired session only locks dealing; a hand in progress always finishes.
func (s *TableState) SessionExpired(now time.Time) bool {
	return s.SessionEndTime > 0 && now.UnixMilli() > s.SessionEndTime
}

// TotalChips returns pot plus all stacks, for chip-conservation checks.
func (s *TableState) TotalChips() int {
	total := s.Pot
	for _, p := range s.Players {
		total += p.Chips
	}
	return total
}
