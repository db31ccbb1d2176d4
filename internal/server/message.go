package server

import (
	"encoding/json"
	"time"

	"github.com/khelghar/gametable/internal/deck"
	"github.com/khelghar/gametable/internal/housie"
	"github.com/khelghar/gametable/internal/teenpatti"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type AuthData struct {
	PlayerName string `json:"playerName"`
}

type JoinTableData struct {
	TableID string `json:"tableId"`
}

type LeaveTableData struct {
	TableID string `json:"tableId"`
}

type TableActionData struct {
	TableID string `json:"tableId"`
}

type SideShowResponseData struct {
	TableID string `json:"tableId"`
	Accept  bool   `json:"accept"`
}

type HousieBookData struct {
	TicketID int `json:"ticketId"`
}

type HousieAdminData struct {
	Password string `json:"password"`
	Enable   bool   `json:"enable,omitempty"`
}

// Server → Client Messages

type AuthResponseData struct {
	Success  bool   `json:"success"`
	PlayerID string `json:"playerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TableInfo struct {
	ID          string `json:"id"`
	Boot        int    `json:"boot"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      string `json:"status"`
}

type TableListData struct {
	Tables []TableInfo `json:"tables"`
}

type TableJoinedData struct {
	TableID string `json:"tableId"`
	SeatID  int    `json:"seatId"`
}

type PlayerView struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	IsBot      bool        `json:"isBot"`
	AvatarSeed string      `json:"avatarSeed"`
	Cards      []deck.Card `json:"cards,omitempty"`
	Chips      int         `json:"chips"`
	IsFolded   bool        `json:"isFolded"`
	IsSeen     bool        `json:"isSeen"`
	Status     string      `json:"status"`
}

type TableStateData struct {
	TableID            string                     `json:"tableId"`
	Players            []PlayerView               `json:"players"`
	Pot                int                        `json:"pot"`
	BootAmount         int                        `json:"bootAmount"`
	GamePhase          string                     `json:"gamePhase"`
	CurrentPlayerIndex int                        `json:"currentPlayerIndex"`
	BettingRound       int                        `json:"bettingRound"`
	IsGameOver         bool                       `json:"isGameOver"`
	Winner             *WinnerView                `json:"winner,omitempty"`
	ShowdownReveal     bool                       `json:"showdownReveal"`
	SideShowRequest    *teenpatti.SideShowRequest `json:"sideShowRequest,omitempty"`
	SideShowResult     *SideShowResultView        `json:"sideShowResult,omitempty"`
	TurnTimeLeft       int                        `json:"turnTimeLeft"`
	TurnDuration       int                        `json:"turnDuration"`
}

type WinnerView struct {
	SeatID   int    `json:"seatId"`
	Name     string `json:"name"`
	HandName string `json:"handName"`
}

// SideShowResultView names the compared seats. The two hands ride along
// only for the initiator and the target; everyone else just learns who
// lost.
type SideShowResultView struct {
	InitiatorID    int         `json:"initiatorId"`
	TargetID       int         `json:"targetId"`
	WinnerID       int         `json:"winnerId"`
	LoserID        int         `json:"loserId"`
	InitiatorCards []deck.Card `json:"initiatorCards,omitempty"`
	TargetCards    []deck.Card `json:"targetCards,omitempty"`
}

type TableClosedData struct {
	TableID string `json:"tableId"`
}

type HousieStateData struct {
	Tickets     []housie.Ticket `json:"tickets"`
	Called      []int           `json:"called"`
	Current     int             `json:"current"`
	Previous    int             `json:"previous"`
	Winners     []housie.Winner `json:"winners"`
	AutoCalling bool            `json:"autoCalling"`
	Over        bool            `json:"over"`

	ScheduledStart time.Time `json:"scheduledStart,omitempty"`
}

type NumberCalledData struct {
	Number int `json:"number"`
	Count  int `json:"count"`
}

type PrizeAwardedData struct {
	Winners []housie.Winner `json:"winners"`
}

// Helper functions to convert between engine types and message types

// TableStateView builds the state message for one viewer. Cards stay
// private: a player sees their own hand once seen, everyone sees every
// live hand when the showdown reveal is set.
func TableStateView(tableID string, st teenpatti.TableState, viewerUID string) TableStateData {
	players := make([]PlayerView, len(st.Players))
	for i, p := range st.Players {
		reveal := p.UniqueID == viewerUID && p.IsSeen
		reveal = reveal || (st.ShowdownReveal && !p.IsFolded)

		var cards []deck.Card
		if reveal {
			cards = p.Cards
		}
		players[i] = PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			IsBot:      p.IsBot,
			AvatarSeed: p.AvatarSeed,
			Cards:      cards,
			Chips:      p.Chips,
			IsFolded:   p.IsFolded,
			IsSeen:     p.IsSeen,
			Status:     string(p.Status),
		}
	}

	data := TableStateData{
		TableID:            tableID,
		Players:            players,
		Pot:                st.Pot,
		BootAmount:         st.BootAmount,
		GamePhase:          string(st.GamePhase),
		CurrentPlayerIndex: st.CurrentPlayerIndex,
		BettingRound:       st.BettingRound,
		IsGameOver:         st.IsGameOver,
		ShowdownReveal:     st.ShowdownReveal,
		SideShowRequest:    st.SideShowRequest,
		TurnTimeLeft:       st.TurnTimeLeft,
		TurnDuration:       st.TurnDuration,
	}
	if st.WinnerInfo.Winner != nil {
		data.Winner = &WinnerView{
			SeatID:   st.WinnerInfo.Winner.ID,
			Name:     st.WinnerInfo.Winner.Name,
			HandName: st.WinnerInfo.HandName,
		}
	}
	if res := st.SideShowResult; res != nil {
		view := &SideShowResultView{
			InitiatorID: res.Initiator.ID,
			TargetID:    res.Target.ID,
			WinnerID:    res.Winner.ID,
			LoserID:     res.Loser.ID,
		}
		if viewerUID == res.Initiator.UniqueID || viewerUID == res.Target.UniqueID {
			view.InitiatorCards = res.Initiator.Cards
			view.TargetCards = res.Target.Cards
		}
		data.SideShowResult = view
	}
	return data
}

// HousieStateView redacts ticket grids so each viewer only sees the full
// grid of tickets they own; other tickets keep id and owner for booking.
func HousieStateView(g *housie.Game, viewerUID string) HousieStateData {
	tickets := make([]housie.Ticket, len(g.Tickets))
	for i, t := range g.Tickets {
		if t.Owner != viewerUID && t.Owner != "" {
			t.Grid = [3][9]int{}
		}
		tickets[i] = t
	}
	return HousieStateData{
		Tickets:        tickets,
		Called:         append([]int(nil), g.Called...),
		Current:        g.Current(),
		Previous:       g.Previous(),
		Winners:        append([]housie.Winner(nil), g.Winners...),
		AutoCalling:    g.AutoCalling,
		Over:           g.Over,
		ScheduledStart: g.ScheduledStart,
	}
}
