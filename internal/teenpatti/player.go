package teenpatti

import "github.com/khelghar/gametable/internal/deck"

// Status tracks a player's lifecycle at the table.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusJoined  Status = "joined"
	StatusPlaying Status = "playing"
)

// Player is one seat at a table. Players are owned exclusively by the
// table document and only ever mutated through the transition function.
type Player struct {
	ID           int         `json:"id"`       // stable per-table seat id
	UniqueID     string      `json:"uniqueId"` // per-session identity
	Name         string      `json:"name"`
	IsBot        bool        `json:"isBot"`
	AvatarSeed   string      `json:"avatarSeed,omitempty"`
	Cards        []deck.Card `json:"cards,omitempty"` // empty or exactly 3
	Chips        int         `json:"chips"`
	InitialChips int         `json:"initialChips"` // snapshot at hand start, for net-win reporting
	IsFolded     bool        `json:"isFolded"`
	IsSeen       bool        `json:"isSeen"`
	Status       Status      `json:"status"`
}

// clone deep-copies the player so transition results never alias input state.
func (p Player) clone() Player {
	out := p
	if p.Cards != nil {
		out.Cards = make([]deck.Card, len(p.Cards))
		copy(out.Cards, p.Cards)
	}
	return out
}
