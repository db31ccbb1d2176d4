package housie

import (
	rand "math/rand/v2"
	"time"
)

// Prize names awarded during a game.
const (
	PrizeEarlySeven = "early_seven"
	PrizeTopLine    = "top_line"
	PrizeMiddleLine = "middle_line"
	PrizeBottomLine = "bottom_line"
	PrizeFullHouse  = "full_house"
)

// Winner records one prize claim. A ticket claims a given prize at most
// once.
type Winner struct {
	Prize    string `json:"prize"`
	TicketID int    `json:"ticketId"`
	Owner    string `json:"owner,omitempty"`
	CallSeq  int    `json:"callSeq"`
}

// Config sets the shape of a game before dealing tickets.
type Config struct {
	Tickets        int
	TicketLimit    int
	PrizeQuotas    map[string]int
	CallInterval   time.Duration
	ScheduledStart time.Time
}

// DefaultQuotas returns the standard single-winner quota per prize.
func DefaultQuotas() map[string]int {
	return map[string]int{
		PrizeEarlySeven: 1,
		PrizeTopLine:    1,
		PrizeMiddleLine: 1,
		PrizeBottomLine: 1,
		PrizeFullHouse:  1,
	}
}

// Game holds the full state of one housie session. It is a plain value;
// callers serialize it through their store and mutate it only via the
// methods here.
type Game struct {
	Tickets        []Ticket       `json:"tickets"`
	Called         []int          `json:"called"`
	Remaining      []int          `json:"remaining"`
	Winners        []Winner       `json:"winners"`
	Quotas         map[string]int `json:"quotas"`
	TicketLimit    int            `json:"ticketLimit"` // active window size, 0 = every ticket
	AutoCalling    bool           `json:"autoCalling"`
	Over           bool           `json:"over"`
	LastCall       time.Time      `json:"lastCall,omitempty"`
	ScheduledStart time.Time      `json:"scheduledStart,omitempty"`
}

// Current returns the most recently called number, 0 before any call.
func (g *Game) Current() int {
	if len(g.Called) == 0 {
		return 0
	}
	return g.Called[len(g.Called)-1]
}

// Previous returns the number called before the current one, 0 if fewer
// than two numbers have been called.
func (g *Game) Previous() int {
	if len(g.Called) < 2 {
		return 0
	}
	return g.Called[len(g.Called)-2]
}

// NewGame generates cfg.Tickets fresh tickets and a shuffled calling pool.
func NewGame(cfg Config, rng *rand.Rand) *Game {
	quotas := cfg.PrizeQuotas
	if quotas == nil {
		quotas = DefaultQuotas()
	}

	g := &Game{
		Tickets:        make([]Ticket, 0, cfg.Tickets),
		Quotas:         quotas,
		TicketLimit:    cfg.TicketLimit,
		ScheduledStart: cfg.ScheduledStart,
	}
	for i := 0; i < cfg.Tickets; i++ {
		g.Tickets = append(g.Tickets, GenerateTicket(i+1, rng))
	}
	g.Remaining = shuffledPool(rng)
	return g
}

func shuffledPool(rng *rand.Rand) []int {
	pool := make([]int, TotalNumbers)
	for i := range pool {
		pool[i] = i + 1
	}
	for i := len(pool) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool
}

// CallNext draws the next number at the given time. It returns 0, false
// once the pool is empty or the game is over.
func (g *Game) CallNext(now time.Time) (int, bool) {
	if g.Over || len(g.Remaining) == 0 {
		return 0, false
	}
	n := g.Remaining[0]
	g.Remaining = g.Remaining[1:]
	g.Called = append(g.Called, n)
	g.LastCall = now
	g.DetectWinners()
	return n, true
}

// Book assigns a ticket to an owner. Only active tickets are sellable,
// and booking closes once calling has started.
func (g *Game) Book(ticketID int, owner string) bool {
	if len(g.Called) > 0 || owner == "" {
		return false
	}
	for i := 0; i < g.activeCount(); i++ {
		if g.Tickets[i].ID == ticketID {
			if g.Tickets[i].Owner != "" {
				return false
			}
			g.Tickets[i].Owner = owner
			return true
		}
	}
	return false
}

// Unbook releases a ticket before calling starts. Only the owner may
// release it.
func (g *Game) Unbook(ticketID int, owner string) bool {
	if len(g.Called) > 0 {
		return false
	}
	for i := range g.Tickets {
		if g.Tickets[i].ID == ticketID && g.Tickets[i].Owner == owner {
			g.Tickets[i].Owner = ""
			return true
		}
	}
	return false
}

// activeCount is the size of the active window: the first TicketLimit
// tickets when the limit is set, every ticket otherwise. Only active
// tickets can be booked or win prizes.
func (g *Game) activeCount() int {
	if g.TicketLimit > 0 && g.TicketLimit < len(g.Tickets) {
		return g.TicketLimit
	}
	return len(g.Tickets)
}

// Reset re-creates the round from scratch: fresh unbooked tickets under
// the same ids and a fresh shuffled pool.
func (g *Game) Reset(rng *rand.Rand) {
	tickets := make([]Ticket, 0, len(g.Tickets))
	for i := range g.Tickets {
		tickets = append(tickets, GenerateTicket(g.Tickets[i].ID, rng))
	}
	g.Tickets = tickets
	g.Called = nil
	g.Winners = nil
	g.Remaining = shuffledPool(rng)
	g.Over = false
	g.AutoCalling = false
	g.LastCall = time.Time{}
}

// Clone deep-copies the game so transition callers can retry on a stale
// snapshot without aliasing.
func (g *Game) Clone() *Game {
	out := *g
	out.Tickets = append([]Ticket(nil), g.Tickets...)
	out.Called = append([]int(nil), g.Called...)
	out.Remaining = append([]int(nil), g.Remaining...)
	out.Winners = append([]Winner(nil), g.Winners...)
	out.Quotas = make(map[string]int, len(g.Quotas))
	for k, v := range g.Quotas {
		out.Quotas[k] = v
	}
	return &out
}
