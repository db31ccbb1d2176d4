package server

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/khelghar/gametable/internal/housie"
	"github.com/khelghar/gametable/internal/scheduler"
	"github.com/khelghar/gametable/internal/store"
)

const housiePath = "housie/main"

// ErrBadPassword rejects admin operations with a wrong or missing
// password.
var ErrBadPassword = fmt.Errorf("invalid admin password")

// HousieService runs the single number-calling game. Calling, booking,
// and resets all go through the store document, mirroring how the betting
// tables work.
type HousieService struct {
	store         store.Store
	sched         *scheduler.Scheduler
	logger        *log.Logger
	server        *Server
	cfg           *HousieConfig
	adminPassword string

	rngMu sync.Mutex
	rng   *rand.Rand

	mu          sync.Mutex
	cancelSub   func()
	cancelAuto  scheduler.Cancel
	lastCalled  int
	lastWinners int
}

func NewHousieService(st store.Store, sched *scheduler.Scheduler, logger *log.Logger, cfg *ServerConfig, rng *rand.Rand) *HousieService {
	return &HousieService{
		store:         st,
		sched:         sched,
		logger:        logger.WithPrefix("housie"),
		cfg:           cfg.Housie,
		adminPassword: cfg.Server.AdminPassword,
		rng:           rng,
	}
}

func (hs *HousieService) SetServer(s *Server) {
	hs.server = s
}

func (hs *HousieService) Start() {
	ch, cancel := hs.store.Subscribe(housiePath)
	hs.mu.Lock()
	hs.cancelSub = cancel
	hs.mu.Unlock()
	go func() {
		for snap := range ch {
			hs.onSnapshot(snap)
		}
	}()
}

func (hs *HousieService) Stop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	if hs.cancelSub != nil {
		hs.cancelSub()
	}
	if hs.cancelAuto != nil {
		hs.cancelAuto()
		hs.cancelAuto = nil
	}
}

// Current returns the latest game state, creating the document on first
// access so subscribers always have tickets to book.
func (hs *HousieService) Current() (*housie.Game, error) {
	g, err := hs.transact(func(g *housie.Game) error { return nil })
	return g, err
}

// Book claims a ticket for a player before calling starts.
func (hs *HousieService) Book(playerUID string, ticketID int) error {
	_, err := hs.transact(func(g *housie.Game) error {
		if !g.Book(ticketID, playerUID) {
			return fmt.Errorf("ticket %d not available", ticketID)
		}
		return nil
	})
	return err
}

// Unbook releases a ticket the player booked.
func (hs *HousieService) Unbook(playerUID string, ticketID int) error {
	_, err := hs.transact(func(g *housie.Game) error {
		if !g.Unbook(ticketID, playerUID) {
			return fmt.Errorf("ticket %d not booked by you", ticketID)
		}
		return nil
	})
	return err
}

// Call draws the next number. Admin only.
func (hs *HousieService) Call(password string) (int, error) {
	if err := hs.checkAdmin(password); err != nil {
		return 0, err
	}
	var called int
	_, err := hs.transact(func(g *housie.Game) error {
		n, ok := g.CallNext(hs.sched.Clock().Now())
		if !ok {
			return fmt.Errorf("no numbers left to call")
		}
		called = n
		return nil
	})
	return called, err
}

// SetAutoPlay toggles scheduler-driven calling. Admin only.
func (hs *HousieService) SetAutoPlay(password string, enable bool) error {
	if err := hs.checkAdmin(password); err != nil {
		return err
	}
	_, err := hs.transact(func(g *housie.Game) error {
		if g.Over {
			return fmt.Errorf("game is over")
		}
		g.AutoCalling = enable
		return nil
	})
	return err
}

// Reset starts a new round from scratch. Admin only.
func (hs *HousieService) Reset(password string) error {
	if err := hs.checkAdmin(password); err != nil {
		return err
	}
	_, err := hs.transact(func(g *housie.Game) error {
		hs.rngMu.Lock()
		g.Reset(hs.rng)
		hs.rngMu.Unlock()
		return nil
	})
	return err
}

func (hs *HousieService) checkAdmin(password string) error {
	if hs.adminPassword == "" || password != hs.adminPassword {
		return ErrBadPassword
	}
	return nil
}

// transact loads the game document, applies fn to a private copy, and
// commits. A missing document is initialized with fresh tickets.
func (hs *HousieService) transact(fn func(*housie.Game) error) (*housie.Game, error) {
	var out *housie.Game
	_, err := hs.store.Transact(housiePath, func(current []byte) ([]byte, error) {
		var g *housie.Game
		if current == nil {
			start, _ := hs.cfg.StartTime()
			hs.rngMu.Lock()
			g = housie.NewGame(housie.Config{
				Tickets:        hs.cfg.Tickets,
				TicketLimit:    hs.cfg.TicketLimit,
				PrizeQuotas:    hs.cfg.PrizeQuotas(),
				ScheduledStart: start,
			}, hs.rng)
			hs.rngMu.Unlock()
		} else {
			g = &housie.Game{}
			if err := json.Unmarshal(current, g); err != nil {
				return nil, fmt.Errorf("corrupt housie document: %w", err)
			}
		}
		if err := fn(g); err != nil {
			return nil, err
		}
		out = g
		return json.Marshal(g)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (hs *HousieService) onSnapshot(snap store.Snapshot) {
	if !snap.Exists() {
		return
	}
	var g housie.Game
	if err := json.Unmarshal(snap.Data, &g); err != nil {
		hs.logger.Error("Corrupt housie snapshot", "error", err)
		return
	}

	if hs.server != nil {
		hs.server.BroadcastHousieState(&g)
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()

	if len(g.Called) < hs.lastCalled {
		// A reset rewound the history.
		hs.lastCalled, hs.lastWinners = 0, 0
	}
	if hs.server != nil {
		if len(g.Called) > hs.lastCalled {
			hs.server.BroadcastHousie(MessageTypeNumberCalled, NumberCalledData{
				Number: g.Called[len(g.Called)-1],
				Count:  len(g.Called),
			})
		}
		if len(g.Winners) > hs.lastWinners {
			hs.server.BroadcastHousie(MessageTypePrizeAwarded, PrizeAwardedData{
				Winners: append([]housie.Winner(nil), g.Winners[hs.lastWinners:]...),
			})
		}
	}
	hs.lastCalled = len(g.Called)
	hs.lastWinners = len(g.Winners)
	switch {
	case g.AutoCalling && !g.Over && hs.cancelAuto == nil:
		interval := time.Duration(hs.cfg.CallIntervalSeconds) * time.Second
		hs.cancelAuto = hs.sched.Every(interval, hs.autoCall)
	case (!g.AutoCalling || g.Over) && hs.cancelAuto != nil:
		hs.cancelAuto()
		hs.cancelAuto = nil
	}
}

func (hs *HousieService) autoCall() {
	_, err := hs.transact(func(g *housie.Game) error {
		if !g.AutoCalling || g.Over {
			return store.ErrAborted
		}
		g.CallNext(hs.sched.Clock().Now())
		return nil
	})
	if err != nil && err != store.ErrAborted {
		hs.logger.Error("Auto call failed", "error", err)
	}
}
