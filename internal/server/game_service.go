package server

import (
	"encoding/json"
	"fmt"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/khelghar/gametable/internal/bot"
	"github.com/khelghar/gametable/internal/scheduler"
	"github.com/khelghar/gametable/internal/store"
	"github.com/khelghar/gametable/internal/teenpatti"
)

// GameService owns the betting tables. Every intent, including ticks,
// timeouts, and bot moves, funnels through the store transaction so the
// pure transition is the only writer of table documents.
type GameService struct {
	store  store.Store
	sched  *scheduler.Scheduler
	logger *log.Logger
	server *Server
	housie *HousieService

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	tables map[string]*tableRuntime
}

// tableRuntime is the per-table scheduling state. It is touched only from
// the table's snapshot goroutine, apart from the cancel funcs.
type tableRuntime struct {
	cfg  TableConfig
	path string

	cancelSub  func()
	cancelTick scheduler.Cancel

	lastBotKey      string
	lastSideShowKey string
	cancelSideShow  scheduler.Cancel
}

// NewGameService builds the service from config. Call Start to begin
// table loops, Stop to tear them down.
func NewGameService(st store.Store, sched *scheduler.Scheduler, logger *log.Logger, cfg *ServerConfig, rng *rand.Rand) *GameService {
	gs := &GameService{
		store:  st,
		sched:  sched,
		logger: logger.WithPrefix("game"),
		rng:    rng,
		tables: make(map[string]*tableRuntime),
	}
	for _, tc := range cfg.Tables {
		gs.tables[tc.Name] = &tableRuntime{
			cfg:  tc,
			path: "tables/" + tc.Name,
		}
	}
	if cfg.Housie != nil {
		gs.housie = NewHousieService(st, sched, logger, cfg, rng)
	}
	return gs
}

// SetServer wires the broadcast surface. Must be called before Start.
func (gs *GameService) SetServer(s *Server) {
	gs.server = s
	if gs.housie != nil {
		gs.housie.SetServer(s)
	}
}

// Start subscribes to every table document and begins the turn clocks.
func (gs *GameService) Start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, rt := range gs.tables {
		rt := rt
		ch, cancel := gs.store.Subscribe(rt.path)
		rt.cancelSub = cancel
		go func() {
			for snap := range ch {
				gs.onSnapshot(rt, snap)
			}
		}()
		rt.cancelTick = gs.sched.Every(time.Second, func() {
			gs.tick(rt)
		})
	}
	if gs.housie != nil {
		gs.housie.Start()
	}
}

// Stop cancels subscriptions and timers.
func (gs *GameService) Stop() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, rt := range gs.tables {
		if rt.cancelSub != nil {
			rt.cancelSub()
		}
		if rt.cancelTick != nil {
			rt.cancelTick()
		}
		if rt.cancelSideShow != nil {
			rt.cancelSideShow()
		}
	}
	if gs.housie != nil {
		gs.housie.Stop()
	}
}

// Housie returns the housie sub-service, nil when not configured.
func (gs *GameService) Housie() *HousieService {
	return gs.housie
}

// ListTables summarizes every configured table for the lobby listing.
func (gs *GameService) ListTables() []TableInfo {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	var out []TableInfo
	for name, rt := range gs.tables {
		info := TableInfo{
			ID:         name,
			Boot:       rt.cfg.Boot,
			MaxPlayers: rt.cfg.MaxPlayers,
			Status:     "open",
		}
		if snap := gs.store.ReadOnce(rt.path); snap.Exists() {
			var st teenpatti.TableState
			if err := json.Unmarshal(snap.Data, &st); err == nil {
				info.PlayerCount = len(st.Players)
				info.Status = string(st.GamePhase)
			}
		}
		out = append(out, info)
	}
	return out
}

// JoinTable seats a player, filling the configured bot seats alongside the
// first human.
func (gs *GameService) JoinTable(tableID, playerUID, playerName string) (int, error) {
	rt, err := gs.table(tableID)
	if err != nil {
		return 0, err
	}

	st, _, err := gs.apply(rt, teenpatti.Intent{
		Action:   teenpatti.ActionJoin,
		UniqueID: playerUID,
		Name:     playerName,
	})
	if err != nil {
		return 0, err
	}
	seat := st.SeatOf(playerUID)
	if seat == -1 {
		return 0, fmt.Errorf("table %s is full", tableID)
	}

	seated := 0
	for _, p := range st.Players {
		if p.IsBot {
			seated++
		}
	}
	for i := seated; i < rt.cfg.Bots; i++ {
		gs.rngMu.Lock()
		name := bot.RandomName(gs.rng)
		gs.rngMu.Unlock()
		if _, _, err := gs.apply(rt, teenpatti.Intent{
			Action:   teenpatti.ActionJoin,
			UniqueID: "bot-" + uuid.NewString(),
			Name:     name,
			IsBot:    true,
		}); err != nil {
			gs.logger.Error("Failed to seat bot", "table", tableID, "error", err)
		}
	}
	return st.Players[seat].ID, nil
}

// LeaveTable removes a player. Mid-hand this is an implicit fold first.
func (gs *GameService) LeaveTable(tableID, playerUID string) error {
	rt, err := gs.table(tableID)
	if err != nil {
		return err
	}
	st, changed, err := gs.apply(rt, teenpatti.Intent{
		Action:   teenpatti.ActionLeave,
		UniqueID: playerUID,
	})
	if err != nil {
		return err
	}

	// A lone human leaving strands the bots; clear them out with the table.
	if changed && onlyBots(st.Players) {
		for _, p := range st.Players {
			_, _, _ = gs.apply(rt, teenpatti.Intent{
				Action:   teenpatti.ActionLeave,
				UniqueID: p.UniqueID,
			})
		}
	}
	return nil
}

// HandleAction routes a gameplay intent from a client. Illegal actions
// no-op inside the transition, so there is nothing to reject here beyond
// an unknown table.
func (gs *GameService) HandleAction(tableID, playerUID string, action teenpatti.Action) error {
	rt, err := gs.table(tableID)
	if err != nil {
		return err
	}
	_, _, err = gs.apply(rt, teenpatti.Intent{Action: action, UniqueID: playerUID})
	return err
}

// HandleSideShowResponse answers a pending side-show on behalf of its
// target.
func (gs *GameService) HandleSideShowResponse(tableID, playerUID string, accept bool) error {
	action := teenpatti.ActionSideShowDeny
	if accept {
		action = teenpatti.ActionSideShowAccept
	}
	return gs.HandleAction(tableID, playerUID, action)
}

func (gs *GameService) table(tableID string) (*tableRuntime, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	rt, ok := gs.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", tableID)
	}
	return rt, nil
}

// apply runs one intent through the store transaction. A missing document
// is initialized as a fresh lobby, an empty roster afterwards deletes it.
func (gs *GameService) apply(rt *tableRuntime, in teenpatti.Intent) (teenpatti.TableState, bool, error) {
	var out teenpatti.TableState
	var changed bool

	_, err := gs.store.Transact(rt.path, func(current []byte) ([]byte, error) {
		var st teenpatti.TableState
		if current == nil {
			sessionEnd := gs.sched.Clock().Now().
				Add(time.Duration(rt.cfg.SessionMinutes) * time.Minute).UnixMilli()
			st = teenpatti.NewTable(rt.cfg.Boot, sessionEnd)
			st.MaxPlayers = rt.cfg.MaxPlayers
			st.TurnDuration = rt.cfg.TurnSeconds
			st.TurnTimeLeft = rt.cfg.TurnSeconds
		} else if err := json.Unmarshal(current, &st); err != nil {
			return nil, fmt.Errorf("corrupt table document %s: %w", rt.path, err)
		}

		gs.rngMu.Lock()
		next, ch := teenpatti.Apply(st, in, teenpatti.Env{
			Rand: gs.rng,
			Now:  gs.sched.Clock().Now(),
		})
		gs.rngMu.Unlock()

		out, changed = next, ch
		if !ch {
			return nil, store.ErrAborted
		}
		if len(next.Players) == 0 {
			return nil, nil
		}
		return json.Marshal(next)
	})
	if err == store.ErrAborted {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	return out, changed, nil
}

// tick drives the 1 Hz turn clock, converting an exhausted timer into a
// forced fold.
func (gs *GameService) tick(rt *tableRuntime) {
	st, changed, err := gs.apply(rt, teenpatti.Intent{Action: teenpatti.ActionTick})
	if err != nil {
		gs.logger.Error("Tick failed", "table", rt.cfg.Name, "error", err)
		return
	}
	if changed && st.TurnTimeLeft == 0 {
		if _, _, err := gs.apply(rt, teenpatti.Intent{Action: teenpatti.ActionTimeout}); err != nil {
			gs.logger.Error("Timeout failed", "table", rt.cfg.Name, "error", err)
		}
	}
}

// onSnapshot fans a committed document out to viewers and drives the
// bot seats.
func (gs *GameService) onSnapshot(rt *tableRuntime, snap store.Snapshot) {
	if !snap.Exists() {
		if gs.server != nil {
			gs.server.BroadcastTableClosed(rt.cfg.Name)
		}
		rt.lastBotKey = ""
		rt.lastSideShowKey = ""
		return
	}

	var st teenpatti.TableState
	if err := json.Unmarshal(snap.Data, &st); err != nil {
		gs.logger.Error("Corrupt table snapshot", "table", rt.cfg.Name, "error", err)
		return
	}

	if gs.server != nil {
		gs.server.BroadcastTableState(rt.cfg.Name, st)
	}
	gs.driveBots(rt, st)
}

func (gs *GameService) driveBots(rt *tableRuntime, st teenpatti.TableState) {
	if st.SideShowRequest == nil && rt.lastSideShowKey != "" {
		gs.clearSideShowTimer(rt)
		rt.lastSideShowKey = ""
		// A denied request leaves the initiator's turn untouched, so its
		// dedupe key still matches; drop it so the bot decides again.
		rt.lastBotKey = ""
	}

	if st.GamePhase != teenpatti.PhaseBetting || st.IsGameOver {
		rt.lastBotKey = ""
		return
	}

	if req := st.SideShowRequest; req != nil {
		key := fmt.Sprintf("%d>%d", req.InitiatorID, req.TargetID)
		if rt.lastSideShowKey == key {
			return
		}
		rt.lastSideShowKey = key

		// The target gets one turn window to answer; silence is a deny. The
		// timer is tied to this request so a late firing after a response
		// cannot fold whoever holds the turn by then.
		window := time.Duration(rt.cfg.TurnSeconds) * time.Second
		cancel := gs.sched.After(window, func() {
			gs.expireSideShow(rt, key)
		})
		gs.mu.Lock()
		rt.cancelSideShow = cancel
		gs.mu.Unlock()

		if target := playerByID(st.Players, req.TargetID); target != nil && target.IsBot {
			gs.scheduleBotResponse(rt, *target)
		}
		return
	}

	if st.CurrentPlayerIndex < 0 || st.CurrentPlayerIndex >= len(st.Players) {
		return
	}
	cur := st.Players[st.CurrentPlayerIndex]
	if !cur.IsBot {
		rt.lastBotKey = ""
		return
	}

	key := fmt.Sprintf("%s|%d|%d|%t", cur.UniqueID, st.BettingRound, st.Pot, cur.IsSeen)
	if rt.lastBotKey == key {
		return
	}
	rt.lastBotKey = key
	gs.scheduleBotTurn(rt, cur.UniqueID)
}

func (gs *GameService) scheduleBotTurn(rt *tableRuntime, botUID string) {
	gs.rngMu.Lock()
	delay := time.Duration(bot.ThinkTime(gs.rng)) * time.Millisecond
	gs.rngMu.Unlock()

	gs.sched.After(delay, func() {
		snap := gs.store.ReadOnce(rt.path)
		if !snap.Exists() {
			return
		}
		var st teenpatti.TableState
		if err := json.Unmarshal(snap.Data, &st); err != nil {
			return
		}
		seat := st.SeatOf(botUID)
		if seat == -1 || seat != st.CurrentPlayerIndex ||
			st.GamePhase != teenpatti.PhaseBetting || st.IsGameOver || st.SideShowRequest != nil {
			return
		}

		p := st.Players[seat]
		gs.rngMu.Lock()
		action := bot.Decide(p, st.ActiveCount(), st.Pot, st.BootAmount, st.BettingRound, gs.rng)
		gs.rngMu.Unlock()

		_, changed, err := gs.apply(rt, teenpatti.Intent{Action: action, UniqueID: botUID})
		if err != nil {
			gs.logger.Error("Bot action failed", "table", rt.cfg.Name, "bot", p.Name, "error", err)
			return
		}
		// A refused side-show request leaves no new snapshot to reschedule
		// from, so fall back to the plain bet.
		if !changed && action == teenpatti.ActionSideShow {
			_, _, _ = gs.apply(rt, teenpatti.Intent{Action: teenpatti.ActionChaal, UniqueID: botUID})
		}
	})
}

func (gs *GameService) scheduleBotResponse(rt *tableRuntime, target teenpatti.Player) {
	gs.rngMu.Lock()
	delay := time.Duration(bot.ThinkTime(gs.rng)) * time.Millisecond
	accept := bot.RespondSideShow(target.Cards, gs.rng)
	gs.rngMu.Unlock()

	gs.sched.After(delay, func() {
		action := teenpatti.ActionSideShowDeny
		if accept {
			action = teenpatti.ActionSideShowAccept
		}
		_, _, _ = gs.apply(rt, teenpatti.Intent{Action: action, UniqueID: target.UniqueID})
	})
}

// expireSideShow answers a still-pending request with a forced deny. It
// re-reads the document first: if the request it was armed for is gone or
// replaced, the timer is stale and must not touch the table.
func (gs *GameService) expireSideShow(rt *tableRuntime, key string) {
	snap := gs.store.ReadOnce(rt.path)
	if !snap.Exists() {
		return
	}
	var st teenpatti.TableState
	if err := json.Unmarshal(snap.Data, &st); err != nil {
		return
	}
	req := st.SideShowRequest
	if req == nil || fmt.Sprintf("%d>%d", req.InitiatorID, req.TargetID) != key {
		return
	}
	_, _, _ = gs.apply(rt, teenpatti.Intent{Action: teenpatti.ActionTimeout})
}

func (gs *GameService) clearSideShowTimer(rt *tableRuntime) {
	gs.mu.Lock()
	cancel := rt.cancelSideShow
	rt.cancelSideShow = nil
	gs.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func playerByID(players []teenpatti.Player, id int) *teenpatti.Player {
	for i := range players {
		if players[i].ID == id {
			return &players[i]
		}
	}
	return nil
}

func onlyBots(players []teenpatti.Player) bool {
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if !p.IsBot {
			return false
		}
	}
	return true
}
