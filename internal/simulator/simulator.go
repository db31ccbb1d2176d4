// Package simulator plays bot-only hands through the pure transition,
// with no server or clock in the loop. It exists to exercise the engine
// end to end and to eyeball bot behaviour over many seeded hands.
package simulator

import (
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/khelghar/gametable/internal/bot"
	"github.com/khelghar/gametable/internal/randutil"
	"github.com/khelghar/gametable/internal/teenpatti"
)

// Config holds configuration for running simulations
type Config struct {
	Hands   int
	Players int
	Boot    int
	Seed    int64
	Logger  *log.Logger
}

// HandResult summarizes one completed hand.
type HandResult struct {
	Winner   string
	HandName string
	Steps    int
}

// Results aggregates a full simulation run.
type Results struct {
	Hands      int
	WinsBySeat map[string]int
	HandNames  map[string]int
	Results    []HandResult
}

// Simulator runs betting hands between bots
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Players < 2 {
		config.Players = 4
	}
	if config.Players > teenpatti.MaxSeats {
		config.Players = teenpatti.MaxSeats
	}
	if config.Boot <= 0 {
		config.Boot = 10
	}
	return &Simulator{config: config}
}

// stepLimit bounds one hand. Chip depletion forces folds well before
// this, so hitting it means the transition stopped making progress.
const stepLimit = 20000

// Run executes the simulation and returns aggregated results. Hands are
// independently seeded, so they play in parallel and still aggregate
// deterministically in hand order.
func (s *Simulator) Run() (*Results, error) {
	played := make([]HandResult, s.config.Hands)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for hand := 0; hand < s.config.Hands; hand++ {
		hand := hand
		g.Go(func() error {
			env := teenpatti.Env{Rand: randutil.New(s.config.Seed + int64(hand))}
			result, err := s.playHand(env)
			if err != nil {
				return fmt.Errorf("hand %d: %w", hand+1, err)
			}
			played[hand] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := &Results{
		WinsBySeat: make(map[string]int),
		HandNames:  make(map[string]int),
		Results:    played,
	}
	for hand, result := range played {
		results.Hands++
		results.WinsBySeat[result.Winner]++
		results.HandNames[result.HandName]++

		if s.config.Logger != nil {
			s.config.Logger.Debug("Hand complete",
				"hand", hand+1,
				"winner", result.Winner,
				"with", result.HandName,
				"steps", result.Steps)
		}
	}

	return results, nil
}

// playHand seats the bots, deals, and steps the transition until the hand
// resolves.
func (s *Simulator) playHand(env teenpatti.Env) (HandResult, error) {
	st := teenpatti.NewTable(s.config.Boot, 0)

	var ok bool
	for i := 0; i < s.config.Players; i++ {
		st, ok = teenpatti.Apply(st, teenpatti.Intent{
			Action:   teenpatti.ActionJoin,
			UniqueID: fmt.Sprintf("seat-%d", i),
			Name:     fmt.Sprintf("Seat %d", i),
			IsBot:    true,
		}, env)
		if !ok {
			return HandResult{}, fmt.Errorf("seat %d rejected", i)
		}
	}

	st, ok = teenpatti.Apply(st, teenpatti.Intent{Action: teenpatti.ActionDeal}, env)
	if !ok {
		return HandResult{}, fmt.Errorf("deal rejected")
	}

	before := st.TotalChips()
	steps := 0
	for !st.IsGameOver {
		steps++
		if steps > stepLimit {
			return HandResult{}, fmt.Errorf("no progress after %d steps", stepLimit)
		}

		next, changed := teenpatti.Apply(st, s.nextIntent(st, env), env)
		if changed {
			st = next
		}
	}

	if after := st.TotalChips(); after != before {
		return HandResult{}, fmt.Errorf("chips not conserved: %d -> %d", before, after)
	}
	if st.WinnerInfo.Winner == nil {
		return HandResult{}, fmt.Errorf("hand over without a winner")
	}

	return HandResult{
		Winner:   st.WinnerInfo.Winner.Name,
		HandName: st.WinnerInfo.HandName,
		Steps:    steps,
	}, nil
}

// nextIntent picks the move the engine is waiting on: the side-show
// target's answer when one is pending, otherwise the current seat's
// decision.
func (s *Simulator) nextIntent(st teenpatti.TableState, env teenpatti.Env) teenpatti.Intent {
	if req := st.SideShowRequest; req != nil {
		target := playerByID(st.Players, req.TargetID)
		action := teenpatti.ActionSideShowDeny
		if target != nil && bot.RespondSideShow(target.Cards, env.Rand) {
			action = teenpatti.ActionSideShowAccept
		}
		uid := ""
		if target != nil {
			uid = target.UniqueID
		}
		return teenpatti.Intent{Action: action, UniqueID: uid}
	}

	cur := st.Players[st.CurrentPlayerIndex]
	action := bot.Decide(cur, st.ActiveCount(), st.Pot, st.BootAmount, st.BettingRound, env.Rand)

	// A side-show against a blind target no-ops; bet instead so the hand
	// keeps moving.
	if action == teenpatti.ActionSideShow {
		if probe, changed := teenpatti.Apply(st, teenpatti.Intent{
			Action: action, UniqueID: cur.UniqueID,
		}, env); !changed || probe.SideShowRequest == nil {
			action = teenpatti.ActionChaal
		}
	}

	return teenpatti.Intent{Action: action, UniqueID: cur.UniqueID}
}

func playerByID(players []teenpatti.Player, id int) *teenpatti.Player {
	for i := range players {
		if players[i].ID == id {
			return &players[i]
		}
	}
	return nil
}
