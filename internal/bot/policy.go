// Package bot holds the table bots' decision policy. Decide is a pure
// function over an injected RNG so a real bot turn and a test harness see
// exactly the same behaviour.
package bot

import (
	rand "math/rand/v2"

	"github.com/khelghar/gametable/internal/deck"
	"github.com/khelghar/gametable/internal/evaluator"
	"github.com/khelghar/gametable/internal/teenpatti"
)

// Names bots draw their table names from.
var Names = []string{
	"Viper", "Maverick", "Goose", "Iceman", "Rooster", "Phoenix",
	"Bob", "Alice", "Charlie", "Delta", "Rocky", "Ace", "King", "Queen", "Jack",
}

// RandomName picks a bot display name.
func RandomName(rng *rand.Rand) string {
	return Names[rng.IntN(len(Names))]
}

// tierOf maps an evaluation into a 1-5 strength tier. Trio and straight
// flush share the top tier.
func tierOf(r evaluator.Result) int {
	switch r.Category {
	case evaluator.Trio, evaluator.StraightFlush:
		return 5
	case evaluator.Straight:
		return 4
	case evaluator.Flush:
		return 3
	case evaluator.Pair:
		return 2
	case evaluator.HighCard:
		return 1
	default:
		return 0
	}
}

// sideShowChance is indexed by tier.
var sideShowChance = []float64{0, 0, 0.2, 0.3, 0.5, 0.6}

// Decide returns the action a bot takes on its turn, given its private hand
// and the public table situation. bettingRound starts at 1 on the deal.
func Decide(p teenpatti.Player, activePlayerCount, pot, bootAmount, bettingRound int, rng *rand.Rand) teenpatti.Action {
	canAffordBlind := p.Chips >= bootAmount
	canAffordSeen := p.Chips >= bootAmount*2

	if !p.IsSeen {
		if !canAffordBlind {
			return teenpatti.ActionFold
		}

		// More likely to look at the cards as rounds progress.
		seeChance := 0.10 + float64(bettingRound)*0.15
		if rng.Float64() < seeChance {
			return teenpatti.ActionSee
		}

		// A swelling pot makes a blind bot nervous enough to look.
		if p.InitialChips > 0 && pot > p.InitialChips/4 && rng.Float64() < 0.3 {
			return teenpatti.ActionSee
		}

		return teenpatti.ActionChaal
	}

	if !canAffordSeen {
		return teenpatti.ActionFold
	}

	hand := evaluator.Evaluate(p.Cards)
	tier := tierOf(hand)

	// Side-shows only make sense with more than two players active, and
	// only with a hand worth comparing.
	if activePlayerCount > 2 && tier >= 2 {
		if rng.Float64() < sideShowChance[tier] {
			return teenpatti.ActionSideShow
		}
	}

	switch {
	case tier <= 1:
		// High card mostly folds, with an occasional bluff while the pot
		// is still cheap relative to the stack.
		bluffChance := 0.10
		if activePlayerCount <= 2 {
			bluffChance = 0.25
		}
		if p.InitialChips > 0 && pot < (p.InitialChips*3)/10 && rng.Float64() < bluffChance {
			return teenpatti.ActionChaal
		}
		return teenpatti.ActionFold

	case tier == 2:
		// A weak pair lets go when the pot outgrows it.
		pairValue := (hand.Rank - 200000) / 100
		if p.InitialChips > 0 && pairValue < 8 && pot > p.InitialChips/2 && rng.Float64() < 0.4 {
			return teenpatti.ActionFold
		}
		return teenpatti.ActionChaal

	default:
		// Flush or better almost never folds.
		return teenpatti.ActionChaal
	}
}

// RespondSideShow decides whether a bot accepts a side-show request against
// its hand: always with a pair or better, otherwise a 20% gamble.
func RespondSideShow(cards []deck.Card, rng *rand.Rand) bool {
	hand := evaluator.Evaluate(cards)
	if tierOf(hand) >= 2 {
		return true
	}
	return rng.Float64() < 0.2
}

// ThinkTime returns a randomized bot delay between 1s and 2.5s, expressed
// in milliseconds. The scheduler turns it into a delayed action.
func ThinkTime(rng *rand.Rand) int {
	return 1000 + rng.IntN(1500)
}
