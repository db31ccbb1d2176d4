// Package evaluator ranks three-card hands into a single totally-ordered
// integer so any two hands compare with plain arithmetic.
package evaluator

import (
	"sort"

	"github.com/khelghar/gametable/internal/deck"
)

// Category identifies the strength class of a three-card hand.
type Category int

const (
	Invalid Category = iota
	HighCard
	Pair
	Flush
	Straight
	StraightFlush
	Trio
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case Trio:
		return "Trio"
	case StraightFlush:
		return "Straight Flush"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case Pair:
		return "Pair"
	case HighCard:
		return "High Card"
	default:
		return "Invalid Hand"
	}
}

// Rank band offsets. Each category occupies its own 100000 band so the
// encoded rank orders across categories before tie-break values apply.
const (
	rankTrio          = 600000
	rankStraightFlush = 500000
	rankStraight      = 400000
	rankFlush         = 300000
	rankPair          = 200000
	rankHighCard      = 100000
)

// Result is the evaluation of a three-card hand. Rank is directly
// comparable between any two hands; Category names the band.
type Result struct {
	Rank     int      `json:"rank"`
	Category Category `json:"category"`
}

// InvalidHand is the sentinel returned for malformed input.
var InvalidHand = Result{Rank: 0, Category: Invalid}

// Evaluate ranks a three-card hand. Input that is not exactly three cards
// yields InvalidHand, never a panic or error.
func Evaluate(cards []deck.Card) Result {
	if len(cards) != 3 {
		return InvalidHand
	}

	v := []int{cards[0].Value(), cards[1].Value(), cards[2].Value()}
	sort.Sort(sort.Reverse(sort.IntSlice(v)))

	isFlush := cards[0].Suit == cards[1].Suit && cards[1].Suit == cards[2].Suit
	// A-3-2 plays as the lowest straight, ace low.
	isStraight := (v[0] == v[1]+1 && v[1] == v[2]+1) ||
		(v[0] == 14 && v[1] == 3 && v[2] == 2)

	switch {
	case v[0] == v[1] && v[1] == v[2]:
		return Result{Rank: rankTrio + v[0], Category: Trio}
	case isFlush && isStraight:
		return Result{Rank: rankStraightFlush + v[0], Category: StraightFlush}
	case isStraight:
		return Result{Rank: rankStraight + v[0], Category: Straight}
	case isFlush:
		return Result{Rank: rankFlush + v[0]*100 + v[1]*10 + v[2], Category: Flush}
	case v[0] == v[1] || v[1] == v[2]:
		pair, kicker := v[1], v[2]
		if v[1] == v[2] {
			kicker = v[0]
		}
		return Result{Rank: rankPair + pair*100 + kicker, Category: Pair}
	default:
		return Result{Rank: rankHighCard + v[0]*100 + v[1]*10 + v[2], Category: HighCard}
	}
}

// Compare returns >0 if a beats b, <0 if b beats a, and 0 on an exact tie.
// Callers resolving a tie award the positionally earlier hand; see Beats.
func Compare(a, b Result) int {
	return a.Rank - b.Rank
}

// Beats reports whether hand a wins a showdown against hand b. Exact rank
// ties go to a, the positionally earlier player.
func Beats(a, b Result) bool {
	return a.Rank >= b.Rank
}
