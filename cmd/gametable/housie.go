package main

import (
	"fmt"
	"time"

	"github.com/khelghar/gametable/internal/housie"
	"github.com/khelghar/gametable/internal/randutil"
)

// HousieCmd plays a complete round against the terminal
type HousieCmd struct {
	Tickets int    `kong:"default='4',help='Tickets to print and play'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *HousieCmd) Run() error {
	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng := randutil.New(seed)

	game := housie.NewGame(housie.Config{Tickets: c.Tickets}, rng)
	for i := range game.Tickets {
		game.Book(game.Tickets[i].ID, "you")
	}

	fmt.Printf("Housie round, seed %d\n\n", seed)
	for _, t := range game.Tickets {
		printTicket(t)
	}

	seen := 0
	for {
		n, ok := game.CallNext(time.Now())
		if !ok {
			break
		}
		fmt.Printf("Call %2d: %2d", len(game.Called), n)
		for _, w := range game.Winners[seen:] {
			fmt.Printf("   ** ticket %d wins %s **", w.TicketID, w.Prize)
		}
		seen = len(game.Winners)
		fmt.Println()
	}

	fmt.Printf("\nGame over after %d calls, %d prizes awarded\n", len(game.Called), len(game.Winners))
	return nil
}

func printTicket(t housie.Ticket) {
	fmt.Printf("Ticket %d:\n", t.ID)
	for r := 0; r < 3; r++ {
		for c := 0; c < 9; c++ {
			if t.Grid[r][c] == 0 {
				fmt.Print("  --")
			} else {
				fmt.Printf("  %2d", t.Grid[r][c])
			}
		}
		fmt.Println()
	}
	fmt.Println()
}
