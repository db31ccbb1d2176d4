package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/khelghar/gametable/internal/simulator"
)

// SimulateCmd plays bot-only hands through the engine
type SimulateCmd struct {
	Hands   int    `kong:"default='100',help='Number of hands to play'"`
	Players int    `kong:"default='4',help='Bots per table (2-4)'"`
	Boot    int    `kong:"default='10',help='Boot amount'"`
	Seed    *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := setupLogger("info", c.Debug)

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info("Starting simulation", "hands", c.Hands, "players", c.Players, "seed", seed)

	sim := simulator.New(simulator.Config{
		Hands:   c.Hands,
		Players: c.Players,
		Boot:    c.Boot,
		Seed:    seed,
		Logger:  logger,
	})

	start := time.Now()
	results, err := sim.Run()
	if err != nil {
		return err
	}

	fmt.Printf("Played %d hands in %s\n\n", results.Hands, time.Since(start).Round(time.Millisecond))

	fmt.Println("Wins by seat:")
	for _, name := range sortedKeys(results.WinsBySeat) {
		fmt.Printf("  %-10s %4d (%.1f%%)\n", name, results.WinsBySeat[name],
			100*float64(results.WinsBySeat[name])/float64(results.Hands))
	}

	fmt.Println("\nWinning hands:")
	for _, name := range sortedKeys(results.HandNames) {
		fmt.Printf("  %-22s %4d\n", name, results.HandNames[name])
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
