package main

import (
	rand "math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/quartz"

	"github.com/khelghar/gametable/internal/randutil"
	"github.com/khelghar/gametable/internal/scheduler"
	"github.com/khelghar/gametable/internal/server"
	"github.com/khelghar/gametable/internal/store"
)

// ServeCmd runs the WebSocket server
type ServeCmd struct {
	Config string `kong:"default='gametable.hcl',help='Path to the HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg.Server.LogLevel, c.Debug)

	var rng *rand.Rand
	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	rng = randutil.New(seed)
	logger.Info("Seeded RNG", "seed", seed)

	sched := scheduler.New(quartz.NewReal())
	defer sched.Stop()

	gs := server.NewGameService(store.NewMemStore(), sched, logger, cfg, rng)
	srv := server.NewServer(cfg.GetServerAddress(), logger)
	srv.SetGameService(gs)

	gs.Start()
	defer gs.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-sigChan:
		logger.Info("Shutting down", "signal", sig)
		return srv.Stop()
	}
}
