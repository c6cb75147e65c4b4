package main

import (
	"time"

	"github.com/coder/quartz"

	"github.com/lox/liarsdice/cmd/liarsdice/shared"
	"github.com/lox/liarsdice/internal/config"
	"github.com/lox/liarsdice/internal/engine"
	"github.com/lox/liarsdice/internal/messenger"
	"github.com/lox/liarsdice/internal/randutil"
	"github.com/lox/liarsdice/internal/server"
	"github.com/lox/liarsdice/internal/store"
)

// ServerCmd runs the game server. Flags override the config file, which
// overrides built-in defaults.
type ServerCmd struct {
	Config   string `short:"c" default:"liarsdice.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Address to bind to (overrides config)"`
	Port     int    `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
	Seed     *int64 `help:"Deterministic RNG seed (overrides config)"`
}

func (c *ServerCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Server.LogFile = c.LogFile
	}
	if c.Seed != nil {
		cfg.Game.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := shared.NewLogger(cfg.Server.LogLevel, cfg.Server.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	seed := cfg.Game.Seed
	if seed != 0 {
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}

	hub := server.NewHub(logger)
	eng := engine.New(
		store.New(),
		messenger.New(hub, quartz.NewReal(), logger),
		randutil.NewLocked(seed),
		logger,
		engine.WithStartingDice(cfg.Game.StartingDice),
		engine.WithMinPlayers(cfg.Game.MinPlayers),
	)
	srv := server.NewServer(eng, hub, logger)

	logger.Info("Starting Liar's Dice server",
		"addr", cfg.ListenAddr(),
		"starting_dice", cfg.Game.StartingDice,
		"min_players", cfg.Game.MinPlayers)

	ctx := shared.SetupSignalHandler(logger)
	return srv.ListenAndServe(ctx, cfg.ListenAddr())
}
