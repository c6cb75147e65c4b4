package main

import (
	"fmt"
	"time"

	"github.com/lox/liarsdice/cmd/liarsdice/shared"
	"github.com/lox/liarsdice/internal/bot"
	"github.com/lox/liarsdice/internal/client"
	"github.com/lox/liarsdice/internal/randutil"
)

// BotCmd joins a session and plays it automatically
type BotCmd struct {
	Server   string `short:"s" default:"ws://localhost:8080/ws" env:"LIARSDICE_SERVER" help:"Server WebSocket URL"`
	Session  string `arg:"" help:"Session to join"`
	Name     string `short:"n" default:"Bot" help:"Display name"`
	Strategy string `default:"odds" enum:"odds,random" help:"Strategy: odds or random"`
	StartAt  int    `help:"Start the session once this many players have joined"`
	Seed     *int64 `help:"Seed for the random strategy"`
	LogLevel string `short:"l" default:"info" help:"Log level"`
}

func (c *BotCmd) Run() error {
	logger, closeLog, err := shared.NewLogger(c.LogLevel, "")
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	var strategy bot.Strategy = bot.NewOddsBot()
	if c.Strategy == "random" {
		seed := time.Now().UnixNano()
		if c.Seed != nil {
			seed = *c.Seed
		}
		strategy = bot.NewRandBot(randutil.New(seed))
	}

	ctx := shared.SetupSignalHandler(logger)
	conn, err := client.Dial(ctx, c.Server, "", logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	var opts []bot.RunnerOption
	if c.StartAt > 0 {
		opts = append(opts, bot.StartWhen(c.StartAt))
	}

	winner, err := bot.NewRunner(conn, strategy, c.Session, c.Name, logger, opts...).Run(ctx)
	if err != nil {
		return err
	}
	if winner == conn.ParticipantID() {
		fmt.Println("Won")
	} else {
		fmt.Println("Lost")
	}
	return nil
}
