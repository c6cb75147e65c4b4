package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/liarsdice/cmd/liarsdice/shared"
	"github.com/lox/liarsdice/internal/client"
	"github.com/lox/liarsdice/internal/tui"
)

// ClientCmd connects an interactive terminal client
type ClientCmd struct {
	Server      string `short:"s" default:"ws://localhost:8080/ws" env:"LIARSDICE_SERVER" help:"Server WebSocket URL"`
	Participant string `help:"Resume as an existing participant id"`
	Session     string `help:"Session to send commands to"`
	LogLevel    string `short:"l" default:"info" help:"Log level"`
	LogFile     string `default:"liarsdice-client.log" help:"Log file path"`
}

func (c *ClientCmd) Run() error {
	// The terminal belongs to the UI, so logs always go to a file
	logger, closeLog, err := shared.NewLogger(c.LogLevel, c.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	tui.DetectColorProfile()
	ctx := shared.SetupSignalHandler(logger)

	conn, err := client.Dial(ctx, c.Server, c.Participant, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	model := tui.NewModel(conn, conn.Frames(), conn.ParticipantID(), logger)
	if c.Session != "" {
		model.SetSession(c.Session)
	}

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	fmt.Printf("Reconnect with --participant %s\n", conn.ParticipantID())
	return nil
}
