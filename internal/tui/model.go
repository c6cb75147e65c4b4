// Package tui is an interactive terminal client for the game server.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

const sidebarWidth = 28

// Sender submits requests to the server.
type Sender interface {
	Send(req protocol.Request) (string, error)
}

type frameMsg protocol.Frame

type disconnectedMsg struct{ err error }

// Model is the Bubble Tea model for a player's view of one session.
type Model struct {
	sender Sender
	frames <-chan protocol.Frame
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	input       textinput.Model
	lines       []string
	width       int
	height      int
	quitting    bool

	// Session state, rebuilt from events
	selfID    string
	sessionID string
	pending   map[string]string
	players   []game.PlayerView
	roll      []int
	turn      string
	lastClaim *game.Claim
	finished  bool
}

// NewModel creates a model sending through sender and reading frames until
// the channel closes.
func NewModel(sender Sender, frames <-chan protocol.Frame, selfID string, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Placeholder = "create, join <session> <name>, help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	return &Model{
		sender:      sender,
		frames:      frames,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		selfID:      selfID,
		pending:     make(map[string]string),
	}
}

// SetSession sets the session commands apply to when none is given
func (m *Model) SetSession(id string) { m.sessionID = id }

// Lines returns the log lines shown so far
func (m *Model) Lines() []string { return m.lines }

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForFrame())
}

func (m *Model) waitForFrame() tea.Cmd {
	if m.frames == nil {
		return nil
	}
	return func() tea.Msg {
		f, ok := <-m.frames
		if !ok {
			return disconnectedMsg{}
		}
		return frameMsg(f)
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if m.submit(line) {
				m.quitting = true
				return m, tea.Quit
			}
		case "pgup":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}

	case frameMsg:
		m.handleFrame(protocol.Frame(msg))
		cmds = append(cmds, m.waitForFrame())

	case disconnectedMsg:
		m.addLine(ErrorStyle.Render("Disconnected from server"))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles a prompt line and reports whether to quit.
func (m *Model) submit(line string) bool {
	switch strings.ToLower(line) {
	case "":
		return false
	case "quit", "exit":
		return true
	case "help", "?":
		m.addLine(InfoStyle.Render(Help))
		return false
	}

	req, err := ParseCommand(line, m.sessionID)
	if err != nil {
		m.addLine(ErrorStyle.Render(err.Error()))
		return false
	}

	id, err := m.sender.Send(req)
	if err != nil {
		m.addLine(ErrorStyle.Render(err.Error()))
		return false
	}
	m.pending[id] = req.Type
	m.addLine(InfoStyle.Render("> " + line))
	return false
}

func (m *Model) handleFrame(f protocol.Frame) {
	switch {
	case f.IsResult():
		m.handleResult(f.AsResult())
	case f.IsEvent():
		ev, err := protocol.ToGame(f.AsEvent())
		if err != nil {
			m.logger.Warn("Ignoring undecodable event", "error", err)
			return
		}
		m.addLine(Describe(ev, m.name))
		m.apply(ev)
	case f.IsWelcome():
		m.selfID = f.ParticipantID
	}
}

func (m *Model) handleResult(r protocol.Result) {
	typ := m.pending[r.RequestID]
	delete(m.pending, r.RequestID)

	if !r.Success {
		msg := "request failed"
		if r.Error != nil {
			msg = r.Error.Message
		}
		m.addLine(ErrorStyle.Render(fmt.Sprintf("%s: %s", typ, msg)))
		return
	}

	switch typ {
	case protocol.TypeCreate:
		var v protocol.CreatedValue
		if err := json.Unmarshal(r.Value, &v); err != nil {
			m.logger.Warn("Bad create result", "error", err)
			return
		}
		m.sessionID = v.SessionID
		m.addLine(SuccessStyle.Render("Created session " + v.SessionID + ". Join it with: join " + v.SessionID + " <name>"))

	case protocol.TypeJoin:
		var v protocol.JoinedValue
		if err := json.Unmarshal(r.Value, &v); err != nil {
			m.logger.Warn("Bad join result", "error", err)
			return
		}
		m.sessionID = v.SessionID
		for _, p := range v.Players {
			m.upsert(p)
		}

	case protocol.TypeHistory:
		var v protocol.HistoryValue
		if err := json.Unmarshal(r.Value, &v); err != nil {
			m.logger.Warn("Bad history result", "error", err)
			return
		}
		m.addLine(InfoStyle.Render(fmt.Sprintf("History (%d events):", len(v.Events))))
		for _, we := range v.Events {
			ev, err := protocol.ToGame(we)
			if err != nil {
				continue
			}
			m.addLine(fmt.Sprintf("  #%d %s", ev.Seq, Describe(ev, m.name)))
		}
	}
}

// apply folds an event into the sidebar state.
func (m *Model) apply(ev game.Event) {
	switch p := ev.Payload.(type) {
	case game.PlayerJoined:
		m.upsert(p.Player)
	case game.RoundStarted:
		m.roll = p.Player.CurrentRoll
		m.turn = p.StartingPlayerID
		m.lastClaim = nil
		m.upsert(p.Player.View())
	case game.Claim:
		m.lastClaim = &p
		m.turn = p.NextPlayerID
	case game.RoundResult:
		m.upsert(p.Accuser)
		m.upsert(p.Accused)
		m.lastClaim = nil
		m.turn = ""
		if p.LoserEliminated && p.LoserID() == m.selfID {
			m.roll = nil
		}
	case game.GameOver:
		m.upsert(p.Winner)
		m.finished = true
		m.turn = ""
	case game.NameChanged:
		for i := range m.players {
			if m.players[i].UserID == p.PlayerID {
				m.players[i].DisplayName = p.Name
			}
		}
	}
}

func (m *Model) upsert(v game.PlayerView) {
	for i := range m.players {
		if m.players[i].UserID == v.UserID {
			m.players[i] = v
			return
		}
	}
	m.players = append(m.players, v)
}

func (m *Model) name(id string) string {
	if id == m.selfID {
		return "You"
	}
	for _, p := range m.players {
		if p.UserID == id {
			return p.DisplayName
		}
	}
	return id
}

func (m *Model) addLine(line string) {
	m.lines = append(m.lines, line)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	m.logViewport.GotoBottom()
}

func (m *Model) resize() {
	w := m.width - sidebarWidth - 4
	h := m.height - 5
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
	m.input.Width = max(m.width-6, 1)
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(m.logViewport.Height).
		Render(m.logViewport.View())

	sidebar := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(m.logViewport.Height).
		Render(m.renderSidebar())

	input := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Top,
		lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebar),
		input)
}

func (m *Model) renderSidebar() string {
	var b strings.Builder

	if m.sessionID == "" {
		b.WriteString(InfoStyle.Render("No session"))
		return b.String()
	}
	b.WriteString(InfoStyle.Render("Session " + m.sessionID))
	b.WriteString("\n\n")

	for _, p := range m.players {
		marker := "  "
		if p.UserID == m.turn {
			marker = "▶ "
		}
		line := fmt.Sprintf("%s%s: %d", marker, m.name(p.UserID), p.DiceCount)
		if p.Eliminated {
			line = InfoStyle.Render(line + " (out)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString("Dice: " + DiceStyle.Render(FormatRoll(m.roll)))
	if m.lastClaim != nil {
		b.WriteString("\nClaim: " + ClaimStyle.Render(FormatClaim(m.lastClaim.Quantity, m.lastClaim.Value)))
	}
	if m.finished {
		b.WriteString("\n" + WarningStyle.Render("Game over"))
	} else if m.turn == m.selfID && m.selfID != "" {
		b.WriteString("\n" + SuccessStyle.Render("Your turn"))
	}
	return b.String()
}
