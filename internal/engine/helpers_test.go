package engine

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/messenger"
	"github.com/lox/liarsdice/internal/messenger/messengertest"
	"github.com/lox/liarsdice/internal/randutil"
	"github.com/lox/liarsdice/internal/store"
)

type harness struct {
	t       *testing.T
	store   *store.Store
	dir     *messenger.MemoryDirectory
	engine  *Engine
	inboxes map[string]*messengertest.Inbox
	nextID  int
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		t:       t,
		store:   store.New(),
		dir:     messenger.NewMemoryDirectory(),
		inboxes: make(map[string]*messengertest.Inbox),
	}
	logger := log.New(io.Discard)
	m := messenger.New(h.dir, quartz.NewMock(t), logger)
	opts = append([]Option{WithIDGenerator(func() string {
		h.nextID++
		return fmt.Sprintf("session-%d", h.nextID)
	})}, opts...)
	h.engine = New(h.store, m, randutil.NewLocked(42), logger, opts...)
	return h
}

// connect gives each player a live inbox.
func (h *harness) connect(ids ...string) {
	for _, id := range ids {
		inbox := &messengertest.Inbox{}
		h.inboxes[id] = inbox
		h.dir.Register(id, inbox)
	}
}

// lobby has the first player create a session and every player join it.
func (h *harness) lobby(ids ...string) string {
	h.t.Helper()

	id, err := h.engine.CreateSession(ids[0])
	require.NoError(h.t, err)
	for _, p := range ids {
		_, err := h.engine.JoinSession(id, p, "Player "+p)
		require.NoError(h.t, err)
	}
	return id
}

// started connects, seats and starts the players.
func (h *harness) started(ids ...string) string {
	h.t.Helper()

	h.connect(ids...)
	id := h.lobby(ids...)
	require.NoError(h.t, h.engine.StartSession(id, ids[0]))
	return id
}

func (h *harness) session(id string) *game.Session {
	h.t.Helper()

	var snap *game.Session
	require.NoError(h.t, h.store.View(id, func(s *game.Session) error {
		cp := *s
		cp.Participants = make([]*game.Participant, len(s.Participants))
		for i, p := range s.Participants {
			pc := p.Private()
			cp.Participants[i] = &pc
		}
		cp.History = append([]game.Event(nil), s.History...)
		snap = &cp
		return nil
	}))
	return snap
}

func (h *harness) participant(sessionID, userID string) game.Participant {
	h.t.Helper()

	p, ok := h.session(sessionID).Participant(userID)
	require.True(h.t, ok, "participant %s", userID)
	return *p
}

// rig replaces a participant's hidden roll and dice count.
func (h *harness) rig(sessionID, userID string, roll ...int) {
	h.t.Helper()

	require.NoError(h.t, h.store.Update(sessionID, func(s *game.Session) error {
		p, ok := s.Participant(userID)
		require.True(h.t, ok)
		p.CurrentRoll = roll
		p.DiceCount = len(roll)
		return nil
	}))
}

func (h *harness) turn(sessionID string) string {
	h.t.Helper()

	turn, err := game.DeriveTurn(h.session(sessionID).History)
	require.NoError(h.t, err)
	return turn
}

func (h *harness) lastOfType(sessionID string, t game.EventType) game.Event {
	h.t.Helper()

	history := h.session(sessionID).History
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type() == t {
			return history[i]
		}
	}
	h.t.Fatalf("no %s event in history", t)
	return game.Event{}
}
