package engine

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/messenger"
	"github.com/lox/liarsdice/internal/messenger/messengertest"
	"github.com/lox/liarsdice/internal/randutil"
	"github.com/lox/liarsdice/internal/store"
)

// playOut drives a started session to completion with random legal moves and
// calls check after every accepted move.
func playOut(e *Engine, st *store.Store, id string, seed int64, check func()) error {
	rng := randutil.New(seed)
	for step := 0; step < 10000; step++ {
		var (
			finished bool
			turn     string
			prior    game.Claim
			hasPrior bool
		)
		err := st.View(id, func(s *game.Session) error {
			finished = s.Finished
			if finished {
				return nil
			}
			var err error
			turn, err = game.DeriveTurn(s.History)
			prior, hasPrior = game.LastClaim(s.History)
			return err
		})
		if err != nil {
			return err
		}
		if finished {
			return nil
		}

		var move game.Move = game.Raise{Quantity: 1, Value: rng.IntN(6) + 1}
		if hasPrior {
			switch r := rng.IntN(10); {
			case r < 3:
				move = game.CallCheat{}
			case r < 4:
				move = game.CallExact{}
			default:
				move = game.Raise{Quantity: prior.Quantity + 1, Value: rng.IntN(6) + 1}
			}
		}
		if err := e.SubmitClaim(id, turn, move); err != nil {
			return fmt.Errorf("step %d: %s plays %#v: %w", step, turn, move, err)
		}
		check()
	}
	return fmt.Errorf("session %s did not finish", id)
}

func TestReplayMatchesLiveState(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			h := newHarness(t)
			players := []string{"alice", "bob", "carol", "dave"}
			id := h.started(players...)
			require.NoError(t, h.engine.ChangeName(id, "bob", "Robert"))

			check := func() {
				s := h.session(id)
				live := s.PublicState()
				assert.Equal(t, live, game.Replay(s.History), "full history")
				for _, p := range players {
					visible, err := h.engine.History(id, p)
					require.NoError(t, err)
					assert.Equal(t, live, game.Replay(visible), "history visible to %s", p)
				}
			}
			check()
			require.NoError(t, playOut(h.engine, h.store, id, seed, check))

			s := h.session(id)
			require.True(t, s.Finished)
			assert.Len(t, s.Active(), 1)
			state := game.Replay(s.History)
			assert.Equal(t, s.Active()[0].UserID, state.WinnerID)
		})
	}
}

func TestInvariantsHoldThroughoutPlay(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	players := []string{"alice", "bob", "carol"}
	id := h.started(players...)

	eliminated := map[string]bool{}
	lastClaimQty := 0
	check := func() {
		s := h.session(id)

		phases := 0
		for _, b := range []bool{!s.Started, s.Started && !s.Finished, s.Finished} {
			if b {
				phases++
			}
		}
		assert.Equal(t, 1, phases, "exactly one phase holds")

		for _, p := range s.Participants {
			if eliminated[p.UserID] {
				assert.True(t, p.Eliminated, "elimination is permanent")
			}
			if p.DiceCount == 0 {
				assert.True(t, p.Eliminated)
				eliminated[p.UserID] = true
			}
		}
		assert.Equal(t, s.Finished, len(s.Active()) == 1)

		switch p := s.History[len(s.History)-1].Payload.(type) {
		case game.Claim:
			assert.Greater(t, p.Quantity, lastClaimQty, "claims strictly increase within a round")
			lastClaimQty = p.Quantity
		default:
			lastClaimQty = 0
		}
	}
	require.NoError(t, playOut(h.engine, h.store, id, 99, check))
}

func TestConcurrentSessions(t *testing.T) {
	t.Parallel()

	logger := log.New(io.Discard)
	st := store.New()
	dir := messenger.NewMemoryDirectory()
	e := New(st, messenger.New(dir, quartz.NewMock(t), logger), randutil.NewLocked(7), logger)

	const sessions = 8
	var g errgroup.Group
	for i := 0; i < sessions; i++ {
		g.Go(func() error {
			a, b := fmt.Sprintf("p%d-a", i), fmt.Sprintf("p%d-b", i)
			dir.Register(a, &messengertest.Inbox{})
			dir.Register(b, &messengertest.Inbox{})

			id, err := e.CreateSession(a)
			if err != nil {
				return err
			}
			for _, p := range []string{a, b} {
				if _, err := e.JoinSession(id, p, p); err != nil {
					return err
				}
			}
			if err := e.StartSession(id, a); err != nil {
				return err
			}
			return playOut(e, st, id, int64(i), func() {})
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, sessions, st.Len())
}
