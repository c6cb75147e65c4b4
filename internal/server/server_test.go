package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/liarsdice/internal/engine"
	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/messenger"
	"github.com/lox/liarsdice/internal/protocol"
	"github.com/lox/liarsdice/internal/randutil"
	"github.com/lox/liarsdice/internal/store"
)

type testEnv struct {
	ts  *httptest.Server
	hub *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := log.New(io.Discard)
	hub := NewHub(logger)
	m := messenger.New(hub, quartz.NewMock(t), logger)
	eng := engine.New(store.New(), m, randutil.NewLocked(1), logger)
	ts := httptest.NewServer(NewServer(eng, hub, logger).Handler())

	t.Cleanup(func() {
		hub.CloseAll()
		ts.Close()
	})
	return &testEnv{ts: ts, hub: hub}
}

func (e *testEnv) wsURL(participant string) string {
	u := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws"
	if participant != "" {
		u += "?" + ParticipantParam + "=" + participant
	}
	return u
}

type wsClient struct {
	t       *testing.T
	conn    *websocket.Conn
	id      string
	nextReq int
	pending []protocol.Event
}

func (e *testEnv) dial(t *testing.T, participant string, header http.Header) (*wsClient, *http.Response) {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(e.wsURL(participant), header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn}
	f := c.next()
	require.True(t, f.IsWelcome(), "first frame should be a welcome")
	c.id = f.ParticipantID
	return c, resp
}

func (c *wsClient) next() protocol.Frame {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f protocol.Frame
	require.NoError(c.t, c.conn.ReadJSON(&f))
	return f
}

// request sends req and returns its result, buffering events that arrive
// first.
func (c *wsClient) request(req protocol.Request) protocol.Result {
	c.t.Helper()
	c.nextReq++
	req.RequestID = fmt.Sprintf("%s-%d", c.id, c.nextReq)
	require.NoError(c.t, c.conn.WriteJSON(req))

	for {
		f := c.next()
		if f.IsResult() {
			r := f.AsResult()
			require.Equal(c.t, req.RequestID, r.RequestID)
			return r
		}
		require.True(c.t, f.IsEvent())
		c.pending = append(c.pending, f.AsEvent())
	}
}

func (c *wsClient) mustRequest(req protocol.Request) protocol.Result {
	c.t.Helper()
	r := c.request(req)
	require.True(c.t, r.Success, "request %s failed: %+v", req.Type, r.Error)
	return r
}

// await returns the next event of type typ, discarding others.
func (c *wsClient) await(typ game.EventType) game.Event {
	c.t.Helper()
	for len(c.pending) > 0 {
		we := c.pending[0]
		c.pending = c.pending[1:]
		if we.MessageType == typ {
			ev, err := protocol.ToGame(we)
			require.NoError(c.t, err)
			return ev
		}
	}
	for {
		f := c.next()
		if !f.IsEvent() || f.AsEvent().MessageType != typ {
			continue
		}
		ev, err := protocol.ToGame(f.AsEvent())
		require.NoError(c.t, err)
		return ev
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestParticipantIdentity(t *testing.T) {
	env := newTestEnv(t)

	t.Run("issued with cookie", func(t *testing.T) {
		c, resp := env.dial(t, "", nil)
		require.NotEmpty(t, c.id)

		var cookie *http.Cookie
		for _, ck := range resp.Cookies() {
			if ck.Name == ParticipantCookie {
				cookie = ck
			}
		}
		require.NotNil(t, cookie)
		assert.Equal(t, c.id, cookie.Value)

		again, _ := env.dial(t, "", http.Header{"Cookie": []string{ParticipantCookie + "=" + cookie.Value}})
		assert.Equal(t, c.id, again.id)
	})

	t.Run("query parameter", func(t *testing.T) {
		c, resp := env.dial(t, "carol", nil)
		assert.Equal(t, "carol", c.id)
		assert.Empty(t, resp.Header.Values("Set-Cookie"))
	})
}

func TestMalformedAndUnknownRequests(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.dial(t, "alice", nil)

	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f := c.next()
	require.True(t, f.IsResult())
	require.NotNil(t, f.Error)
	assert.Equal(t, "malformed_request", f.Error.Code)
	assert.Equal(t, "invalid_input", f.Error.Kind)

	r := c.request(protocol.Request{Type: "fold"})
	assert.False(t, r.Success)
	assert.Equal(t, "unknown_request", r.Error.Code)

	r = c.request(protocol.Request{Type: protocol.TypeClaim, SessionID: "missing"})
	assert.False(t, r.Success)
	assert.Equal(t, game.CodeOf(game.ErrInvalidClaim), r.Error.Code)
}

func TestRoundOverWebSocket(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.dial(t, "alice", nil)
	bob, _ := env.dial(t, "bob", nil)

	r := alice.mustRequest(protocol.Request{Type: protocol.TypeCreate})
	var created protocol.CreatedValue
	require.NoError(t, json.Unmarshal(r.Value, &created))
	sid := created.SessionID
	require.NotEmpty(t, sid)

	alice.mustRequest(protocol.Request{Type: protocol.TypeJoin, SessionID: sid, DisplayName: "Alice"})

	r = bob.mustRequest(protocol.Request{Type: protocol.TypeJoin, SessionID: sid, DisplayName: "Bob"})
	var joined protocol.JoinedValue
	require.NoError(t, json.Unmarshal(r.Value, &joined))
	require.Len(t, joined.Players, 1)
	assert.Equal(t, "alice", joined.Players[0].UserID)

	joinedEv := alice.await(game.EventPlayerJoined)
	assert.Equal(t, "alice", joinedEv.Payload.(game.PlayerJoined).Player.UserID)
	joinedEv = alice.await(game.EventPlayerJoined)
	assert.Equal(t, "bob", joinedEv.Payload.(game.PlayerJoined).Player.UserID)

	r = bob.request(protocol.Request{Type: protocol.TypeClaim, SessionID: sid, Claim: &protocol.ClaimPayload{Quantity: 1, Value: 2}})
	assert.False(t, r.Success)
	assert.Equal(t, game.CodeOf(game.ErrGameNotStarted), r.Error.Code)

	alice.mustRequest(protocol.Request{Type: protocol.TypeStart, SessionID: sid})

	aliceRound := alice.await(game.EventRoundStarted).Payload.(game.RoundStarted)
	bobRound := bob.await(game.EventRoundStarted).Payload.(game.RoundStarted)
	assert.Equal(t, "alice", aliceRound.Player.UserID)
	assert.Len(t, aliceRound.Player.CurrentRoll, game.StartingDice)
	assert.Equal(t, "bob", bobRound.Player.UserID)
	assert.Equal(t, aliceRound.StartingPlayerID, bobRound.StartingPlayerID)

	opener, other := alice, bob
	if aliceRound.StartingPlayerID == "bob" {
		opener, other = bob, alice
	}

	r = other.request(protocol.Request{Type: protocol.TypeClaim, SessionID: sid, Claim: &protocol.ClaimPayload{Quantity: 1, Value: 2}})
	assert.False(t, r.Success)
	assert.Equal(t, "rule_violation", r.Error.Kind)
	assert.Equal(t, game.CodeOf(game.ErrNotYourTurn), r.Error.Code)

	opener.mustRequest(protocol.Request{Type: protocol.TypeClaim, SessionID: sid, Claim: &protocol.ClaimPayload{Quantity: 1, Value: 2}})
	claim := other.await(game.EventClaim).Payload.(game.Claim)
	assert.Equal(t, opener.id, claim.ClaimantID)
	assert.Equal(t, other.id, claim.NextPlayerID)

	other.mustRequest(protocol.Request{Type: protocol.TypeClaim, SessionID: sid, Claim: &protocol.ClaimPayload{IsCheatChallenge: true}})
	result := opener.await(game.EventRoundResult).Payload.(game.RoundResult)
	assert.Equal(t, other.id, result.Accuser.UserID)
	assert.Equal(t, opener.id, result.Accused.UserID)
	assert.Equal(t, game.ChallengeCheat, result.Challenge)
	assert.Equal(t, 1, result.DiceLost)

	next := other.await(game.EventRoundStarted).Payload.(game.RoundStarted)
	assert.Equal(t, result.LoserID(), next.StartingPlayerID)

	// History hides the opponent's rolls
	r = alice.mustRequest(protocol.Request{Type: protocol.TypeHistory, SessionID: sid})
	var hist protocol.HistoryValue
	require.NoError(t, json.Unmarshal(r.Value, &hist))
	require.NotEmpty(t, hist.Events)
	for _, we := range hist.Events {
		assert.Positive(t, we.Seq)
		ev, err := protocol.ToGame(we)
		require.NoError(t, err)
		if rs, ok := ev.Payload.(game.RoundStarted); ok {
			assert.Equal(t, "alice", rs.Player.UserID)
		}
	}

	alice.mustRequest(protocol.Request{Type: protocol.TypeRename, SessionID: sid, DisplayName: "  Al  "})
	renamed := bob.await(game.EventNameChanged).Payload.(game.NameChanged)
	assert.Equal(t, game.NameChanged{PlayerID: "alice", Name: "Al"}, renamed)

	resp, err := http.Get(env.ts.URL + "/sessions/" + sid)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state game.PublicState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.True(t, state.Started)
	assert.False(t, state.Finished)
	require.Len(t, state.Participants, 2)
	assert.Equal(t, "Al", state.Participants[0].DisplayName)
	assert.Equal(t, 2*game.StartingDice-1, state.Participants[0].DiceCount+state.Participants[1].DiceCount)
}

func TestSessionEndpointNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.ts.URL + "/sessions/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisconnectUnregisters(t *testing.T) {
	env := newTestEnv(t)
	c, _ := env.dial(t, "alice", nil)

	require.Eventually(t, func() bool {
		_, ok := env.hub.Lookup("alice")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.conn.Close())

	require.Eventually(t, func() bool {
		_, ok := env.hub.Lookup("alice")
		return !ok && env.hub.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconnectReceivesLaterEvents(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.dial(t, "alice", nil)
	r := alice.mustRequest(protocol.Request{Type: protocol.TypeCreate})
	var created protocol.CreatedValue
	require.NoError(t, json.Unmarshal(r.Value, &created))
	alice.mustRequest(protocol.Request{Type: protocol.TypeJoin, SessionID: created.SessionID, DisplayName: "Alice"})

	require.NoError(t, alice.conn.Close())
	require.Eventually(t, func() bool { return env.hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	again, _ := env.dial(t, "alice", nil)
	require.Eventually(t, func() bool {
		_, ok := env.hub.Lookup("alice")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	bob, _ := env.dial(t, "bob", nil)
	bob.mustRequest(protocol.Request{Type: protocol.TypeJoin, SessionID: created.SessionID, DisplayName: "Bob"})

	ev := again.await(game.EventPlayerJoined)
	assert.Equal(t, "bob", ev.Payload.(game.PlayerJoined).Player.UserID)
}
