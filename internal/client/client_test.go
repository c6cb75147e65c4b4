package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/liarsdice/internal/protocol"
)

// floodServer welcomes each client and then writes n events.
func floodServer(t *testing.T, n int) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		id := r.URL.Query().Get("participant")
		if id == "" {
			id = "issued"
		}
		if err := conn.WriteJSON(protocol.Welcome{ParticipantID: id}); err != nil {
			return
		}
		for i := 1; i <= n; i++ {
			if err := conn.WriteJSON(protocol.Event{Seq: i, Message: []byte(`{}`)}); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestDialReadsWelcome(t *testing.T) {
	url := floodServer(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, "alice", log.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, "alice", c.ParticipantID())

	select {
	case f := <-c.Frames():
		require.True(t, f.IsEvent())
		assert.EqualValues(t, 1, f.AsEvent().Seq)
	case <-ctx.Done():
		t.Fatal("no event received")
	}
	require.NoError(t, c.Close())
}

func TestCloseWithUndrainedFrames(t *testing.T) {
	url := floodServer(t, 200)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, "", log.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, "issued", c.ParticipantID())

	require.Eventually(t, func() bool {
		return len(c.Frames()) == cap(c.frames)
	}, 5*time.Second, 10*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- c.Close() }()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close blocked on a full frame buffer")
	}

	n := 0
	for range c.Frames() {
		n++
	}
	assert.Equal(t, cap(c.frames), n)
}
