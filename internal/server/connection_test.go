package server

import (
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

// idleConnection returns a server-side Connection whose pumps never run,
// so nothing drains its send buffer.
func idleConnection(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()

	conns := make(chan *Connection, 1)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- newConnection(ws, "alice", func(string, protocol.Request) (any, error) {
			return nil, nil
		}, log.New(io.Discard))
	}))
	t.Cleanup(ts.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = peer.Close() })

	select {
	case c := <-conns:
		return c, peer
	case <-time.After(5 * time.Second):
		t.Fatal("server never upgraded the connection")
		return nil, nil
	}
}

func TestSendBufferOverflowDropsConnection(t *testing.T) {
	c, peer := idleConnection(t)

	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, c.enqueue([]byte(`{}`)))
	}

	start := time.Now()
	err := c.enqueue([]byte(`{}`))
	assert.ErrorIs(t, err, ErrSendBufferFull)
	assert.Less(t, time.Since(start), time.Second, "overflow must not wait on the peer")

	select {
	case <-c.Done():
	default:
		t.Fatal("connection should be closed after overflow")
	}
	assert.ErrorIs(t, c.enqueue([]byte(`{}`)), ErrConnectionClosed)

	// Dropped without a close frame.
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = peer.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseAbnormalClosure), "got %v", err)
}

func TestCloseSendsCloseFrame(t *testing.T) {
	c, peer := idleConnection(t)

	require.NoError(t, c.Close())

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := peer.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
