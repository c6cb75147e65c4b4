// Package client connects to a game server over WebSocket.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/liarsdice/internal/protocol"
)

const handshakeTimeout = 10 * time.Second

// Client is a WebSocket connection to a game server.
type Client struct {
	conn          *websocket.Conn
	participantID string
	frames        chan protocol.Frame
	nextID        atomic.Int64
	writeMu       sync.Mutex
	done          chan struct{}
	readDone      chan struct{}
	closeOnce     sync.Once
	logger        *log.Logger

	err error
}

// Dial connects to serverURL and waits for the welcome frame. participant
// resumes an existing identity; empty asks the server for a new one.
func Dial(ctx context.Context, serverURL, participant string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if participant != "" {
		q := u.Query()
		q.Set("participant", participant)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	var f protocol.Frame
	if err := conn.ReadJSON(&f); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}
	if !f.IsWelcome() {
		_ = conn.Close()
		return nil, fmt.Errorf("expected welcome frame")
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Client{
		conn:          conn,
		participantID: f.ParticipantID,
		frames:        make(chan protocol.Frame, 64),
		done:          make(chan struct{}),
		readDone:      make(chan struct{}),
		logger:        logger.WithPrefix("client"),
	}
	go c.readLoop()

	c.logger.Debug("Connected", "participant", c.participantID)
	return c, nil
}

// ParticipantID is the identity the server knows this client by
func (c *Client) ParticipantID() string { return c.participantID }

// Frames delivers server frames until the connection drops, then closes.
func (c *Client) Frames() <-chan protocol.Frame { return c.frames }

// Err returns why the connection dropped, once Frames is closed
func (c *Client) Err() error { return c.err }

func (c *Client) readLoop() {
	defer close(c.readDone)
	defer close(c.frames)
	for {
		var f protocol.Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			c.err = err
			return
		}
		select {
		case c.frames <- f:
		case <-c.done:
			return
		}
	}
}

// Send writes a request, assigning it a request id which is returned.
func (c *Client) Send(req protocol.Request) (string, error) {
	req.RequestID = fmt.Sprintf("req-%d", c.nextID.Add(1))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(req); err != nil {
		return "", fmt.Errorf("send %s: %w", req.Type, err)
	}
	return req.RequestID, nil
}

// Close closes the connection and waits for the read loop to stop, even if
// nothing is draining Frames.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	<-c.readDone
	return err
}
