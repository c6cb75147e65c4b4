package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192

	sendBufferSize = 256
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendBufferFull   = errors.New("send buffer full")
)

// requestHandler executes one request on behalf of a participant.
type requestHandler func(participantID string, req protocol.Request) (any, error)

// Connection is one participant's WebSocket. It implements messenger.Channel.
type Connection struct {
	conn          *websocket.Conn
	send          chan []byte
	participantID string
	handle        requestHandler
	logger        *log.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	closeOnce     sync.Once
}

func newConnection(conn *websocket.Conn, participantID string, handle requestHandler, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		participantID: participantID,
		handle:        handle,
		logger:        logger.WithPrefix("conn").With("participant", participantID),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// start runs the pumps and blocks until the connection is closed.
func (c *Connection) start() {
	go c.writePump()
	c.readPump()
}

// Done is closed once the connection is closed
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

// abort drops the connection without a close handshake. The write lock may
// be held by a stalled writePump, so this must not write to the peer.
func (c *Connection) abort() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
	})
}

// Send queues a game event for the client without blocking, since callers
// hold the session lock.
func (c *Connection) Send(ev game.Event) error {
	wire, err := protocol.FromGame(ev)
	if err != nil {
		return err
	}
	return c.sendJSON(wire)
}

func (c *Connection) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Connection) enqueue(data []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, dropping connection")
		c.abort()
		return ErrSendBufferFull
	}
}

// readPump handles incoming requests from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			c.reply("", nil, protocol.ErrMalformedRequest)
			continue
		}
		c.handleRequest(req)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleRequest(req protocol.Request) {
	c.logger.Debug("Received request", "type", req.Type, "request", req.RequestID, "session", req.SessionID)

	value, err := c.handle(c.participantID, req)
	if err != nil {
		c.logger.Debug("Request failed", "type", req.Type, "request", req.RequestID, "code", game.CodeOf(err), "error", err)
	}
	c.reply(req.RequestID, value, err)
}

func (c *Connection) reply(requestID string, value any, err error) {
	result, encErr := protocol.NewResult(requestID, value, err)
	if encErr != nil {
		c.logger.Error("Failed to encode result", "request", requestID, "error", encErr)
		result, _ = protocol.NewResult(requestID, nil, encErr)
	}
	if err := c.sendJSON(result); err != nil {
		c.logger.Debug("Dropped result", "request", requestID, "error", err)
	}
}
