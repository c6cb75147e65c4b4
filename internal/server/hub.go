package server

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/messenger"
)

// Hub tracks live connections and serves as the messenger's Directory. The
// most recent connection for a participant receives their events.
type Hub struct {
	*messenger.MemoryDirectory

	mu     sync.Mutex
	conns  map[*Connection]struct{}
	logger *log.Logger
}

// NewHub creates an empty hub
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		MemoryDirectory: messenger.NewMemoryDirectory(),
		conns:           make(map[*Connection]struct{}),
		logger:          logger.WithPrefix("hub"),
	}
}

func (h *Hub) add(c *Connection) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	h.Register(c.participantID, c)
	h.logger.Info("Client connected", "participant", c.participantID, "total", total)
}

func (h *Hub) remove(c *Connection) {
	h.Unregister(c.participantID, c)

	h.mu.Lock()
	delete(h.conns, c)
	total := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("Client disconnected", "participant", c.participantID, "total", total)
}

// Count returns the number of live connections
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll closes every live connection
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close() // Ignore close errors during shutdown
	}
}
