// Package server exposes the game engine over WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/liarsdice/internal/engine"
	"github.com/lox/liarsdice/internal/game"
)

const (
	// ParticipantCookie carries the issued participant id across reconnects
	ParticipantCookie = "liarsdice_participant"

	// ParticipantParam lets clients without cookies present their id
	ParticipantParam = "participant"

	shutdownTimeout = 5 * time.Second
)

// Server represents the WebSocket server
type Server struct {
	engine   *engine.Engine
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *log.Logger
}

// NewServer creates a server routing requests into eng. hub must be the
// Directory the engine's messenger delivers through.
func NewServer(eng *engine.Engine, hub *Hub, logger *log.Logger) *Server {
	return &Server{
		engine: eng,
		hub:    hub,
		upgrader: websocket.Upgrader{
			// Clients are CLI tools and bots, not browsers
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("server"),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /sessions/{id}", s.handleSession)
	return mux
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully and closes every live connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by http.Server
		s.hub.CloseAll()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ListenAndServe listens on addr and calls Serve
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// participantID returns the id the request presents, or issues a new one.
func participantID(r *http.Request) (id string, issued bool) {
	if c, err := r.Cookie(ParticipantCookie); err == nil && c.Value != "" {
		return c.Value, false
	}
	if v := r.URL.Query().Get(ParticipantParam); v != "" {
		return v, false
	}
	return uuid.NewString(), true
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	id, issued := participantID(r)

	var header http.Header
	if issued {
		cookie := &http.Cookie{Name: ParticipantCookie, Value: id, Path: "/", HttpOnly: true}
		header = http.Header{"Set-Cookie": []string{cookie.String()}}
	}

	conn, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := newConnection(conn, id, s.handleRequest, s.logger)
	if err := client.sendJSON(welcome(id)); err != nil {
		s.logger.Error("Failed to queue welcome", "participant", id, "error", err)
		_ = client.Close()
		return
	}

	s.hub.add(client)
	defer s.hub.remove(client)
	client.start()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

// handleSession serves the public state of one session
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.PublicState(r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		switch game.KindOf(err) {
		case game.KindInvalidInput:
			status = http.StatusBadRequest
		case game.KindStateConflict:
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		s.logger.Error("Failed to encode session", "session", r.PathValue("id"), "error", err)
	}
}
