// Package store holds live game sessions in memory.
//
// Each session is guarded by its own mutex: Update runs a function with
// exclusive access to one session while operations on other sessions proceed
// in parallel. The store also tracks which session each participant is
// actively playing in, so that "one active session per participant" holds
// across concurrent joins to different sessions.
package store

import (
	"fmt"
	"sync"

	"github.com/lox/liarsdice/internal/game"
)

type entry struct {
	mu      sync.Mutex
	session *game.Session
}

// Store maps session ids to sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	active   map[string]string // userID -> sessionID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		active:   make(map[string]string),
	}
}

// Create inserts a new empty session. It fails if the id is taken.
func (s *Store) Create(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; ok {
		return fmt.Errorf("session %s already exists", id)
	}
	s.sessions[id] = &entry{session: game.NewSession(id)}
	return nil
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

// Update runs fn with exclusive access to the session. Calls for the same
// session are serialized; fn must not call back into Update or View for the
// same id.
func (s *Store) Update(id string, fn func(*game.Session) error) error {
	e, ok := s.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", game.ErrSessionNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// View runs fn with the session locked. fn must not retain the session.
func (s *Store) View(id string, fn func(*game.Session) error) error {
	return s.Update(id, fn)
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ActiveSession returns the session userID is currently playing in.
func (s *Store) ActiveSession(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[userID]
	return id, ok
}

// Reserve marks userID as active in sessionID. It fails with
// game.ErrAlreadyInActiveSession if the participant is active anywhere else.
// Reserving the same session twice is not an error.
func (s *Store) Reserve(userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.active[userID]; ok && current != sessionID {
		return fmt.Errorf("%w: %s", game.ErrAlreadyInActiveSession, current)
	}
	s.active[userID] = sessionID
	return nil
}

// Release clears userID's active session if it is sessionID. Called when a
// participant is eliminated or their session finishes.
func (s *Store) Release(userID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[userID] == sessionID {
		delete(s.active, userID)
	}
}
