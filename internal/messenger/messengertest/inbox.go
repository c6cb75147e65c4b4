// Package messengertest provides channels that record deliveries, for tests.
package messengertest

import (
	"errors"
	"sync"

	"github.com/lox/liarsdice/internal/game"
)

// ErrClosed is returned by a closed Inbox.
var ErrClosed = errors.New("inbox closed")

// Inbox is a messenger.Channel that keeps every event it receives.
type Inbox struct {
	mu     sync.Mutex
	events []game.Event
	closed bool
}

// Send implements messenger.Channel.
func (i *Inbox) Send(ev game.Event) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return ErrClosed
	}
	i.events = append(i.events, ev)
	return nil
}

// Close makes further sends fail.
func (i *Inbox) Close() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
}

// Events returns a copy of the received events.
func (i *Inbox) Events() []game.Event {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]game.Event, len(i.events))
	copy(out, i.events)
	return out
}

// OfType returns the received events of type t.
func (i *Inbox) OfType(t game.EventType) []game.Event {
	var out []game.Event
	for _, ev := range i.Events() {
		if ev.Type() == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset discards received events.
func (i *Inbox) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.events = nil
}
