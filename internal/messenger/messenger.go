// Package messenger records game events and delivers them to connected
// participants.
//
// Delivery is best effort and synchronous: each send is attempted once, and
// nothing is queued or retried for participants without a live channel.
// Recording always happens before delivery, so history stays complete even
// when nobody is listening.
package messenger

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/liarsdice/internal/game"
)

// Channel pushes an event to one connected participant.
type Channel interface {
	Send(ev game.Event) error
}

// Directory resolves a participant to their live channel, if any. It is
// owned by the transport layer.
type Directory interface {
	Lookup(participantID string) (Channel, bool)
}

// Messenger appends events to a session's history and fans them out.
type Messenger struct {
	dir    Directory
	clock  quartz.Clock
	logger *log.Logger
}

// New creates a messenger delivering through dir.
func New(dir Directory, clock quartz.Clock, logger *log.Logger) *Messenger {
	return &Messenger{
		dir:    dir,
		clock:  clock,
		logger: logger.WithPrefix("messenger"),
	}
}

func (m *Messenger) record(s *game.Session, recipient string, payload game.Payload) game.Event {
	return s.Record(game.Event{
		At:        m.clock.Now(),
		Recipient: recipient,
		Payload:   payload,
	})
}

// Broadcast records the event and pushes it to every participant with a live
// channel. s must be held exclusively by the caller. It returns the event as
// recorded and the number of participants reached; missing or failing
// channels are logged and skipped.
func (m *Messenger) Broadcast(s *game.Session, payload game.Payload) (game.Event, int) {
	ev := m.record(s, "", payload)

	reached := 0
	for _, p := range s.Participants {
		ch, ok := m.dir.Lookup(p.UserID)
		if !ok {
			m.logger.Debug("Skipping participant without connection", "session", s.ID, "player", p.UserID, "type", ev.Type())
			continue
		}
		if err := ch.Send(ev); err != nil {
			m.logger.Warn("Failed to deliver event", "session", s.ID, "player", p.UserID, "type", ev.Type(), "error", err)
			continue
		}
		reached++
	}

	m.logger.Debug("Broadcast event", "session", s.ID, "type", ev.Type(), "seq", ev.Seq, "recipients", reached)
	return ev, reached
}

// Unicast records the event as private to participantID and pushes it to
// them. The event stays in history even when delivery fails with
// game.ErrRecipientUnavailable.
func (m *Messenger) Unicast(s *game.Session, participantID string, payload game.Payload) (game.Event, error) {
	ev := m.record(s, participantID, payload)

	ch, ok := m.dir.Lookup(participantID)
	if !ok {
		return ev, fmt.Errorf("%w: %s", game.ErrRecipientUnavailable, participantID)
	}
	if err := ch.Send(ev); err != nil {
		return ev, fmt.Errorf("%w: %s: %v", game.ErrRecipientUnavailable, participantID, err)
	}

	m.logger.Debug("Sent private event", "session", s.ID, "type", ev.Type(), "seq", ev.Seq, "player", participantID)
	return ev, nil
}
