package game

// Phase is the lifecycle stage of a session.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseActive
	PhaseFinished
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	default:
		return "lobby"
	}
}

// Session is a single game. Participants are kept in join order, which is
// also turn order; elimination filters the rotation but never reorders it.
type Session struct {
	ID           string
	Started      bool
	Finished     bool
	Participants []*Participant
	History      []Event
}

// NewSession creates an empty lobby.
func NewSession(id string) *Session {
	return &Session{ID: id}
}

// Phase reports the session's lifecycle stage.
func (s *Session) Phase() Phase {
	switch {
	case s.Finished:
		return PhaseFinished
	case s.Started:
		return PhaseActive
	default:
		return PhaseLobby
	}
}

// Participant looks up a participant by user id.
func (s *Session) Participant(userID string) (*Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return nil, false
}

// Active returns the participants that have not been eliminated, in turn order.
func (s *Session) Active() []*Participant {
	active := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

// Views returns public views of all participants, optionally excluding one.
func (s *Session) Views(exclude string) []PlayerView {
	views := make([]PlayerView, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.UserID == exclude {
			continue
		}
		views = append(views, p.View())
	}
	return views
}

// Record appends an event to the history, assigning the next sequence number.
func (s *Session) Record(ev Event) Event {
	ev.Seq = len(s.History) + 1
	s.History = append(s.History, ev)
	return ev
}

// HistoryFor returns the events userID may see, in order.
func (s *Session) HistoryFor(userID string) []Event {
	visible := make([]Event, 0, len(s.History))
	for _, ev := range s.History {
		if ev.VisibleTo(userID) {
			visible = append(visible, ev)
		}
	}
	return visible
}

// lastRelevant returns the most recent entry that carries game state.
func lastRelevant(history []Event) (Event, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Type() != EventNameChanged {
			return history[i], true
		}
	}
	return Event{}, false
}

// LastClaim returns the outstanding claim, if the last relevant entry is one.
func LastClaim(history []Event) (Claim, bool) {
	ev, ok := lastRelevant(history)
	if !ok {
		return Claim{}, false
	}
	c, ok := ev.Payload.(Claim)
	return c, ok
}
