package game

import (
	"fmt"
	"time"
)

// EventType identifies the kind of a history entry. The numeric values are
// part of the wire protocol.
type EventType int

const (
	EventPlayerJoined EventType = iota
	EventGameStarted
	EventRoundStarted
	EventClaim
	EventRoundResult
	EventGameOver
	EventNameChanged
)

var eventTypeNames = [...]string{
	EventPlayerJoined: "player_joined",
	EventGameStarted:  "game_started",
	EventRoundStarted: "round_started",
	EventClaim:        "claim",
	EventRoundResult:  "round_result",
	EventGameOver:     "game_over",
	EventNameChanged:  "name_changed",
}

// String returns the string representation of the event type
func (t EventType) String() string {
	if t >= 0 && int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Payload is the type-specific body of an event.
type Payload interface {
	EventType() EventType
}

// Event is a recorded history entry. Recipient is empty for events delivered
// to every participant and set for privately addressed ones.
type Event struct {
	Seq       int
	At        time.Time
	Recipient string
	Payload   Payload
}

// Type returns the payload's event type.
func (e Event) Type() EventType { return e.Payload.EventType() }

// Private reports whether the event is addressed to a single participant.
func (e Event) Private() bool { return e.Recipient != "" }

// VisibleTo reports whether userID may see the event.
func (e Event) VisibleTo(userID string) bool {
	return !e.Private() || e.Recipient == userID
}

// PlayerJoined is broadcast when a participant joins the lobby.
type PlayerJoined struct {
	Player PlayerView `json:"player"`
}

// GameStarted is broadcast when the lobby closes.
type GameStarted struct{}

// RoundStarted carries one participant's fresh roll and is addressed to that
// participant only.
type RoundStarted struct {
	Player           Participant `json:"player"`
	StartingPlayerID string      `json:"startingPlayerId"`
}

// Claim is a raise accepted by the engine. Challenges are never recorded as
// claims; the flags are kept for clients that render claims and challenges
// with one shape.
type Claim struct {
	Quantity       int    `json:"quantity"`
	Value          int    `json:"value"`
	CheatChallenge bool   `json:"isCheatChallenge"`
	ExactChallenge bool   `json:"isExactChallenge"`
	ClaimantID     string `json:"claimantId"`
	NextPlayerID   string `json:"nextPlayerId"`
}

// RoundResult is broadcast when a challenge resolves. Accuser and Accused
// reflect dice counts after the loss.
type RoundResult struct {
	Accuser              PlayerView    `json:"accuser"`
	Accused              PlayerView    `json:"accused"`
	Claim                Claim         `json:"originalClaim"`
	Challenge            ChallengeKind `json:"challenge"`
	DiceLost             int           `json:"diceLost"`
	OriginalClaimWasTrue bool          `json:"originalClaimWasTrue"`
	LoserEliminated      bool          `json:"loserEliminated"`
}

// LoserID returns the participant who lost dice in the resolution.
func (r RoundResult) LoserID() string {
	if r.OriginalClaimWasTrue {
		return r.Accuser.UserID
	}
	return r.Accused.UserID
}

// GameOver is broadcast once a single participant remains.
type GameOver struct {
	Winner PlayerView `json:"winner"`
}

// NameChanged is broadcast when a participant renames themselves.
type NameChanged struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"newName"`
}

func (PlayerJoined) EventType() EventType { return EventPlayerJoined }
func (GameStarted) EventType() EventType  { return EventGameStarted }
func (RoundStarted) EventType() EventType { return EventRoundStarted }
func (Claim) EventType() EventType        { return EventClaim }
func (RoundResult) EventType() EventType  { return EventRoundResult }
func (GameOver) EventType() EventType     { return EventGameOver }
func (NameChanged) EventType() EventType  { return EventNameChanged }
