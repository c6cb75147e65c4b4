// Package protocol defines the JSON frames exchanged over the WebSocket.
//
// Clients send Request frames. The server sends three kinds of frame, told
// apart by which field is present:
//
//	{"participantId": ...}                   Welcome, once per connection
//	{"requestId": ..., "success": ...}       Result, one per Request
//	{"messageType": 3, "message": {...}}     Event, whenever the session changes
package protocol

import (
	"encoding/json"
	"time"

	"github.com/lox/liarsdice/internal/game"
)

// Request types
const (
	TypeCreate  = "create"
	TypeJoin    = "join"
	TypeStart   = "start"
	TypeHistory = "history"
	TypeClaim   = "claim"
	TypeRename  = "rename"
)

// Client -> Server

// Request is an operation submitted by a client.
type Request struct {
	Type        string        `json:"type"`
	RequestID   string        `json:"requestId"`
	SessionID   string        `json:"sessionId,omitempty"`
	DisplayName string        `json:"displayName,omitempty"`
	Claim       *ClaimPayload `json:"claim,omitempty"`
}

// ClaimPayload is a raise, or a challenge when one of the flags is set.
type ClaimPayload struct {
	Quantity         int  `json:"quantity"`
	Value            int  `json:"value"`
	IsCheatChallenge bool `json:"isCheatChallenge"`
	IsExactChallenge bool `json:"isExactChallenge"`
}

// Move converts the payload into a game move.
func (c *ClaimPayload) Move() (game.Move, error) {
	if c == nil {
		return nil, game.ErrInvalidClaim
	}
	return game.MoveFromFlags(c.Quantity, c.Value, c.IsCheatChallenge, c.IsExactChallenge)
}

// Server -> Client

// Welcome tells a client the participant id the server knows it by.
type Welcome struct {
	ParticipantID string `json:"participantId"`
}

// Event is the wire form of a recorded game event.
type Event struct {
	MessageType game.EventType  `json:"messageType"`
	Message     json.RawMessage `json:"message"`
	Seq         int             `json:"seq"`
	At          time.Time       `json:"at"`
}

// Result answers a Request. Value is present on success, Error on failure.
type Result struct {
	RequestID string          `json:"requestId"`
	Success   bool            `json:"success"`
	Value     json.RawMessage `json:"value,omitempty"`
	Error     *Error          `json:"error,omitempty"`
}

// Error describes a failed request.
type Error struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result values

type CreatedValue struct {
	SessionID string `json:"sessionId"`
}

type JoinedValue struct {
	SessionID string            `json:"sessionId"`
	Players   []game.PlayerView `json:"players"`
}

type HistoryValue struct {
	SessionID string  `json:"sessionId"`
	Events    []Event `json:"events"`
}

// Frame is any server frame, for clients decoding a stream of them.
type Frame struct {
	ParticipantID string `json:"participantId,omitempty"`

	RequestID *string         `json:"requestId,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Error     *Error          `json:"error,omitempty"`

	MessageType *game.EventType `json:"messageType,omitempty"`
	Message     json.RawMessage `json:"message,omitempty"`
	Seq         int             `json:"seq,omitempty"`
	At          time.Time       `json:"at"`
}

// IsWelcome reports whether the frame is a Welcome.
func (f *Frame) IsWelcome() bool { return f.ParticipantID != "" }

// IsResult reports whether the frame is a Result.
func (f *Frame) IsResult() bool { return f.RequestID != nil }

// IsEvent reports whether the frame is an Event.
func (f *Frame) IsEvent() bool { return f.MessageType != nil }

// AsResult returns the frame as a Result.
func (f *Frame) AsResult() Result {
	r := Result{Success: f.Success, Value: f.Value, Error: f.Error}
	if f.RequestID != nil {
		r.RequestID = *f.RequestID
	}
	return r
}

// AsEvent returns the frame as an Event.
func (f *Frame) AsEvent() Event {
	e := Event{Message: f.Message, Seq: f.Seq, At: f.At}
	if f.MessageType != nil {
		e.MessageType = *f.MessageType
	}
	return e
}

// ClaimFromMove is the inverse of ClaimPayload.Move.
func ClaimFromMove(m game.Move) *ClaimPayload {
	switch m := m.(type) {
	case game.Raise:
		return &ClaimPayload{Quantity: m.Quantity, Value: m.Value}
	case game.CallCheat:
		return &ClaimPayload{IsCheatChallenge: true}
	case game.CallExact:
		return &ClaimPayload{IsExactChallenge: true}
	}
	return nil
}
