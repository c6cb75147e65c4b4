package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lox/liarsdice/internal/game"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// Request failures that never reach the engine
var (
	ErrMalformedRequest = &game.Error{Kind: game.KindInvalidInput, Code: "malformed_request", Message: "malformed request"}
	ErrUnknownRequest   = &game.Error{Kind: game.KindInvalidInput, Code: "unknown_request", Message: "unknown request type"}
)

// FromGame converts a recorded event to its wire form.
func FromGame(ev game.Event) (Event, error) {
	msg, err := json.Marshal(ev.Payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s: %w", ev.Type(), err)
	}
	return Event{
		MessageType: ev.Type(),
		Message:     msg,
		Seq:         ev.Seq,
		At:          ev.At,
	}, nil
}

// FromGameAll converts a history to wire form.
func FromGameAll(events []game.Event) ([]Event, error) {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		we, err := FromGame(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, we)
	}
	return out, nil
}

// ToGame decodes a wire event back into a game event. Recipient is not part
// of the wire form and is left empty.
func ToGame(e Event) (game.Event, error) {
	var (
		payload game.Payload
		err     error
	)
	switch e.MessageType {
	case game.EventPlayerJoined:
		payload, err = decode[game.PlayerJoined](e.Message)
	case game.EventGameStarted:
		payload = game.GameStarted{}
	case game.EventRoundStarted:
		payload, err = decode[game.RoundStarted](e.Message)
	case game.EventClaim:
		payload, err = decode[game.Claim](e.Message)
	case game.EventRoundResult:
		payload, err = decode[game.RoundResult](e.Message)
	case game.EventGameOver:
		payload, err = decode[game.GameOver](e.Message)
	case game.EventNameChanged:
		payload, err = decode[game.NameChanged](e.Message)
	default:
		return game.Event{}, fmt.Errorf("%w: %d", ErrUnknownMessageType, e.MessageType)
	}
	if err != nil {
		return game.Event{}, fmt.Errorf("decode %s: %w", e.MessageType, err)
	}
	return game.Event{Seq: e.Seq, At: e.At, Payload: payload}, nil
}

func decode[T game.Payload](raw json.RawMessage) (T, error) {
	var v T
	err := json.Unmarshal(raw, &v)
	return v, err
}

// NewResult builds the reply to a request. A nil err is a success carrying
// value, which may be nil.
func NewResult(requestID string, value any, err error) (Result, error) {
	if err != nil {
		return Result{
			RequestID: requestID,
			Error: &Error{
				Kind:    game.KindOf(err).String(),
				Code:    game.CodeOf(err),
				Message: err.Error(),
			},
		}, nil
	}

	r := Result{RequestID: requestID, Success: true}
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			return Result{}, fmt.Errorf("encode result: %w", err)
		}
		r.Value = raw
	}
	return r, nil
}
