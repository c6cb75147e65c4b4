package server

import (
	"fmt"

	"github.com/lox/liarsdice/internal/protocol"
)

func welcome(participantID string) protocol.Welcome {
	return protocol.Welcome{ParticipantID: participantID}
}

// handleRequest routes a request into the engine and returns the result
// value for a successful call.
func (s *Server) handleRequest(participantID string, req protocol.Request) (any, error) {
	switch req.Type {
	case protocol.TypeCreate:
		id, err := s.engine.CreateSession(participantID)
		if err != nil {
			return nil, err
		}
		return protocol.CreatedValue{SessionID: id}, nil

	case protocol.TypeJoin:
		players, err := s.engine.JoinSession(req.SessionID, participantID, req.DisplayName)
		if err != nil {
			return nil, err
		}
		return protocol.JoinedValue{SessionID: req.SessionID, Players: players}, nil

	case protocol.TypeStart:
		return nil, s.engine.StartSession(req.SessionID, participantID)

	case protocol.TypeHistory:
		events, err := s.engine.History(req.SessionID, participantID)
		if err != nil {
			return nil, err
		}
		wire, err := protocol.FromGameAll(events)
		if err != nil {
			return nil, err
		}
		return protocol.HistoryValue{SessionID: req.SessionID, Events: wire}, nil

	case protocol.TypeClaim:
		move, err := req.Claim.Move()
		if err != nil {
			return nil, err
		}
		return nil, s.engine.SubmitClaim(req.SessionID, participantID, move)

	case protocol.TypeRename:
		return nil, s.engine.ChangeName(req.SessionID, participantID, req.DisplayName)

	default:
		return nil, fmt.Errorf("%w: %q", protocol.ErrUnknownRequest, req.Type)
	}
}
