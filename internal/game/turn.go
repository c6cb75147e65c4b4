package game

import "fmt"

// DeriveTurn returns the user id of the player expected to act next.
func DeriveTurn(history []Event) (string, error) {
	ev, ok := lastRelevant(history)
	if !ok {
		return "", ErrGameNotStarted
	}

	switch p := ev.Payload.(type) {
	case Claim:
		return p.NextPlayerID, nil
	case RoundStarted:
		return p.StartingPlayerID, nil
	case PlayerJoined:
		return "", ErrGameNotStarted
	case GameOver:
		return "", ErrSessionFinished
	default:
		return "", fmt.Errorf("%w: last entry is %s", ErrTurnUnavailable, ev.Type())
	}
}

// NextPlayer returns the nearest non-eliminated participant strictly after
// currentID in cyclic join order. currentID itself is returned only when it is
// the last one standing.
func NextPlayer(participants []*Participant, currentID string) (string, error) {
	pos := -1
	for i, p := range participants {
		if p.UserID == currentID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return "", fmt.Errorf("%w: %s", ErrNotParticipant, currentID)
	}

	n := len(participants)
	for step := 1; step <= n; step++ {
		p := participants[(pos+step)%n]
		if !p.Eliminated {
			return p.UserID, nil
		}
	}
	return "", fmt.Errorf("%w: no active participants", ErrTurnUnavailable)
}

// StartingPlayer picks who opens the next round.
//
// After GameStarted the opener is drawn at random from the first n-1
// participants, so the last to join never opens the game. After a RoundResult
// the loser of that round opens; if the loss eliminated them, the nearest
// active participant after them opens instead.
func StartingPlayer(s *Session, rng Rand) (string, error) {
	if !s.Started {
		return "", ErrGameNotStarted
	}
	if s.Finished {
		return "", ErrSessionFinished
	}

	ev, ok := lastRelevant(s.History)
	if !ok {
		return "", fmt.Errorf("%w: empty history", ErrTurnUnavailable)
	}

	switch p := ev.Payload.(type) {
	case GameStarted:
		active := s.Active()
		if len(active) < 2 {
			return "", ErrNotEnoughPlayers
		}
		return active[rng.IntN(len(active)-1)].UserID, nil
	case RoundResult:
		loser := p.LoserID()
		lp, ok := s.Participant(loser)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNotParticipant, loser)
		}
		if lp.Eliminated {
			return NextPlayer(s.Participants, loser)
		}
		return loser, nil
	default:
		return "", fmt.Errorf("%w: last entry is %s", ErrTurnUnavailable, ev.Type())
	}
}
