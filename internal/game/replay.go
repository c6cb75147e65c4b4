package game

// PublicState is everything about a session that every participant may know.
type PublicState struct {
	Started      bool         `json:"started"`
	Finished     bool         `json:"finished"`
	Participants []PlayerView `json:"participants"`
	WinnerID     string       `json:"winnerId,omitempty"`
}

// PublicState returns the live session's public fields.
func (s *Session) PublicState() PublicState {
	state := PublicState{
		Started:      s.Started,
		Finished:     s.Finished,
		Participants: s.Views(""),
	}
	if s.Finished {
		if active := s.Active(); len(active) == 1 {
			state.WinnerID = active[0].UserID
		}
	}
	return state
}

// Replay folds a history into public state. Private entries addressed to any
// participant may be present or absent; the result is the same.
func Replay(history []Event) PublicState {
	state := PublicState{Participants: []PlayerView{}}

	index := func(id string) int {
		for i, p := range state.Participants {
			if p.UserID == id {
				return i
			}
		}
		return -1
	}
	update := func(v PlayerView) {
		if i := index(v.UserID); i >= 0 {
			state.Participants[i].DiceCount = v.DiceCount
			state.Participants[i].Eliminated = v.Eliminated
		}
	}

	for _, ev := range history {
		switch p := ev.Payload.(type) {
		case PlayerJoined:
			state.Participants = append(state.Participants, p.Player)
		case GameStarted:
			state.Started = true
		case RoundStarted:
			update(p.Player.View())
		case RoundResult:
			update(p.Accuser)
			update(p.Accused)
		case GameOver:
			state.Finished = true
			state.WinnerID = p.Winner.UserID
		case NameChanged:
			if i := index(p.PlayerID); i >= 0 {
				state.Participants[i].DisplayName = p.Name
			}
		}
	}
	return state
}
