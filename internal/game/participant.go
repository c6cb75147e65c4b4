package game

import "slices"

// StartingDice is the number of dice each participant joins with.
const StartingDice = 5

// Participant is a player seated in a session. CurrentRoll is known only to
// the participant and is regenerated at the start of every round.
type Participant struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	DiceCount   int    `json:"diceCount"`
	CurrentRoll []int  `json:"currentRoll"`
	Eliminated  bool   `json:"eliminated"`
}

// PlayerView is the public projection of a participant. It never carries a roll.
type PlayerView struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	DiceCount   int    `json:"diceCount"`
	Eliminated  bool   `json:"eliminated"`
}

// NewParticipant creates a participant with the given number of dice and no roll.
func NewParticipant(userID, displayName string, dice int) *Participant {
	return &Participant{
		UserID:      userID,
		DisplayName: displayName,
		DiceCount:   dice,
		CurrentRoll: []int{},
	}
}

// View returns the public projection of the participant.
func (p *Participant) View() PlayerView {
	return PlayerView{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		DiceCount:   p.DiceCount,
		Eliminated:  p.Eliminated,
	}
}

// Private returns a copy of the participant including its roll, for delivery
// to that participant alone.
func (p *Participant) Private() Participant {
	cp := *p
	cp.CurrentRoll = slices.Clone(p.CurrentRoll)
	return cp
}

// LoseDice removes up to n dice. Reaching zero eliminates the participant
// permanently and empties their roll. It reports whether the participant is
// now eliminated.
func (p *Participant) LoseDice(n int) bool {
	p.DiceCount = max(p.DiceCount-n, 0)
	if p.DiceCount == 0 {
		p.Eliminated = true
		p.CurrentRoll = []int{}
	}
	return p.Eliminated
}

// Count returns how many dice in the current roll show face.
func (p *Participant) Count(face int) int {
	return CountFace(p.CurrentRoll, face)
}
