// Package bot plays Liar's Dice automatically.
package bot

import (
	"github.com/lox/liarsdice/internal/game"
)

// View is what a player knows when it is their turn.
type View struct {
	// Roll is the player's own dice
	Roll []int

	// Claim is the outstanding claim, nil when opening a round
	Claim *game.Claim

	// ClaimantDice is how many dice the claimant holds
	ClaimantDice int
}

// Decision is a move with the reasoning behind it
type Decision struct {
	Move      game.Move
	Reasoning string
}

// Strategy picks a legal move
type Strategy interface {
	Decide(v View) Decision
}

// bestFace returns the best face in roll and how many times it appears.
// Ties go to the higher face.
func bestFace(roll []int) (face, count int) {
	face = game.MaxFace
	for f := game.MaxFace; f >= game.MinFace; f-- {
		if c := game.CountFace(roll, f); c > count {
			face, count = f, c
		}
	}
	return face, count
}
