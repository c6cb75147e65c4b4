package bot

import (
	"github.com/lox/liarsdice/internal/game"
)

// RandBot is a simple bot that makes uniform random legal moves
type RandBot struct {
	rng game.Rand
}

// NewRandBot creates a new RandBot instance
func NewRandBot(rng game.Rand) *RandBot {
	return &RandBot{rng: rng}
}

func (r *RandBot) Decide(v View) Decision {
	prior := 0
	if v.Claim != nil {
		prior = v.Claim.Quantity

		switch r.rng.IntN(6) {
		case 0, 1:
			return Decision{Move: game.CallCheat{}, Reasoning: "rand-bot random cheat"}
		case 2:
			return Decision{Move: game.CallExact{}, Reasoning: "rand-bot random exact"}
		}
	}

	return Decision{
		Move: game.Raise{
			Quantity: prior + 1 + r.rng.IntN(2),
			Value:    game.MinFace + r.rng.IntN(game.MaxFace),
		},
		Reasoning: "rand-bot random raise",
	}
}
