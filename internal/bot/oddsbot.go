package bot

import (
	"fmt"
	"math"

	"github.com/lox/liarsdice/internal/game"
)

const faceProbability = 1.0 / (game.MaxFace - game.MinFace + 1)

// OddsBot claims honestly when it can and otherwise picks whichever of
// bluffing, calling cheat or calling exact has the lowest expected dice
// loss against the claimant's dice.
type OddsBot struct {
	// BluffRisk is the assumed chance a bluff gets caught
	BluffRisk float64
}

// NewOddsBot creates an OddsBot with a default bluff risk
func NewOddsBot() *OddsBot {
	return &OddsBot{BluffRisk: 0.6}
}

func (b *OddsBot) Decide(v View) Decision {
	face, count := bestFace(v.Roll)

	if v.Claim == nil {
		return Decision{
			Move:      game.Raise{Quantity: 1, Value: face},
			Reasoning: fmt.Sprintf("open low on %ds, holding %d", face, count),
		}
	}

	prior := v.Claim.Quantity
	if count > prior {
		return Decision{
			Move:      game.Raise{Quantity: prior + 1, Value: face},
			Reasoning: fmt.Sprintf("honest raise, holding %d × %ds", count, face),
		}
	}

	n := v.ClaimantDice
	pCheat := 0.0
	for k := 0; k < prior; k++ {
		pCheat += binomialPMF(n, k, faceProbability)
	}
	pExact := binomialPMF(n, prior, faceProbability)

	lossCheat := (1 - pCheat) * float64(game.ChallengeCheat.Penalty())
	lossExact := (1 - pExact) * float64(game.ChallengeExact.Penalty())
	lossBluff := math.Inf(1)
	if prior+1 <= len(v.Roll) {
		lossBluff = b.BluffRisk
	}

	reason := fmt.Sprintf("claimant has %d dice, P(cheat)=%.2f P(exact)=%.2f", n, pCheat, pExact)
	switch {
	case lossCheat <= lossExact && lossCheat <= lossBluff:
		return Decision{Move: game.CallCheat{}, Reasoning: reason}
	case lossExact <= lossBluff:
		return Decision{Move: game.CallExact{}, Reasoning: reason}
	}
	return Decision{
		Move:      game.Raise{Quantity: prior + 1, Value: face},
		Reasoning: "bluff: " + reason,
	}
}

// binomialPMF is P(X = k) for X ~ Binomial(n, p).
func binomialPMF(n, k int, p float64) float64 {
	if k < 0 || k > n {
		return 0
	}
	c := 1.0
	for i := 0; i < k; i++ {
		c = c * float64(n-i) / float64(i+1)
	}
	return c * math.Pow(p, float64(k)) * math.Pow(1-p, float64(n-k))
}
