package tui

import (
	"fmt"
	"strings"

	"github.com/lox/liarsdice/internal/game"
)

// Describe renders an event as one log line. name resolves participant ids
// to display names.
func Describe(ev game.Event, name func(string) string) string {
	switch p := ev.Payload.(type) {
	case game.PlayerJoined:
		return SuccessStyle.Render(p.Player.DisplayName + " joined")

	case game.GameStarted:
		return HeaderStyle.Render(" Game started ")

	case game.RoundStarted:
		return fmt.Sprintf("New round. Your dice: %s. %s opens.",
			DiceStyle.Render(FormatRoll(p.Player.CurrentRoll)), name(p.StartingPlayerID))

	case game.Claim:
		switch {
		case p.CheatChallenge:
			return WarningStyle.Render(name(p.ClaimantID) + " calls cheat!")
		case p.ExactChallenge:
			return WarningStyle.Render(name(p.ClaimantID) + " calls exact!")
		}
		return fmt.Sprintf("%s claims %s. %s to play.",
			name(p.ClaimantID), ClaimStyle.Render(FormatClaim(p.Quantity, p.Value)), name(p.NextPlayerID))

	case game.RoundResult:
		verdict := "false"
		if p.OriginalClaimWasTrue {
			verdict = "true"
		}
		line := fmt.Sprintf("%s challenged (%s) %s's claim of %s: it was %s. %s loses %d.",
			p.Accuser.DisplayName, p.Challenge, p.Accused.DisplayName,
			FormatClaim(p.Claim.Quantity, p.Claim.Value), verdict,
			name(p.LoserID()), p.DiceLost)
		if p.LoserEliminated {
			line += " " + ErrorStyle.Render(name(p.LoserID())+" is out.")
		}
		return line

	case game.GameOver:
		return HeaderStyle.Render(" " + p.Winner.DisplayName + " wins! ")

	case game.NameChanged:
		return InfoStyle.Render(fmt.Sprintf("%s is now %s", name(p.PlayerID), p.Name))
	}
	return InfoStyle.Render(ev.Type().String())
}

// FormatClaim renders a claim like "3 × 5s".
func FormatClaim(quantity, face int) string {
	return fmt.Sprintf("%d × %ds", quantity, face)
}

// FormatRoll renders dice faces separated by spaces.
func FormatRoll(roll []int) string {
	if len(roll) == 0 {
		return "none"
	}
	faces := make([]string, len(roll))
	for i, f := range roll {
		faces[i] = fmt.Sprint(f)
	}
	return strings.Join(faces, " ")
}
