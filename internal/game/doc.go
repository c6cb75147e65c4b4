// Package game implements the rules and data model for Liar's Dice sessions.
//
// A Session owns an ordered list of participants and an append-only history of
// events. The history is the only record of turn order and round phase: whose
// turn it is, who opens the next round and what every client sees is derived
// from it rather than stored alongside it.
//
// # Turn Derivation
//
// DeriveTurn inspects the last relevant history entry:
//
//	RoundStarted -> the round's starting player acts
//	Claim        -> the claim's next player acts
//
// NameChanged entries carry no game state and are skipped.
//
// # Hidden Information
//
// Each participant's CurrentRoll is private. Only RoundStarted events carry a
// roll, and they are addressed to a single recipient. Everything broadcast uses
// PlayerView, which has no roll. Replay reconstructs the public state of a
// session from any history a participant is allowed to see.
//
// # Deterministic Testing
//
// Functions that need randomness accept a Rand, satisfied by *rand.Rand from
// math/rand/v2:
//
//	rng := randutil.New(42)
//	roll := game.RollDice(rng, 5)
package game
