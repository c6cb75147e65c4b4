package game

import (
	"fmt"
	"strings"
)

// Move is what a player submits on their turn: a Raise, a CallCheat or a
// CallExact.
type Move interface {
	isMove()
}

// Raise claims that at least Quantity dice show Value.
type Raise struct {
	Quantity int
	Value    int
}

// CallCheat challenges the previous claim as an overstatement.
type CallCheat struct{}

// CallExact challenges the previous claim as exactly right.
type CallExact struct{}

func (Raise) isMove()     {}
func (CallCheat) isMove() {}
func (CallExact) isMove() {}

// Validate checks the raise is well formed.
func (r Raise) Validate() error {
	if r.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidClaim)
	}
	if r.Value < MinFace || r.Value > MaxFace {
		return fmt.Errorf("%w: value must be between %d and %d", ErrInvalidClaim, MinFace, MaxFace)
	}
	return nil
}

// MoveFromFlags converts the flag-based claim payload used on the wire into
// a Move.
func MoveFromFlags(quantity, value int, cheat, exact bool) (Move, error) {
	switch {
	case cheat && exact:
		return nil, fmt.Errorf("%w: cannot call cheat and exact at once", ErrInvalidClaim)
	case cheat:
		return CallCheat{}, nil
	case exact:
		return CallExact{}, nil
	}
	r := Raise{Quantity: quantity, Value: value}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ChallengeKind distinguishes the two challenges.
type ChallengeKind int

const (
	ChallengeCheat ChallengeKind = iota
	ChallengeExact
)

// String returns the string representation of the challenge kind
func (c ChallengeKind) String() string {
	if c == ChallengeExact {
		return "exact"
	}
	return "cheat"
}

// Penalty is the number of dice the loser of the challenge gives up.
func (c ChallengeKind) Penalty() int {
	if c == ChallengeExact {
		return 2
	}
	return 1
}

// MarshalText encodes the kind as its name
func (c ChallengeKind) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a kind name, ignoring case
func (c *ChallengeKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "cheat":
		*c = ChallengeCheat
	case "exact":
		*c = ChallengeExact
	default:
		return fmt.Errorf("unknown challenge kind %q", text)
	}
	return nil
}
