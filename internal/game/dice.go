package game

// Faces on a die.
const (
	MinFace = 1
	MaxFace = 6
)

// Rand is the source of randomness used for dice and starting players.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// RollDice rolls n six-sided dice.
func RollDice(rng Rand, n int) []int {
	roll := make([]int, n)
	for i := range roll {
		roll[i] = rng.IntN(MaxFace) + MinFace
	}
	return roll
}

// CountFace counts the dice in roll showing face.
func CountFace(roll []int, face int) int {
	count := 0
	for _, v := range roll {
		if v == face {
			count++
		}
	}
	return count
}
