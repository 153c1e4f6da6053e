// Package challenge derives the button sequences both boards must agree on.
// Two generators built from the same seed yield bit-identical streams, which
// is how paired badges play the same game without ever transmitting a
// sequence over the air.
package challenge

import (
	"math/rand"
)

// ButtonCount is the number of inputs a sequence element can name.
const ButtonCount = 4

// Length returns the challenge length for round (1-based): base 3, +1 per
// round.
func Length(round int) int {
	return round + 2
}

type Generator struct {
	rng *rand.Rand
}

func New(seed uint32) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(int64(seed)))}
}

// Next produces the next length elements of the seed-derived stream, each in
// [0, ButtonCount).
func (g *Generator) Next(length int) []int {
	seq := make([]int, length)
	for i := range seq {
		seq[i] = g.rng.Intn(ButtonCount)
	}
	return seq
}
