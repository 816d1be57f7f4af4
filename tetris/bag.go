package tetris

import "math/rand/v2"

// newBag returns size shapes taken from enough shuffled copies of the seven
// tetrominoes, so every shape shows up at most ceil(size/7) times.
func newBag(size int, rng *rand.Rand) []Shape {
	cycles := (size + len(Shapes) - 1) / len(Shapes)
	pieces := make([]Shape, 0, cycles*len(Shapes))
	for range cycles {
		pieces = append(pieces, Shapes[:]...)
	}
	rng.Shuffle(len(pieces), func(i, j int) {
		pieces[i], pieces[j] = pieces[j], pieces[i]
	})
	return pieces[:size]
}

// bag is drawn from the end. It's refilled from the same rng stream so the whole
// sequence of a game only depends on the seed.
type bag struct {
	size   int
	pieces []Shape
	rng    *rand.Rand
}

func (b *bag) draw() Shape {
	if len(b.pieces) == 0 {
		b.pieces = newBag(b.size, b.rng)
	}
	s := b.pieces[len(b.pieces)-1]
	b.pieces = b.pieces[:len(b.pieces)-1]
	return s
}
