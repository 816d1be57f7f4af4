package tetris

import "fmt"

// Turn is the direction of a quarter rotation.
type Turn int8

const (
	NoTurn           Turn = 0
	Clockwise        Turn = 1
	CounterClockwise Turn = -1
)

// Rotation is the orientation of a piece, R0 being the spawn orientation.
// Turning clockwise goes R0 > R1 > R2 > R3 > R0.
type Rotation uint8

const (
	R0 Rotation = iota
	R1
	R2
	R3
)

// Next returns the rotation reached after turning t.
func (r Rotation) Next(t Turn) Rotation {
	return Rotation((int(r) + int(t) + 4) % 4)
}

func (r Rotation) String() string { return fmt.Sprintf("R%d", r%4) }

// Kick tables are indexed by [from rotation][direction] where direction 0 is
// clockwise and 1 is counter-clockwise. Offsets are in playfield coordinates
// (y grows downwards) so the Y values are the negation of the ones published
// in the SRS guideline. https://tetris.wiki/Super_Rotation_System
var kicksJLSTZ = [4][2][5]Point{
	R0: {
		{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}}, // 0>R
		{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},    // 0>L
	},
	R1: {
		{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}}, // R>2
		{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}}, // R>0
	},
	R2: {
		{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},    // 2>L
		{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}}, // 2>R
	},
	R3: {
		{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}}, // L>0
		{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}}, // L>2
	},
}

// The I piece rotates around a cell next to its real pivot. Every I entry is
// the guideline offset plus the shift that puts the blocks where a rotation
// around the real pivot would: 0>R (0,1), R>2 (-1,0), 2>L (0,-1), L>0 (1,0)
// and the opposite for the counter-clockwise turns.
var kicksI = [4][2][5]Point{
	R0: {
		{{0, 1}, {-2, 1}, {1, 1}, {-2, 2}, {1, -1}},  // 0>R
		{{-1, 0}, {-2, 0}, {1, 0}, {-2, -2}, {1, 1}}, // 0>L
	},
	R1: {
		{{-1, 0}, {-2, 0}, {1, 0}, {-2, -2}, {1, 1}},   // R>2
		{{0, -1}, {2, -1}, {-1, -1}, {2, -2}, {-1, 1}}, // R>0
	},
	R2: {
		{{0, -1}, {2, -1}, {-1, -1}, {2, -2}, {-1, 1}}, // 2>L
		{{1, 0}, {2, 0}, {-1, 0}, {2, 2}, {-1, -1}},    // 2>R
	},
	R3: {
		{{1, 0}, {2, 0}, {-1, 0}, {2, 2}, {-1, -1}}, // L>0
		{{0, 1}, {-2, 1}, {1, 1}, {-2, 2}, {1, -1}}, // L>2
	},
}

// Kicks returns the five candidate offsets tried, in order, when turning a
// piece of shape s from rotation r. O doesn't rotate and has no kicks.
func Kicks(s Shape, r Rotation, t Turn) ([5]Point, bool) {
	dir := 0
	switch t {
	case Clockwise:
	case CounterClockwise:
		dir = 1
	default:
		return [5]Point{}, false
	}
	switch s {
	case O:
		return [5]Point{}, false
	case I:
		return kicksI[r%4][dir], true
	case J, L, S, T, Z:
		return kicksJLSTZ[r%4][dir], true
	}
	return [5]Point{}, false
}
