package tetris

import "fmt"

// Shape is one of the seven tetrominoes.
type Shape string

const (
	I Shape = "I"
	O Shape = "O"
	S Shape = "S"
	Z Shape = "Z"
	J Shape = "J"
	L Shape = "L"
	T Shape = "T"
)

// Shapes lists every tetromino in the order used to build a bag.
var Shapes = [7]Shape{I, O, S, Z, J, L, T}

func (s Shape) Valid() bool {
	switch s {
	case I, O, S, Z, J, L, T:
		return true
	}
	return false
}

type layout struct {
	center Point
	blocks [4]Point
	color  Color
}

// Spawn layouts inside a 4 cells wide box whose top row is the first hidden row.
//
//	I  . . . .    O  . O O .    S  . S S .    Z  Z Z . .
//	   I I C I       . C O .       S C . .       . C Z .
//
//	J  J . . .    L  . . L .    T  . T . .
//	   J C J .       L C L .       T C T .
//
// C marks the rotation center. The I piece has its true pivot between four
// cells, its center is the cell right-below of that point and the difference
// is compensated in the I kick table.
var layouts = map[Shape]layout{
	I: {center: Point{2, 1}, blocks: [4]Point{{0, 1}, {1, 1}, {2, 1}, {3, 1}}, color: Cyan},
	O: {center: Point{1, 1}, blocks: [4]Point{{1, 0}, {2, 0}, {1, 1}, {2, 1}}, color: Yellow},
	S: {center: Point{1, 1}, blocks: [4]Point{{1, 0}, {2, 0}, {0, 1}, {1, 1}}, color: Green},
	Z: {center: Point{1, 1}, blocks: [4]Point{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, color: Red},
	J: {center: Point{1, 1}, blocks: [4]Point{{0, 0}, {0, 1}, {1, 1}, {2, 1}}, color: Blue},
	L: {center: Point{1, 1}, blocks: [4]Point{{2, 0}, {0, 1}, {1, 1}, {2, 1}}, color: Orange},
	T: {center: Point{1, 1}, blocks: [4]Point{{1, 0}, {0, 1}, {1, 1}, {2, 1}}, color: Purple},
}

// Layout returns the spawn center, block offsets and color of a shape,
// relative to the top-left corner of its spawn box.
func Layout(s Shape) (Point, [4]Point, Color) {
	l, ok := layouts[s]
	if !ok {
		panic(fmt.Sprintf("unknown shape %q", s))
	}
	return l.center, l.blocks, l.color
}

// Color returns the color the shape's blocks are painted with.
func (s Shape) Color() Color {
	_, _, c := Layout(s)
	return c
}
