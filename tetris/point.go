package tetris

// Point is a cell coordinate in the playfield.
// X grows left to right and Y grows top to bottom.
// Points are not bounds checked, that is the job of the Block moving over a Grid.
type Point struct {
	X int8 `json:"x"`
	Y int8 `json:"y"`
}

func (p Point) Add(o Point) Point           { return Point{X: p.X + o.X, Y: p.Y + o.Y} }
func (p Point) Translate(dx, dy int8) Point { return Point{X: p.X + dx, Y: p.Y + dy} }
func (p Point) Up() Point                   { return p.Translate(0, -1) }
func (p Point) Down() Point                 { return p.Translate(0, 1) }
func (p Point) Left() Point                 { return p.Translate(-1, 0) }
func (p Point) Right() Point                { return p.Translate(1, 0) }

// RotateClockwise turns p 90 degrees clockwise around c.
//
//	x' = cx - (y - cy)
//	y' = cy + (x - cx)
func (p Point) RotateClockwise(c Point) Point {
	return Point{
		X: c.X - (p.Y - c.Y),
		Y: c.Y + (p.X - c.X),
	}
}

// RotateCounterClockwise is the exact inverse of RotateClockwise.
func (p Point) RotateCounterClockwise(c Point) Point {
	return Point{
		X: c.X + (p.Y - c.Y),
		Y: c.Y - (p.X - c.X),
	}
}

// rotate turns p around c in the given direction. A zero Turn leaves it untouched.
func (p Point) rotate(c Point, t Turn) Point {
	switch t {
	case Clockwise:
		return p.RotateClockwise(c)
	case CounterClockwise:
		return p.RotateCounterClockwise(c)
	}
	return p
}
