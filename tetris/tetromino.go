package tetris

// Tetromino is the piece being played.
//
// Center is the rotation pivot. It is moved together with Blocks but it is never
// written to the grid and for the I piece it is only an approximation of the real
// pivot (see kicksI).
type Tetromino struct {
	Shape    Shape
	Center   Point
	Blocks   [4]Block
	Rotation Rotation
	Ghost    bool

	origin Point // top-left corner of the spawn box
}

// NewTetromino returns a piece of shape s in its spawn position for a grid with the given
// number of columns.
func NewTetromino(s Shape, columns int) Tetromino {
	t := Tetromino{Shape: s, origin: Point{X: int8((columns - 4) / 2)}}
	t.Reset()
	return t
}

// Reset puts the piece back to its spawn position and orientation.
func (t *Tetromino) Reset() {
	center, blocks, color := Layout(t.Shape)
	t.Center = center.Add(t.origin)
	for i, b := range blocks {
		t.Blocks[i] = Block{Position: b.Add(t.origin), Color: color}
	}
	t.Rotation = R0
}

// CheckPossible returns the blocks the piece would have after m without changing it.
func (t *Tetromino) CheckPossible(g *Grid, m Movement) ([4]Block, error) {
	var moved [4]Block
	m.Center = t.Center
	for i, b := range t.Blocks {
		nb, err := b.MoveTo(g, m)
		if err != nil {
			return t.Blocks, err
		}
		moved[i] = nb
	}
	return moved, nil
}

func (t *Tetromino) move(g *Grid, delta Point) error {
	blocks, err := t.CheckPossible(g, Movement{Delta: delta})
	if err != nil {
		return err
	}
	t.Blocks = blocks
	t.Center = t.Center.Add(delta)
	return nil
}

// Fall moves the piece one row down or returns ErrBlocked leaving it untouched.
func (t *Tetromino) Fall(g *Grid) error { return t.move(g, Point{Y: 1}) }

// Left and Right ignore a blocked move.
func (t *Tetromino) Left(g *Grid)  { _ = t.move(g, Point{X: -1}) }
func (t *Tetromino) Right(g *Grid) { _ = t.move(g, Point{X: 1}) }

// HardDrop lets the piece fall until it's blocked and returns the rows it went down.
func (t *Tetromino) HardDrop(g *Grid) int {
	rows := 0
	for t.Fall(g) == nil {
		rows++
	}
	return rows
}

func (t *Tetromino) TurnClockwise(g *Grid) bool        { return t.turn(g, Clockwise) }
func (t *Tetromino) TurnCounterClockwise(g *Grid) bool { return t.turn(g, CounterClockwise) }

// turn tries the five kicks of the current rotation in order and commits the first
// one where every block fits.
func (t *Tetromino) turn(g *Grid, dir Turn) bool {
	kicks, ok := Kicks(t.Shape, t.Rotation, dir)
	if !ok {
		return false
	}
	for _, k := range kicks {
		blocks, err := t.CheckPossible(g, Movement{Delta: k, Turn: dir})
		if err != nil {
			continue
		}
		t.Blocks = blocks
		t.Center = t.Center.Add(k)
		t.Rotation = t.Rotation.Next(dir)
		return true
	}
	return false
}

// Fits reports whether the piece can stay where it is.
func (t *Tetromino) Fits(g *Grid) bool {
	_, err := t.CheckPossible(g, Movement{})
	return err == nil
}

// GhostCopy returns a copy flagged as ghost. It's only a rendering hint.
func (t *Tetromino) GhostCopy() Tetromino {
	c := *t
	c.Ghost = true
	return c
}
