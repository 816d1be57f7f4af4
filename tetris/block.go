package tetris

import (
	"errors"
	"fmt"
)

// ErrBlocked is returned when a block or piece would land out of bounds or over an
// occupied cell. It never reaches the player, callers use it to decide what's next.
var ErrBlocked = errors.New("blocked")

// Color is what a cell of the playfield holds. None is an empty cell.
type Color uint8

const (
	None Color = iota
	Cyan
	Yellow
	Green
	Red
	Blue
	Orange
	Purple
	Grey // garbage
)

var colorNames = [...]string{
	None:   "",
	Cyan:   "cyan",
	Yellow: "yellow",
	Green:  "green",
	Red:    "red",
	Blue:   "blue",
	Orange: "orange",
	Purple: "purple",
	Grey:   "grey",
}

func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return fmt.Sprintf("Color(%d)", c)
}

func (c Color) MarshalText() ([]byte, error) {
	if int(c) >= len(colorNames) {
		return nil, fmt.Errorf("invalid color %d", c)
	}
	return []byte(colorNames[c]), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	for i, n := range colorNames {
		if n == string(b) {
			*c = Color(i)
			return nil
		}
	}
	return fmt.Errorf("invalid color %q", b)
}

// Block is one colored cell. While the piece is active it belongs to a
// Tetromino, once frozen its color is copied into the Grid.
type Block struct {
	Position Point
	Color    Color
}

// Movement is a translation followed by an optional quarter turn around
// Center, where Center is the pivot after the translation has been applied.
type Movement struct {
	Delta  Point
	Turn   Turn
	Center Point
}

func (m Movement) apply(p Point) Point {
	return p.Add(m.Delta).rotate(m.Center.Add(m.Delta), m.Turn)
}

// MoveTo returns the block as it would be after applying m. The grid is only read.
func (b Block) MoveTo(g *Grid, m Movement) (Block, error) {
	p := m.apply(b.Position)
	if !g.Inside(p) || g.Occupied(p) {
		return b, ErrBlocked
	}
	return Block{Position: p, Color: b.Color}, nil
}
