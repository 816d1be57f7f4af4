package tetris

import "math/rand/v2"

// HiddenRows is the number of rows above the visible playfield. Pieces spawn there
// and a piece frozen entirely inside them ends the game.
const HiddenRows = 2

// Grid is the playfield. Row 0 is the top hidden row.
//
//	.	0 1 2 3 4 5 6 7 8 9
//	0	. . . . . . . . . .	hidden
//	1	. . . . . . . . . .	hidden
//	2	. . . . . . . . . .	first visible row
//	...
//	21	. . . . . . . . . .	floor
//
// fill keeps the number of occupied cells of each row so complete rows are found
// without scanning them.
type Grid struct {
	columns, rows int
	cells         [][]Color
	fill          []uint8
}

// NewGrid returns an empty grid. Columns can't be more than 255 and both sizes
// must fit an int8 coordinate.
func NewGrid(columns, rows int) *Grid {
	g := &Grid{
		columns: columns,
		rows:    rows,
		cells:   make([][]Color, rows),
		fill:    make([]uint8, rows),
	}
	for y := range g.cells {
		g.cells[y] = make([]Color, columns)
	}
	return g
}

func (g *Grid) Columns() int { return g.columns }
func (g *Grid) Rows() int    { return g.rows }

// Filled returns how many cells of row y are occupied.
func (g *Grid) Filled(y int) int { return int(g.fill[y]) }

// Inside reports whether p is within the grid bounds.
func (g *Grid) Inside(p Point) bool {
	return p.X >= 0 && int(p.X) < g.columns && p.Y >= 0 && int(p.Y) < g.rows
}

// Cell returns the color at x, y. Out of bounds cells are empty.
func (g *Grid) Cell(x, y int) Color {
	if x < 0 || x >= g.columns || y < 0 || y >= g.rows {
		return None
	}
	return g.cells[y][x]
}

// Occupied reports whether the cell at p holds a block. It must be Inside.
func (g *Grid) Occupied(p Point) bool {
	return g.cells[p.Y][p.X] != None
}

func (g *Grid) set(p Point, c Color) {
	if g.cells[p.Y][p.X] == None {
		g.fill[p.Y]++
	}
	g.cells[p.Y][p.X] = c
}

// Freeze copies the blocks of t into the grid and clears the complete rows.
// It returns the number of rows cleared, or false when every block of t landed in the
// hidden rows, which is a lock out.
func (g *Grid) Freeze(t *Tetromino) (uint64, bool) {
	visible := false
	for _, b := range t.Blocks {
		g.set(b.Position, b.Color)
		if b.Position.Y >= HiddenRows {
			visible = true
		}
	}
	if !visible {
		return 0, false
	}

	// one pass from the top. Removing row y only shifts the rows above it, which have
	// been checked already.
	var cleared uint64
	for y := range g.rows {
		if int(g.fill[y]) == g.columns {
			g.removeRow(y)
			cleared++
		}
	}
	return cleared, true
}

// removeRow drops row y and inserts an empty row at the top, reusing its memory.
func (g *Grid) removeRow(y int) {
	row := g.cells[y]
	clear(row)
	copy(g.cells[1:y+1], g.cells[:y])
	g.cells[0] = row
	copy(g.fill[1:y+1], g.fill[:y])
	g.fill[0] = 0
}

// GarbageLines returns how many garbage lines a clear of n lines sends.
// A tetris sends all four lines, any other multi line clear sends one less.
func GarbageLines(n uint64) uint64 {
	switch {
	case n < 2:
		return 0
	case n == 4:
		return 4
	default:
		return n - 1
	}
}

// AddGarbage pushes GarbageLines(n) grey rows at the bottom of the grid. The rows
// share a single empty column picked with rng. Everything moves up and the top rows
// are lost. It returns the number of rows added, never more than the rows of the
// grid: past that every row is garbage anyway.
func (g *Grid) AddGarbage(n uint64, rng *rand.Rand) uint64 {
	lines := min(GarbageLines(n), uint64(g.rows)) //nolint:gosec
	if lines == 0 {
		return 0
	}
	hole := rng.IntN(g.columns)
	for range lines {
		row := g.cells[0]
		copy(g.cells, g.cells[1:])
		copy(g.fill, g.fill[1:])
		for x := range row {
			row[x] = Grey
		}
		row[hole] = None
		g.cells[g.rows-1] = row
		g.fill[g.rows-1] = uint8(g.columns - 1) //nolint:gosec
	}
	return lines
}

// Null empties the grid keeping its memory.
func (g *Grid) Null() {
	for y := range g.cells {
		clear(g.cells[y])
	}
	clear(g.fill)
}

// Count returns the number of occupied cells of the whole grid.
func (g *Grid) Count() int {
	n := 0
	for _, f := range g.fill {
		n += int(f)
	}
	return n
}
