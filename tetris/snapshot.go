package tetris

import (
	"errors"
	"fmt"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Piece is the serializable form of a Tetromino. Block colors come from the shape.
type Piece struct {
	Shape    Shape    `json:"shape"`
	Center   Point    `json:"center"`
	Blocks   [4]Point `json:"blocks"`
	Rotation Rotation `json:"rotation"`
}

// Snapshot is everything a remote viewer needs to draw a player. The ghost piece is
// left out, see Snapshot.Ghost.
type Snapshot struct {
	Columns        int       `json:"columns"`
	Rows           int       `json:"rows"`
	Cells          [][]Color `json:"cells"`
	Score          uint64    `json:"score"`
	GameOver       bool      `json:"gameOver"`
	CompletedLines uint64    `json:"completedLines"`
	Active         Piece     `json:"active"`
	Saved          *Piece    `json:"saved,omitempty"`
	Next           []Piece   `json:"next"`
	NextCapacity   int       `json:"nextCapacity"`
}

func pieceOf(t Tetromino) Piece {
	p := Piece{Shape: t.Shape, Center: t.Center, Rotation: t.Rotation}
	for i, b := range t.Blocks {
		p.Blocks[i] = b.Position
	}
	return p
}

// Tetromino rebuilds the piece for a grid of the given columns.
func (p Piece) Tetromino(columns int) (Tetromino, error) {
	if !p.Shape.Valid() {
		return Tetromino{}, fmt.Errorf("%w: unknown shape %q", ErrInvalidSnapshot, p.Shape)
	}
	if p.Rotation > R3 {
		return Tetromino{}, fmt.Errorf("%w: rotation %d", ErrInvalidSnapshot, p.Rotation)
	}
	t := NewTetromino(p.Shape, columns)
	t.Center = p.Center
	t.Rotation = p.Rotation
	color := p.Shape.Color()
	for i, b := range p.Blocks {
		t.Blocks[i] = Block{Position: b, Color: color}
	}
	return t, nil
}

func (p Piece) inside(g *Grid) error {
	for _, b := range p.Blocks {
		if !g.Inside(b) {
			return fmt.Errorf("%w: block %v out of the grid", ErrInvalidSnapshot, b)
		}
	}
	return nil
}

// Snapshot returns a copy of the player's state.
func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		Columns:        p.grid.columns,
		Rows:           p.grid.rows,
		Cells:          make([][]Color, p.grid.rows),
		Score:          p.score,
		GameOver:       p.gameOver,
		CompletedLines: p.completedLines,
		Active:         pieceOf(p.active),
		NextCapacity:   p.next.Cap(),
	}
	for y, row := range p.grid.cells {
		s.Cells[y] = append([]Color(nil), row...)
	}
	if p.saved != nil {
		saved := pieceOf(*p.saved)
		s.Saved = &saved
	}
	for _, t := range p.next.Items() {
		s.Next = append(s.Next, pieceOf(t))
	}
	return s
}

// Grid rebuilds the playfield of the snapshot.
func (s Snapshot) Grid() (*Grid, error) {
	if s.Columns < 4 || s.Columns > 127 || s.Rows < HiddenRows+4 || s.Rows > 127 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidSnapshot, s.Columns, s.Rows)
	}
	if len(s.Cells) != s.Rows {
		return nil, fmt.Errorf("%w: %d rows of cells, want %d", ErrInvalidSnapshot, len(s.Cells), s.Rows)
	}
	g := NewGrid(s.Columns, s.Rows)
	for y, row := range s.Cells {
		if len(row) != s.Columns {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidSnapshot, y, len(row), s.Columns)
		}
		for x, c := range row {
			if c > Grey {
				return nil, fmt.Errorf("%w: color %d at %d,%d", ErrInvalidSnapshot, c, x, y)
			}
			if c != None {
				g.set(Point{X: int8(x), Y: int8(y)}, c) //nolint:gosec
			}
		}
	}
	return g, nil
}

// Ghost computes where the active piece would land. It's not part of the snapshot so
// every viewer computes it on its own.
func (s Snapshot) Ghost() (Piece, bool) {
	g, err := s.Grid()
	if err != nil {
		return Piece{}, false
	}
	t, err := s.Active.Tetromino(s.Columns)
	if err != nil {
		return Piece{}, false
	}
	ghost := t.GhostCopy()
	ghost.HardDrop(g)
	return pieceOf(ghost), true
}

// RestorePlayer rebuilds a player from a snapshot. Options other than the size apply
// as they do in NewPlayer, the size comes from the snapshot.
func RestorePlayer(s Snapshot, opts ...Option) (*Player, error) {
	g, err := s.Grid()
	if err != nil {
		return nil, err
	}
	if s.NextCapacity < 1 || len(s.Next) != s.NextCapacity {
		return nil, fmt.Errorf("%w: %d next pieces with capacity %d", ErrInvalidSnapshot, len(s.Next), s.NextCapacity)
	}
	opts = append(opts, WithSize(s.Columns, s.Rows), WithQueueSize(s.NextCapacity))
	p := NewPlayer(opts...)

	active, err := s.Active.Tetromino(s.Columns)
	if err != nil {
		return nil, fmt.Errorf("active piece: %w", err)
	}
	if err := s.Active.inside(g); err != nil {
		return nil, fmt.Errorf("active piece: %w", err)
	}
	// a lost game keeps the piece that topped out, overlapping the stack.
	if !s.GameOver && !active.Fits(g) {
		return nil, fmt.Errorf("active piece: %w: overlaps the grid", ErrInvalidSnapshot)
	}
	p.next.Reset()
	for i, n := range s.Next {
		t, err := n.Tetromino(s.Columns)
		if err == nil {
			err = n.inside(g)
		}
		if err != nil {
			return nil, fmt.Errorf("next piece %d: %w", i, err)
		}
		p.next.Push(t)
	}
	p.saved = nil
	if s.Saved != nil {
		saved, err := s.Saved.Tetromino(s.Columns)
		if err == nil {
			err = s.Saved.inside(g)
		}
		if err != nil {
			return nil, fmt.Errorf("saved piece: %w", err)
		}
		p.saved = &saved
	}
	p.grid = g
	p.active = active
	p.score = s.Score
	p.gameOver = s.GameOver
	p.completedLines = s.CompletedLines
	p.updateGhost()
	return p, nil
}
