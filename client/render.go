package client

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/template"

	"tetrix/tetris"
)

const (
	// ASCII colors.
	Cyan    = "36"
	Blue    = "34"
	Orange  = "38;5;214"
	Yellow  = "33"
	Green   = "32"
	Red     = "31"
	Magenta = "35"
	Grey    = "90"

	resetPos    = "\033[H" // Reset cursor position to 0,0
	clearScreen = "\033[2J\033[H"

	// size of a board nobody sent a snapshot for yet.
	emptyColumns = 10
	emptyRows    = 20

	sideWidth = 10
	boxWidth  = 38
)

//go:embed "layout.tmpl"
var layout string

var colorMap = map[tetris.Color]string{
	tetris.Cyan:   Cyan,
	tetris.Blue:   Blue,
	tetris.Orange: Orange,
	tetris.Yellow: Yellow,
	tetris.Green:  Green,
	tetris.Red:    Red,
	tetris.Purple: Magenta,
	tetris.Grey:   Grey,
}

// board is one playfield on screen.
type board struct {
	Name     string
	Snapshot tetris.Snapshot
	Ghost    *tetris.Piece
	Received bool
}

// localBoard draws a player of a game running in this process.
func localBoard(name string, s tetris.Snapshot, ghost tetris.Piece, ok bool) board {
	b := board{Name: name, Snapshot: s, Received: true}
	if ok {
		b.Ghost = &ghost
	}
	return b
}

// remoteBoard draws a snapshot received from the network. The ghost isn't sent so
// it's computed here.
func remoteBoard(name string, s tetris.Snapshot, received bool) board {
	b := board{Name: name, Snapshot: s, Received: received}
	if !received {
		return b
	}
	if g, ok := s.Ghost(); ok {
		b.Ghost = &g
	}
	return b
}

type templateData struct {
	Boards  []board
	NoGhost bool
}

type renderer interface {
	game(boards []board)
	lobby(msg string)
	reset()
}

type render struct {
	writer   io.Writer
	logger   *slog.Logger
	template *template.Template
	noGhost  bool
}

func newRender(w io.Writer, l *slog.Logger, noGhost bool) (*render, error) {
	tmp, err := loadTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &render{writer: w, logger: l, template: tmp, noGhost: noGhost}, nil
}

func (r *render) game(boards []board) {
	fmt.Fprint(r.writer, resetPos)
	if err := r.template.Execute(r.writer, &templateData{Boards: boards, NoGhost: r.noGhost}); err != nil {
		r.logger.Error("unable to execute template", slog.String("error", err.Error()))
	}
}

// lobby draws the menu box over whatever is on screen. An empty msg leaves the
// middle line blank.
func (r *render) lobby(msg string) {
	fmt.Fprint(r.writer, "\033[10;9H+"+strings.Repeat("-", boxWidth)+"+")
	fmt.Fprint(r.writer, "\033[11;9H|"+center("Welcome to \033[1mTerminal Tetris\033[0m", boxWidth, 8)+"|")
	fmt.Fprint(r.writer, "\033[12;9H|"+center(msg, boxWidth, 0)+"|")
	fmt.Fprint(r.writer, "\033[13;9H|"+center("(p)lay (v)ersus (o)nline (q)uit", boxWidth, 0)+"|")
	fmt.Fprint(r.writer, "\033[14;9H+"+strings.Repeat("-", boxWidth)+"+")
}

func (r *render) reset() {
	fmt.Fprint(r.writer, clearScreen)
}

func loadTemplate() (*template.Template, error) {
	funcMap := template.FuncMap{
		"header": header,
		"rows":   rows,
	}

	// we use the console raw so new lines don't automatically transform into carriage return
	// to fix that we add a carriage return to every new line in the layout.
	l := strings.ReplaceAll(layout, "\n", "\r\n")
	l = strings.ReplaceAll(l, "Terminal Tetris", "\033[1mTerminal Tetris\033[0m")
	return template.New("layout").Funcs(funcMap).Parse(l)
}

// center pads s to width. hidden is the number of bytes of s that don't take space
// on screen, like escape sequences.
func center(s string, width, hidden int) string {
	n := len(s) - hidden
	if n >= width {
		return s[:width+hidden]
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func header(t *templateData) string {
	switch len(t.Boards) {
	case 0:
		return ""
	case 2:
		return vs(t.Boards[0].Name, t.Boards[1].Name)
	default:
		return t.Boards[0].Name
	}
}

func cell(c tetris.Color) string {
	code, ok := colorMap[c]
	if !ok {
		return "  "
	}
	return fmt.Sprintf("\x1b[7m\x1b[%sm[]\x1b[0m", code)
}

// stack returns the visible rows of the board with the ghost and the active piece
// drawn over the frozen blocks.
func stack(b board, noGhost bool) [][]string {
	if !b.Received || b.Snapshot.Rows <= tetris.HiddenRows || b.Snapshot.Columns <= 0 {
		rendered := make([][]string, emptyRows)
		for y := range rendered {
			rendered[y] = make([]string, emptyColumns)
			for x := range rendered[y] {
				rendered[y][x] = "  "
			}
		}
		return rendered
	}

	s := b.Snapshot
	visible := s.Rows - tetris.HiddenRows
	rendered := make([][]string, visible)
	for y := range visible {
		rendered[y] = make([]string, s.Columns)
		for x := range s.Columns {
			c := tetris.None
			if y+tetris.HiddenRows < len(s.Cells) && x < len(s.Cells[y+tetris.HiddenRows]) {
				c = s.Cells[y+tetris.HiddenRows][x]
			}
			rendered[y][x] = cell(c)
		}
	}

	put := func(p tetris.Point, out string) {
		y, x := int(p.Y)-tetris.HiddenRows, int(p.X)
		if y < 0 || y >= visible || x < 0 || x >= s.Columns {
			return
		}
		rendered[y][x] = out
	}
	if b.Ghost != nil && !noGhost && !s.GameOver {
		for _, p := range b.Ghost.Blocks {
			put(p, "[]")
		}
	}
	if s.Active.Shape.Valid() {
		for _, p := range s.Active.Blocks {
			put(p, cell(s.Active.Shape.Color()))
		}
	}
	return rendered
}

// preview draws a piece in two rows of four cells, the size of every spawn layout.
func preview(p tetris.Piece) [2]string {
	grid := [2][4]string{}
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = "  "
		}
	}
	minX, minY := p.Blocks[0].X, p.Blocks[0].Y
	for _, b := range p.Blocks {
		minX = min(minX, b.X)
		minY = min(minY, b.Y)
	}
	for _, b := range p.Blocks {
		x, y := int(b.X)-int(minX), int(b.Y)-int(minY)
		if x >= 0 && x < 4 && y >= 0 && y < 2 {
			grid[y][x] = cell(p.Shape.Color())
		}
	}
	return [2]string{strings.Join(grid[0][:], ""), strings.Join(grid[1][:], "")}
}

// side returns the panel next to the board: upcoming pieces and the held one. Every
// line takes sideWidth columns.
func side(b board) []string {
	text := func(s string) string { return fmt.Sprintf(" %-*s", sideWidth-1, s) }
	piece := func(p tetris.Piece) []string {
		r := preview(p)
		return []string{" " + r[0] + " ", " " + r[1] + " "}
	}

	lines := []string{text("NEXT")}
	if !b.Received {
		return lines
	}
	for _, p := range b.Snapshot.Next {
		lines = append(lines, piece(p)...)
		lines = append(lines, text(""))
	}
	lines = append(lines, text("HOLD"))
	if b.Snapshot.Saved != nil {
		lines = append(lines, piece(*b.Snapshot.Saved)...)
	}
	return lines
}

// rows joins the boards side by side, one string per screen line.
func rows(t *templateData) []string {
	var panels [][]string
	var widths []int
	height := 0
	for _, b := range t.Boards {
		st := stack(b, t.NoGhost)
		sd := side(b)
		width := emptyColumns
		if len(st) > 0 {
			width = len(st[0])
		}
		border := "+" + strings.Repeat("--", width) + "+" + strings.Repeat(" ", sideWidth)
		lines := make([]string, 0, len(st)+2)
		lines = append(lines, border)
		for y, r := range st {
			s := strings.Repeat(" ", sideWidth)
			if y < len(sd) {
				s = sd[y]
			}
			row := strings.Join(r, "")
			if b.Snapshot.GameOver && y == len(st)/2 {
				row = center("GAME OVER", width*2, 0)
			}
			lines = append(lines, "|"+row+"|"+s)
		}
		lines = append(lines, border)
		panels = append(panels, lines)
		widths = append(widths, width*2+2+sideWidth)
		height = max(height, len(lines))
	}

	out := make([]string, height)
	for i, lines := range panels {
		for y := range out {
			if i > 0 {
				out[y] += "  "
			}
			if y < len(lines) {
				out[y] += lines[y]
				continue
			}
			out[y] += strings.Repeat(" ", widths[i])
		}
	}
	return out
}

func vs(lName, rName string) string {
	maxL := 9
	l := len(lName)
	switch {
	case l > maxL:
		lName = lName[:maxL]
	case l < maxL:
		lName = strings.Repeat(" ", maxL-len(lName)) + lName
	}

	r := len(rName)
	switch {
	case r > maxL:
		rName = rName[:maxL]
	case r < maxL:
		rName += strings.Repeat(" ", maxL-len(rName))
	}
	return fmt.Sprintf(" %s <- vs -> %s ", lName, rName)
}
