package tetris

import (
	"fmt"
	"math/rand/v2"
)

// Two PCG streams per seed: pieces and garbage holes. Keeping the holes on their own
// stream means receiving garbage never changes the sequence of pieces.
const (
	pieceStream   = 0x7e7a1
	garbageStream = 0x9a4b6e
)

// points per number of lines cleared at once. https://tetris.wiki/Scoring
var points = [5]uint64{0, 100, 300, 500, 800}

type options struct {
	columns, rows  int
	seed           uint64
	queueSize      int
	bagSize        int
	longPressDelay uint32
	repeatPeriod   uint64
}

func defaultOptions() options {
	return options{
		columns:        10,
		rows:           20 + HiddenRows,
		queueSize:      5,
		bagSize:        len(Shapes),
		longPressDelay: 10,
		repeatPeriod:   5,
	}
}

// Option configures a Player.
type Option func(*options)

// WithSize sets the playfield size. Rows include the hidden ones.
func WithSize(columns, rows int) Option {
	if columns < 4 || columns > 127 || rows < HiddenRows+4 || rows > 127 {
		panic(fmt.Errorf("invalid grid size %dx%d", columns, rows))
	}
	return func(o *options) {
		o.columns = columns
		o.rows = rows
	}
}

// WithSeed sets the seed of the piece sequence.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithQueueSize sets how many upcoming pieces are visible.
func WithQueueSize(n int) Option {
	if n < 1 {
		panic(fmt.Errorf("invalid queue size %d", n))
	}
	return func(o *options) { o.queueSize = n }
}

// WithBagSize sets how many pieces are drawn before the bag is refilled.
func WithBagSize(n int) Option {
	if n < 1 {
		panic(fmt.Errorf("invalid bag size %d", n))
	}
	return func(o *options) { o.bagSize = n }
}

// WithLongPressDelay sets the ticks a key must be held before it repeats.
func WithLongPressDelay(ticks uint32) Option {
	return func(o *options) { o.longPressDelay = ticks }
}

// WithRepeatPeriod sets every how many ticks a long pressed key repeats.
func WithRepeatPeriod(ticks uint64) Option {
	if ticks == 0 {
		panic("repeat period must be positive")
	}
	return func(o *options) { o.repeatPeriod = ticks }
}

// Player is the state of one playfield. It isn't safe for concurrent use, the Game
// loop owns it.
type Player struct {
	opts    options
	grid    *Grid
	rng     *rand.Rand
	holes   *rand.Rand
	bag     bag
	keys    *keyState
	next    *ring[Tetromino]
	active  Tetromino
	saved   *Tetromino
	ghost   *Tetromino
	garbage []uint64

	score          uint64
	completedLines uint64
	gameOver       bool
	freezeDeadline uint64
	freezePending  bool
}

func NewPlayer(opts ...Option) *Player {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Player{
		opts: o,
		grid: NewGrid(o.columns, o.rows),
		keys: newKeyState(o.longPressDelay),
		next: newRing[Tetromino](o.queueSize),
	}
	p.Restart(o.seed)
	return p
}

// Restart empties the playfield and starts a new game from seed.
func (p *Player) Restart(seed uint64) {
	p.grid.Null()
	p.rng = rand.New(rand.NewPCG(seed, pieceStream))
	p.holes = rand.New(rand.NewPCG(seed, garbageStream))
	p.bag = bag{size: p.opts.bagSize, rng: p.rng}
	p.keys.reset()
	p.score = 0
	p.completedLines = 0
	p.gameOver = false
	p.freezePending = false
	p.saved = nil
	p.garbage = p.garbage[:0]
	p.next.Reset()
	for p.next.Len() < p.next.Cap() {
		p.next.Push(p.newTetromino())
	}
	p.spawn()
	p.updateGhost()
}

func (p *Player) newTetromino() Tetromino {
	return NewTetromino(p.bag.draw(), p.grid.Columns())
}

// spawn takes the next piece of the queue. A piece that doesn't fit is a lock out,
// it goes back to the front of the queue and the game is over.
func (p *Player) spawn() bool {
	candidate := p.next.Pop()
	if !candidate.Fits(p.grid) {
		p.gameOver = true
		p.next.PushFront(candidate)
		return false
	}
	p.next.Push(p.newTetromino())
	p.active = candidate
	p.freezePending = false
	return true
}

// HandleKey records a key event. It takes effect on the next Update.
func (p *Player) HandleKey(e KeyEvent) { p.keys.handle(e) }

// Update runs one tick. fallPeriod is the ticks between gravity steps and lockDelay
// the ticks a piece waits on the floor before freezing. The order of the steps
// matters, each one sees the grid left by the previous one.
func (p *Player) Update(tick, fallPeriod, lockDelay uint64) {
	defer p.keys.tick()

	if p.keys.justPressed(KeyRestart) {
		p.Restart(p.rng.Uint64())
		return
	}
	if p.gameOver {
		return
	}

	p.pressActions(tick)

	if tick%p.opts.repeatPeriod == 0 {
		p.repeatActions()
	}

	if fallPeriod > 0 && tick%fallPeriod == 0 {
		if err := p.active.Fall(p.grid); err != nil {
			p.scheduleFreeze(tick + lockDelay)
		}
	}

	if p.freezePending && tick == p.freezeDeadline {
		p.freezePending = false
		// the piece might have been moved away from the floor since the deadline was set.
		if _, err := p.active.CheckPossible(p.grid, Movement{Delta: Point{Y: 1}}); err != nil {
			p.freeze()
		}
	}

	if !p.gameOver {
		p.updateGhost()
	}

	// garbage goes last so a piece already moved this tick isn't shifted under the player.
	p.applyGarbage()
}

// pressActions fires the actions bound to a key press. They happen once per press.
func (p *Player) pressActions(tick uint64) {
	k := p.keys
	if k.justPressed(KeyHold) {
		p.hold()
		if p.gameOver {
			return
		}
	}
	if k.justPressed(KeyRotateClockwise) {
		p.active.TurnClockwise(p.grid)
	}
	if k.justPressed(KeyRotateCounterClockwise) {
		p.active.TurnCounterClockwise(p.grid)
	}
	if k.justPressed(KeyLeft) {
		p.active.Left(p.grid)
	}
	if k.justPressed(KeyRight) {
		p.active.Right(p.grid)
	}
	if k.justPressed(KeyFall) {
		_ = p.active.Fall(p.grid)
	}
	if k.justPressed(KeyHardDrop) {
		p.active.HardDrop(p.grid)
		p.freezeDeadline = tick
		p.freezePending = true
	}
}

// repeatActions moves the piece for every movement key held long enough.
func (p *Player) repeatActions() {
	k := p.keys
	if k.longPressed(KeyFall) {
		_ = p.active.Fall(p.grid)
	}
	if k.longPressed(KeyLeft) {
		p.active.Left(p.grid)
	}
	if k.longPressed(KeyRight) {
		p.active.Right(p.grid)
	}
}

// scheduleFreeze sets the freeze deadline unless an earlier one is pending.
// Ticks wrap around so deadlines are compared by their difference.
func (p *Player) scheduleFreeze(deadline uint64) {
	if p.freezePending && int64(deadline-p.freezeDeadline) >= 0 { //nolint:gosec
		return
	}
	p.freezeDeadline = deadline
	p.freezePending = true
}

func (p *Player) freeze() {
	cleared, ok := p.grid.Freeze(&p.active)
	if !ok {
		p.gameOver = true
		p.saved = nil
		return
	}
	// a freeze without clears keeps lines nobody took yet.
	if cleared > 0 {
		p.score += points[min(cleared, 4)]
		p.completedLines = cleared
	}
	p.spawn()
}

// hold stores the active piece and takes the one stored before, or the next one
// if nothing was stored.
func (p *Player) hold() {
	current := p.active
	current.Reset()
	if p.saved == nil {
		p.saved = &current
		p.spawn()
		return
	}
	swap := *p.saved
	if !swap.Fits(p.grid) {
		return
	}
	p.saved = &current
	p.active = swap
	p.freezePending = false
}

func (p *Player) updateGhost() {
	g := p.active.GhostCopy()
	g.HardDrop(p.grid)
	p.ghost = &g
}

// AddGarbage queues the lines cleared by an opponent. They are turned into garbage
// rows at the end of the next Update.
func (p *Player) AddGarbage(n uint64) {
	if n == 0 {
		return
	}
	p.garbage = append(p.garbage, n)
}

func (p *Player) applyGarbage() {
	for _, n := range p.garbage {
		if p.gameOver {
			break
		}
		added := p.grid.AddGarbage(n, p.holes)
		p.liftActive(added)
	}
	p.garbage = p.garbage[:0]
}

// liftActive pushes the active piece up at most rows times until it doesn't
// overlap the grid. If it still does the player topped out.
func (p *Player) liftActive(rows uint64) {
	for i := uint64(0); i < rows && !p.active.Fits(p.grid); i++ {
		for b := range p.active.Blocks {
			if p.active.Blocks[b].Position.Y == 0 {
				p.gameOver = true
				return
			}
		}
		for b := range p.active.Blocks {
			p.active.Blocks[b].Position = p.active.Blocks[b].Position.Up()
		}
		p.active.Center = p.active.Center.Up()
	}
	if !p.active.Fits(p.grid) {
		p.gameOver = true
	}
}

// TakeCompletedLines returns the lines cleared by the last freeze and resets them.
func (p *Player) TakeCompletedLines() uint64 {
	n := p.completedLines
	p.completedLines = 0
	return n
}

func (p *Player) IsGameOver() bool  { return p.gameOver }
func (p *Player) Score() uint64     { return p.score }
func (p *Player) Grid() *Grid       { return p.grid }
func (p *Player) Active() Tetromino { return p.active }

// Saved returns the piece on hold.
func (p *Player) Saved() (Tetromino, bool) {
	if p.saved == nil {
		return Tetromino{}, false
	}
	return *p.saved, true
}

// Ghost returns where the active piece would land.
func (p *Player) Ghost() (Tetromino, bool) {
	if p.ghost == nil {
		return Tetromino{}, false
	}
	return *p.ghost, true
}

// Next returns the upcoming pieces, the first one is the next to be played.
func (p *Player) Next() []Tetromino { return p.next.Items() }
