package tetris

import (
	"sync"
	"time"
)

type Ticker interface {
	C() <-chan time.Time
	Reset(time.Duration)
	Stop()
}

type wrappedTicker struct {
	ticker *time.Ticker
}

func newWrappedTicker(d time.Duration) *wrappedTicker {
	t := time.NewTicker(d)
	t.Stop()
	return &wrappedTicker{ticker: t}
}

func (t *wrappedTicker) C() <-chan time.Time   { return t.ticker.C }
func (t *wrappedTicker) Stop()                 { t.ticker.Stop() }
func (t *wrappedTicker) Reset(d time.Duration) { t.ticker.Reset(d) }

// Settings are the timings of a game. FallPeriod and LockDelay are in ticks.
type Settings struct {
	TickRate   time.Duration
	FallPeriod uint64
	LockDelay  uint64
}

var DefaultSettings = Settings{
	TickRate:   time.Second / 60,
	FallPeriod: 48,
	LockDelay:  30,
}

type playerEvent struct {
	player int
	event  KeyEvent
}

// Game runs a Session on a fixed tick. A single goroutine owns the session, every
// other access goes through the methods below.
type Game struct {
	// UpdateCh receives a value after every tick. Ticks aren't queued, a slow
	// reader only sees the latest state.
	UpdateCh chan struct{}

	eventCh  chan playerEvent
	doneCh   chan struct{}
	stopOnce sync.Once
	session  *Session
	settings Settings
	ticker   Ticker
	tick     uint64
	paused   bool
	mu       sync.RWMutex
}

func NewGame(s Settings, session *Session) *Game {
	return NewConfigurableGame(newWrappedTicker(s.TickRate), s, session)
}

func NewConfigurableGame(ticker Ticker, s Settings, session *Session) *Game {
	return &Game{
		UpdateCh: make(chan struct{}, 1),
		eventCh:  make(chan playerEvent, 64),
		doneCh:   make(chan struct{}),
		session:  session,
		settings: s,
		ticker:   ticker,
	}
}

func (g *Game) Start() {
	g.ticker.Reset(g.settings.TickRate)
	go g.listen()
}

func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		g.ticker.Stop()
		close(g.doneCh)
	})
}

// Event sends a key event to the i-th player of the session.
func (g *Game) Event(player int, e KeyEvent) {
	select {
	case g.eventCh <- playerEvent{player: player, event: e}:
	case <-g.doneCh:
	}
}

func (g *Game) listen() {
	for {
		select {
		case <-g.ticker.C():
			g.mu.Lock()
			g.drain()
			if !g.paused {
				g.tick++
				g.session.Update(g.tick, g.settings.FallPeriod, g.settings.LockDelay)
			}
			g.mu.Unlock()
			g.notify()
		case e := <-g.eventCh:
			g.mu.Lock()
			g.handle(e)
			g.mu.Unlock()
		case <-g.doneCh:
			return
		}
	}
}

// drain handles the events queued before the tick so they all apply to it.
func (g *Game) drain() {
	for {
		select {
		case e := <-g.eventCh:
			g.handle(e)
		default:
			return
		}
	}
}

func (g *Game) handle(e playerEvent) {
	if e.event.Key == KeyPause {
		if e.event.Down {
			g.paused = !g.paused
		}
		return
	}
	p := g.session.Player(e.player)
	if p == nil {
		return
	}
	// key releases still go through while paused so no key stays stuck down.
	if g.paused && e.event.Down {
		return
	}
	p.HandleKey(e.event)
}

func (g *Game) notify() {
	select {
	case g.UpdateCh <- struct{}{}:
	default:
	}
}

// Read returns a snapshot of every player. It's safe to call concurrently.
func (g *Game) Read() []Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Snapshot, len(g.session.players))
	for i, p := range g.session.players {
		out[i] = p.Snapshot()
	}
	return out
}

// Ghost returns the ghost piece of the i-th player.
func (g *Game) Ghost(player int) (Piece, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p := g.session.Player(player)
	if p == nil {
		return Piece{}, false
	}
	t, ok := p.Ghost()
	if !ok {
		return Piece{}, false
	}
	return pieceOf(t), true
}

// TakeCompletedLines reads and resets the lines cleared by the i-th player.
func (g *Game) TakeCompletedLines(player int) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.session.Player(player)
	if p == nil {
		return 0
	}
	return p.TakeCompletedLines()
}

// AddGarbage queues garbage for the i-th player.
func (g *Game) AddGarbage(player int, lines uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p := g.session.Player(player); p != nil {
		p.AddGarbage(lines)
	}
}

func (g *Game) Paused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// Over reports whether the session has finished.
func (g *Game) Over() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session.Over()
}

func (g *Game) Tick() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.tick
}
