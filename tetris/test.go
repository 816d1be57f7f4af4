package tetris

import (
	"sync"
	"time"
)

// MockTicker is a mock implementation of the Ticker interface.
type MockTicker struct {
	ch          chan time.Time
	stop, reset bool
	mu          sync.Mutex
}

func NewMockTicker() *MockTicker          { return &MockTicker{ch: make(chan time.Time)} }
func (m *MockTicker) C() <-chan time.Time { return m.ch }
func (m *MockTicker) Tick()               { m.ch <- time.Now() }
func (m *MockTicker) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stop = true
}
func (m *MockTicker) Reset(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset = true
}
func (m *MockTicker) IsReset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reset
}
func (m *MockTicker) IsStop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop
}

// NewTestGame creates a game over the given players driven by a manual ticker.
func NewTestGame(s Settings, players ...*Player) (*Game, *MockTicker) {
	ticker := NewMockTicker()
	return NewConfigurableGame(ticker, s, NewSession(players...)), ticker
}

// NewTestPlayer creates a player on a standard 10x22 grid whose active piece is shape s
// in its spawn position.
func NewTestPlayer(s Shape) *Player {
	p := NewPlayer(WithSeed(1))
	p.active = NewTetromino(s, p.grid.Columns())
	p.updateGhost()
	return p
}
