package tetris

// Session is the set of players updated on every tick.
//
// In a versus session the lines cleared by a player become garbage for every other
// player right after its update. Otherwise the completed lines are left for whoever
// reads them with TakeCompletedLines, usually the network transport.
type Session struct {
	players []*Player
	versus  bool
}

func NewSession(players ...*Player) *Session {
	return &Session{players: players}
}

// NewVersusSession returns a split-screen session where players send garbage to each other.
func NewVersusSession(players ...*Player) *Session {
	return &Session{players: players, versus: true}
}

func (s *Session) Players() []*Player { return s.players }
func (s *Session) Versus() bool       { return s.versus }

// Player returns the i-th player or nil.
func (s *Session) Player(i int) *Player {
	if i < 0 || i >= len(s.players) {
		return nil
	}
	return s.players[i]
}

func (s *Session) Update(tick, fallPeriod, lockDelay uint64) {
	for i, p := range s.players {
		p.Update(tick, fallPeriod, lockDelay)
		if !s.versus {
			continue
		}
		lines := p.TakeCompletedLines()
		if lines == 0 {
			continue
		}
		for j, o := range s.players {
			if j != i {
				o.AddGarbage(lines)
			}
		}
	}
}

// Over reports whether the game is over for every player but one, or for the only one.
func (s *Session) Over() bool {
	alive := 0
	for _, p := range s.players {
		if !p.IsGameOver() {
			alive++
		}
	}
	if len(s.players) == 1 {
		return alive == 0
	}
	return alive <= 1
}
