package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"

	"tetrix/config"
	"tetrix/tetris"

	"github.com/eiannone/keyboard"
)

type clientState int

const (
	lobby clientState = iota
	waiting
	playing
	watching
)

const (
	msgGameOver   = "Game Over :)"
	msgYouWon     = "You Won :)"
	msgYouLose    = "You Lose :("
	msgConnecting = "connecting to server..."
	msgWaiting    = "waiting for an opponent... (esc)"
	msgLeft       = "your opponent left"
	msgError      = "something went wrong :("
)

// state is what the keyboard goroutine shares with the one running the game.
type state struct {
	current clientState
	game    *tetris.Game
	keys    keyMap
	cancel  context.CancelFunc
	mu      sync.Mutex
}

func (s *state) get() clientState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// begin leaves the lobby. cancel ends whatever is started.
func (s *state) begin(c clientState, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
	s.cancel = cancel
	s.game = nil
}

func (s *state) play(g *tetris.Game, keys keyMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = playing
	s.game = g
	s.keys = keys
}

// event returns where a key goes while playing.
func (s *state) event(e keyboard.KeyEvent) (*tetris.Game, int, []tetris.KeyEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return nil, 0, nil, false
	}
	player, events, ok := s.keys.events(e)
	return s.game, player, events, ok
}

// end cancels whatever runs. Cancelling twice is fine.
func (s *state) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Writer io.Writer
}

type Client struct {
	config *config.Config
	render renderer
	logger *slog.Logger
	kbCh   <-chan keyboard.KeyEvent
	state  *state
	wg     sync.WaitGroup

	// newGame and newRemote are replaced in tests.
	newGame   func(*tetris.Session) *tetris.Game
	newRemote func() *RemoteClient
}

func New(kb <-chan keyboard.KeyEvent, o *Options) (*Client, error) {
	r, err := newRender(o.Writer, o.Logger, o.Config.Client.NoGhost)
	if err != nil {
		return nil, fmt.Errorf("failed to load renderer: %w", err)
	}
	c := &Client{
		config: o.Config,
		render: r,
		logger: o.Logger,
		kbCh:   kb,
		state:  &state{current: lobby},
	}
	settings := o.Config.Settings()
	c.newGame = func(s *tetris.Session) *tetris.Game { return tetris.NewGame(settings, s) }
	c.newRemote = func() *RemoteClient {
		return NewRemoteClient(o.Config.Client.Name, o.Config.Client.Address, o.Logger)
	}
	return c, nil
}

// Start shows the lobby and handles the keyboard until the player quits.
func (c *Client) Start() {
	c.render.reset()
	c.render.lobby("")
	c.listenKB()
	c.state.end()
	c.wg.Wait()
}

func (c *Client) listenKB() {
	for {
		event, ok := <-c.kbCh
		if !ok {
			c.logger.Error("Keyboard events channel closed unexpectedly")
			return
		}
		if event.Err != nil {
			c.logger.Error("keysEvents error", slog.String("error", event.Err.Error()))
			return
		}
		if event.Key == keyboard.KeyCtrlC {
			return
		}
		switch c.state.get() {
		case lobby:
			switch event.Rune {
			case 'p':
				c.play(false)
			case 'v':
				c.play(true)
			case 'o':
				c.online()
			case 'q':
				return
			}
		case waiting, watching:
			if event.Key == keyboard.KeyEsc {
				c.state.end()
			}
		case playing:
			if event.Key == keyboard.KeyEsc {
				c.state.end()
				continue
			}
			g, player, events, ok := c.state.event(event)
			if !ok {
				continue
			}
			for _, e := range events {
				g.Event(player, e)
			}
		}
	}
}

func (c *Client) newPlayer() *tetris.Player {
	return tetris.NewPlayer(c.config.PlayerOptions(rand.Uint64())...)
}

// play starts a local game, alone or two players on the same keyboard.
func (c *Client) play(versus bool) {
	ctx, cancel := context.WithCancel(context.Background())
	c.state.begin(playing, cancel)

	names := []string{c.config.Client.Name}
	session := tetris.NewSession(c.newPlayer())
	keys := singleKeys
	if versus {
		names = []string{"left", "right"}
		session = tetris.NewVersusSession(c.newPlayer(), c.newPlayer())
		keys = versusKeys
	}
	g := c.newGame(session)
	c.state.play(g, keys)

	c.render.reset()
	g.Start()
	c.wg.Add(1)
	go c.listenTetris(ctx, g, names)
}

func (c *Client) listenTetris(ctx context.Context, g *tetris.Game, names []string) {
	defer c.wg.Done()
	defer g.Stop()
	for {
		select {
		case <-g.UpdateCh:
			boards := c.localBoards(g, names)
			c.render.game(boards)
			if g.Over() {
				c.toLobby(overMessage(boards))
				return
			}
		case <-ctx.Done():
			c.toLobby("")
			return
		}
	}
}

func (c *Client) localBoards(g *tetris.Game, names []string) []board {
	snapshots := g.Read()
	boards := make([]board, len(snapshots))
	for i, s := range snapshots {
		ghost, ok := g.Ghost(i)
		boards[i] = localBoard(names[i], s, ghost, ok)
	}
	return boards
}

// overMessage names the winner of a split-screen game.
func overMessage(boards []board) string {
	if len(boards) < 2 {
		return msgGameOver
	}
	for _, b := range boards {
		if !b.Snapshot.GameOver {
			return b.Name + " won :)"
		}
	}
	return msgGameOver
}

func (c *Client) toLobby(msg string) {
	c.state.begin(lobby, nil)
	c.render.lobby(msg)
}

// online plays against someone else through the relay server.
func (c *Client) online() {
	ctx, cancel := context.WithCancel(context.Background())
	c.state.begin(waiting, cancel)
	c.render.lobby(msgConnecting)
	c.wg.Add(1)
	go c.listenOnlineTetris(ctx)
}

func (c *Client) listenOnlineTetris(ctx context.Context) {
	defer c.wg.Done()
	rc := c.newRemote()
	defer rc.Close()

	c.render.lobby(msgWaiting)
	if err := rc.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			c.toLobby("")
			return
		}
		c.logger.Error("unable to join a game", slog.String("error", err.Error()))
		c.toLobby(msgError)
		return
	}
	go rc.Listen()

	g := c.newGame(tetris.NewSession(c.newPlayer()))
	c.state.play(g, singleKeys)
	c.render.reset()
	g.Start()
	defer g.Stop()

	for {
		select {
		case <-g.UpdateCh:
			// the lines go out first so nothing is counted twice by a later read.
			lines := g.TakeCompletedLines(0)
			local := g.Read()[0]
			local.CompletedLines = lines
			if err := rc.Send(local); err != nil {
				c.logger.Error("unable to send snapshot", slog.String("error", err.Error()))
				c.toLobby(msgError)
				return
			}
			if n := rc.Screen.TakeCompletedLines(); n > 0 {
				g.AddGarbage(0, n)
			}
			remote, received := rc.Screen.Snapshot()
			ghost, ok := g.Ghost(0)
			c.render.game([]board{
				localBoard(rc.Name, local, ghost, ok),
				remoteBoard(rc.Opponent, remote, received),
			})
			switch {
			case local.GameOver:
				c.toLobby(msgYouLose)
				return
			case received && remote.GameOver:
				c.toLobby(msgYouWon)
				return
			}
		case <-rc.Done():
			if remote, ok := rc.Screen.Snapshot(); ok && remote.GameOver {
				c.toLobby(msgYouWon)
				return
			}
			c.toLobby(msgLeft)
			return
		case <-ctx.Done():
			c.toLobby("")
			return
		}
	}
}

// Watch follows a game played on the relay server. Once it ends the lobby takes
// over, Watch returns when the player quits.
func (c *Client) Watch(gameID string) {
	ctx, cancel := context.WithCancel(context.Background())
	c.state.begin(watching, cancel)
	c.render.reset()
	c.wg.Add(1)
	go c.watch(ctx, gameID)
	c.listenKB()
	c.state.end()
	c.wg.Wait()
}

func (c *Client) watch(ctx context.Context, gameID string) {
	defer c.wg.Done()
	rc := c.newRemote()
	defer rc.Close()

	screens := [2]*RemoteScreen{{}, {}}
	names := [2]string{"player 1", "player 2"}
	update := func(player int, name string) {
		names[player] = name
		boards := make([]board, len(screens))
		for i, s := range screens {
			snapshot, received := s.Snapshot()
			boards[i] = remoteBoard(names[i], snapshot, received)
		}
		c.render.game(boards)
	}
	if err := rc.Watch(ctx, gameID, screens, update); err != nil {
		c.logger.Error("unable to watch game", slog.String("game", gameID), slog.String("error", err.Error()))
		c.toLobby(msgError)
		return
	}
	if ctx.Err() != nil {
		c.toLobby("")
		return
	}
	c.toLobby(msgGameOver)
}
