package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"tetrix/proto"
	"tetrix/tetris"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	inboxSize   = 10
	watcherSize = 16
)

type player struct {
	id       int32
	name     string
	inbox    chan *proto.GameMessage // messages from the opponent
	snapshot *tetris.Snapshot
	done     chan struct{} // closed when the session of the player ends
	left     bool
}

func newPlayer(id int32, name string) *player {
	return &player{
		id:    id,
		name:  name,
		inbox: make(chan *proto.GameMessage, inboxSize),
		done:  make(chan struct{}),
	}
}

type game struct {
	id       string
	created  time.Time
	players  [2]*player
	started  chan struct{}
	watchers map[chan *proto.GameMessage]struct{}
	over     chan struct{} // closed when both players left
}

func newGame(id string) *game {
	return &game{
		id:       id,
		created:  time.Now(),
		started:  make(chan struct{}),
		watchers: make(map[chan *proto.GameMessage]struct{}),
		over:     make(chan struct{}),
	}
}

func (g *game) opponent(p *player) *player {
	if g.players[0] == p {
		return g.players[1]
	}
	return g.players[0]
}

// TetrisServer pairs players two by two and relays their snapshots to each other
// and to spectators.
type TetrisServer struct {
	proto.UnimplementedTetrisServiceServer
	logger       *slog.Logger
	gameInstance map[string]*game
	waitListID   string
	mu           sync.Mutex
}

func New(l *slog.Logger) *TetrisServer {
	return &TetrisServer{
		logger:       l,
		gameInstance: make(map[string]*game),
	}
}

// join puts the player in the waiting game or creates a new one.
func (t *TetrisServer) join(name string) (*game, *player) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.waitListID == "" {
		g := newGame(uuid.New().String())
		p := newPlayer(proto.Player1, name)
		g.players[0] = p
		t.gameInstance[g.id] = g
		t.waitListID = g.id
		return g, p
	}
	g := t.gameInstance[t.waitListID]
	t.waitListID = ""
	p := newPlayer(proto.Player2, name)
	g.players[1] = p
	close(g.started)
	return g, p
}

// leave ends the session of p. The game is forgotten once both players left.
func (t *TetrisServer) leave(g *game, p *player) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p.left = true
	close(p.done)
	if t.waitListID == g.id {
		t.waitListID = ""
	}
	if o := g.opponent(p); o != nil && !o.left {
		return
	}
	close(g.over)
	delete(t.gameInstance, g.id)
}

func (t *TetrisServer) GameSession(stream grpc.BidiStreamingServer[proto.GameMessage, proto.GameMessage]) error {
	hello, err := stream.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to receive GameSession message: %w", err)
	}

	g, me := t.join(hello.GetName())
	defer t.leave(g, me)
	log := t.logger.With(slog.String("game", g.id), slog.Int("player", int(me.id)))
	log.Info("player joined", slog.String("name", me.name))

	if err := stream.Send(&proto.GameMessage{GameId: g.id, Player: me.id}); err != nil {
		return fmt.Errorf("failed to send GameSession message: %w", err)
	}

	ctx := stream.Context()
	select {
	case <-g.started:
	case <-ctx.Done():
		log.Info("player left before the game started")
		return ctx.Err()
	}

	opp := g.opponent(me)
	if err := stream.Send(&proto.GameMessage{GameId: g.id, Player: me.id, Name: opp.name, Started: true}); err != nil {
		return fmt.Errorf("failed to send GameSession message: %w", err)
	}

	recvErr := make(chan error, 1)
	go func() { recvErr <- t.receive(stream, g, me, opp) }()

	// Send isn't safe for concurrent use, only this goroutine sends.
	for {
		select {
		case msg := <-me.inbox:
			if err := stream.Send(msg); err != nil {
				return fmt.Errorf("failed to send GameSession message: %w", err)
			}
		case err := <-recvErr:
			if err != nil {
				log.Error("GameSession ended", slog.String("error", err.Error()))
			}
			return err
		case <-opp.done:
			// whatever the opponent sent before leaving is delivered first.
			for {
				select {
				case msg := <-me.inbox:
					if err := stream.Send(msg); err != nil {
						return fmt.Errorf("failed to send GameSession message: %w", err)
					}
				default:
					log.Info("opponent left")
					return nil
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// receive stores every snapshot of the player and hands it to the opponent and the
// spectators.
func (t *TetrisServer) receive(stream grpc.BidiStreamingServer[proto.GameMessage, proto.GameMessage], g *game, me, opp *player) error {
	ctx := stream.Context()
	for {
		rcv, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if s, ok := status.FromError(err); ok && s.Code() == codes.Canceled {
				return nil
			}
			return fmt.Errorf("failed to receive GameSession message: %w", err)
		}
		if rcv.GetSnapshot() == nil {
			continue
		}
		msg := &proto.GameMessage{GameId: g.id, Player: me.id, Name: me.name, Started: true, Snapshot: rcv.Snapshot}

		t.mu.Lock()
		me.snapshot = rcv.Snapshot
		for w := range g.watchers {
			select {
			case w <- msg:
			default:
				// a slow spectator misses frames, the next one has the full state.
			}
		}
		t.mu.Unlock()

		select {
		case opp.inbox <- msg:
		case <-opp.done:
		case <-ctx.Done():
			return nil
		}
	}
}

func (t *TetrisServer) Watch(req *proto.WatchRequest, stream grpc.ServerStreamingServer[proto.GameMessage]) error {
	ch := make(chan *proto.GameMessage, watcherSize)

	t.mu.Lock()
	g, ok := t.gameInstance[req.GetGameId()]
	if !ok {
		t.mu.Unlock()
		return status.Errorf(codes.NotFound, "game %q not found", req.GetGameId())
	}
	g.watchers[ch] = struct{}{}
	var current []*proto.GameMessage
	for _, p := range g.players {
		if p != nil && p.snapshot != nil {
			current = append(current, &proto.GameMessage{GameId: g.id, Player: p.id, Name: p.name, Started: true, Snapshot: p.snapshot})
		}
	}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(g.watchers, ch)
		t.mu.Unlock()
	}()

	for _, msg := range current {
		if err := stream.Send(msg); err != nil {
			return fmt.Errorf("failed to send Watch message: %w", err)
		}
	}

	ctx := stream.Context()
	for {
		select {
		case msg := <-ch:
			if err := stream.Send(msg); err != nil {
				return fmt.Errorf("failed to send Watch message: %w", err)
			}
		case <-g.over:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// PlayerInfo is the public state of a player.
type PlayerInfo struct {
	Player   int32            `json:"player"`
	Name     string           `json:"name"`
	Snapshot *tetris.Snapshot `json:"snapshot,omitempty"`
}

// GameInfo is the public state of a game.
type GameInfo struct {
	ID      string       `json:"id"`
	Created time.Time    `json:"created"`
	Started bool         `json:"started"`
	Players []PlayerInfo `json:"players"`
}

func (t *TetrisServer) info(g *game, snapshots bool) GameInfo {
	gi := GameInfo{ID: g.id, Created: g.created, Players: []PlayerInfo{}}
	select {
	case <-g.started:
		gi.Started = true
	default:
	}
	for _, p := range g.players {
		if p == nil {
			continue
		}
		pi := PlayerInfo{Player: p.id, Name: p.name}
		if snapshots {
			pi.Snapshot = p.snapshot
		}
		gi.Players = append(gi.Players, pi)
	}
	return gi
}

// Games lists the games in progress without their snapshots, oldest first.
func (t *TetrisServer) Games() []GameInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]GameInfo, 0, len(t.gameInstance))
	for _, g := range t.gameInstance {
		out = append(out, t.info(g, false))
	}
	slices.SortFunc(out, func(a, b GameInfo) int { return a.Created.Compare(b.Created) })
	return out
}

// Game returns a game with the latest snapshot of each player.
func (t *TetrisServer) Game(id string) (GameInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gameInstance[id]
	if !ok {
		return GameInfo{}, false
	}
	return t.info(g, true), true
}
