package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"tetrix/proto"
	"tetrix/tetris"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// RemoteScreen is the latest snapshot of a remote player. One goroutine merges what
// arrives from the network, another one renders it and takes its completed lines.
type RemoteScreen struct {
	snapshot tetris.Snapshot
	received bool
	mu       sync.Mutex
}

// Merge replaces the snapshot. Completed lines not taken yet are carried over so a
// fast update can't make them disappear.
func (r *RemoteScreen) Merge(s tetris.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snapshot.CompletedLines != 0 {
		s.CompletedLines = r.snapshot.CompletedLines
	}
	r.snapshot = s
	r.received = true
}

// TakeCompletedLines returns the completed lines and resets them.
func (r *RemoteScreen) TakeCompletedLines() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.snapshot.CompletedLines
	r.snapshot.CompletedLines = 0
	return n
}

// Snapshot returns the latest snapshot, false until one has been received.
func (r *RemoteScreen) Snapshot() (tetris.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot, r.received
}

type gameStream = grpc.BidiStreamingClient[proto.GameMessage, proto.GameMessage]

// RemoteClient plays a game against an opponent through the relay server.
type RemoteClient struct {
	Name        string
	Addr        string
	Logger      *slog.Logger
	DialOptions []grpc.DialOption

	// set once paired
	GameID   string
	Player   int32
	Opponent string
	Screen   *RemoteScreen

	conn   *grpc.ClientConn
	tsc    proto.TetrisServiceClient
	stream gameStream
	doneCh chan struct{}
	sendMu sync.Mutex
}

func NewRemoteClient(name, addr string, l *slog.Logger) *RemoteClient {
	return &RemoteClient{
		Name:        name,
		Addr:        addr,
		Logger:      l,
		DialOptions: []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())},
		Screen:      &RemoteScreen{},
		doneCh:      make(chan struct{}),
	}
}

func (r *RemoteClient) dial() error {
	if r.conn != nil {
		return nil
	}
	conn, err := grpc.NewClient(r.Addr, r.DialOptions...)
	if err != nil {
		return fmt.Errorf("unable to create gRPC client: %w", err)
	}
	r.conn = conn
	r.tsc = proto.NewTetrisServiceClient(conn)
	return nil
}

// Connect joins a game and waits until the server paired us with an opponent.
// Cancelling ctx gives up and closes the stream.
func (r *RemoteClient) Connect(ctx context.Context) error {
	if err := r.dial(); err != nil {
		return err
	}
	stream, err := r.tsc.GameSession(ctx)
	if err != nil {
		return fmt.Errorf("unable to create gRPC GameSession stream: %w", err)
	}
	r.stream = stream
	if err := stream.Send(&proto.GameMessage{Name: r.Name}); err != nil {
		if errors.Is(err, io.EOF) {
			// the stream is over, Recv tells why.
			_, err = stream.Recv()
		}
		return fmt.Errorf("unable to send initial message: %w", err)
	}
	for {
		msg, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("unable to receive from GameSession: %w", err)
		}
		r.GameID = msg.GetGameId()
		r.Player = msg.GetPlayer()
		if msg.GetStarted() {
			r.Opponent = msg.GetName()
			r.Logger.Debug("game started", slog.String("game", r.GameID), slog.String("opponent", r.Opponent))
			return nil
		}
		r.Logger.Debug("waiting for opponent", slog.String("game", r.GameID))
	}
}

// Listen merges the opponent's snapshots until the stream ends. It closes Done.
func (r *RemoteClient) Listen() {
	defer close(r.doneCh)
	for {
		msg, err := r.stream.Recv()
		if err != nil {
			logRecvErr(r.Logger, err)
			return
		}
		if s := msg.GetSnapshot(); s != nil {
			r.Screen.Merge(*s)
		}
	}
}

// Done is closed when the opponent's stream ended.
func (r *RemoteClient) Done() <-chan struct{} { return r.doneCh }

// Send sends the local snapshot to the opponent.
func (r *RemoteClient) Send(s tetris.Snapshot) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()
	if err := r.stream.Send(&proto.GameMessage{Name: r.Name, Started: true, Snapshot: &s}); err != nil {
		return fmt.Errorf("unable to send snapshot: %w", err)
	}
	return nil
}

// Watch streams the players of a game into screens, calling update with the player
// index and name after each snapshot, until the game ends or ctx is cancelled.
func (r *RemoteClient) Watch(ctx context.Context, gameID string, screens [2]*RemoteScreen, update func(int, string)) error {
	if err := r.dial(); err != nil {
		return err
	}
	stream, err := r.tsc.Watch(ctx, &proto.WatchRequest{GameId: gameID})
	if err != nil {
		return fmt.Errorf("unable to create gRPC Watch stream: %w", err)
	}
	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if status.Code(err) == codes.Canceled {
				return nil
			}
			return fmt.Errorf("unable to receive from Watch: %w", err)
		}
		i := msg.GetPlayer() - 1
		if i < 0 || i > 1 || msg.GetSnapshot() == nil {
			continue
		}
		screens[i].Merge(*msg.GetSnapshot())
		update(int(i), msg.GetName())
	}
}

func (r *RemoteClient) Close() {
	if r.stream != nil {
		r.sendMu.Lock()
		_ = r.stream.CloseSend()
		r.sendMu.Unlock()
	}
	if r.conn != nil {
		if err := r.conn.Close(); err != nil {
			r.Logger.Error("unable to close gRPC client", slog.String("error", err.Error()))
		}
	}
}

func logRecvErr(l *slog.Logger, err error) {
	if errors.Is(err, io.EOF) {
		l.Debug("stream.Recv() closed with EOF", slog.String("msg", err.Error()))
		return
	}
	st, ok := status.FromError(err)
	switch {
	case ok && st.Code() == codes.Canceled:
		l.Debug("stream.Recv() closed with Cancel", slog.String("msg", st.Message()))
	case ok && st.Code() == codes.DeadlineExceeded:
		l.Debug("stream.Recv() closed with DeadlineExceeded", slog.String("msg", st.Message()))
	default:
		l.Error("stream.Recv() unable to receive message", slog.String("error", err.Error()))
	}
}
