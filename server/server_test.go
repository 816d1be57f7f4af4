package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tetrix/proto"
	"tetrix/tetris"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type session = grpc.BidiStreamingClient[proto.GameMessage, proto.GameMessage]

func testServer(t *testing.T) (proto.TetrisServiceClient, *TetrisServer) {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)

	srv := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s := grpc.NewServer(proto.ServerOption())
	proto.RegisterTetrisServiceServer(s, srv)
	go func() {
		if err := s.Serve(lis); err != nil {
			t.Logf("unable to serve: %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		s.Stop()
		lis.Close()
	})
	return proto.NewTetrisServiceClient(conn), srv
}

// join opens a session and reads the pairing message.
func join(t *testing.T, ctx context.Context, c proto.TetrisServiceClient, name string) (session, *proto.GameMessage) {
	t.Helper()
	stream, err := c.GameSession(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&proto.GameMessage{Name: name}))
	msg, err := stream.Recv()
	require.NoError(t, err)
	return stream, msg
}

func recv(t *testing.T, s interface {
	Recv() (*proto.GameMessage, error)
}) *proto.GameMessage {
	t.Helper()
	msg, err := s.Recv()
	require.NoError(t, err)
	return msg
}

func snapshot(score uint64) *tetris.Snapshot {
	s := tetris.NewPlayer(tetris.WithSeed(score)).Snapshot()
	s.Score = score
	return &s
}

// pair starts a game between alice and bob.
func pair(t *testing.T, ctx context.Context, c proto.TetrisServiceClient) (session, session, string) {
	t.Helper()
	alice, a := join(t, ctx, c, "alice")
	bob, b := join(t, ctx, c, "bob")
	require.Equal(t, a.GameId, b.GameId)
	recv(t, alice)
	recv(t, bob)
	return alice, bob, a.GameId
}

func TestPairing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, srv := testServer(t)

	alice, a := join(t, ctx, c, "alice")
	assert.NotEmpty(t, a.GetGameId())
	assert.Equal(t, proto.Player1, a.GetPlayer())
	assert.False(t, a.GetStarted())

	games := srv.Games()
	require.Len(t, games, 1)
	assert.False(t, games[0].Started)

	bob, b := join(t, ctx, c, "bob")
	assert.Equal(t, a.GetGameId(), b.GetGameId())
	assert.Equal(t, proto.Player2, b.GetPlayer())

	started := recv(t, alice)
	assert.True(t, started.GetStarted())
	assert.Equal(t, "bob", started.GetName())
	started = recv(t, bob)
	assert.True(t, started.GetStarted())
	assert.Equal(t, "alice", started.GetName())

	// a third player waits for a new game.
	_, third := join(t, ctx, c, "carol")
	assert.NotEqual(t, a.GetGameId(), third.GetGameId())
	assert.Equal(t, proto.Player1, third.GetPlayer())
}

func TestRelay(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, srv := testServer(t)
	alice, bob, id := pair(t, ctx, c)

	require.NoError(t, alice.Send(&proto.GameMessage{Snapshot: snapshot(100)}))
	msg := recv(t, bob)
	assert.Equal(t, proto.Player1, msg.GetPlayer())
	assert.Equal(t, "alice", msg.GetName())
	assert.Equal(t, id, msg.GetGameId())
	assert.Equal(t, uint64(100), msg.GetSnapshot().Score)

	require.NoError(t, bob.Send(&proto.GameMessage{Snapshot: snapshot(7)}))
	msg = recv(t, alice)
	assert.Equal(t, "bob", msg.GetName())
	assert.Equal(t, uint64(7), msg.GetSnapshot().Score)

	g, ok := srv.Game(id)
	require.True(t, ok)
	require.Len(t, g.Players, 2)
	assert.Equal(t, uint64(100), g.Players[0].Snapshot.Score)
	assert.Equal(t, uint64(7), g.Players[1].Snapshot.Score)

	// a player leaving ends the session of the other one.
	require.NoError(t, alice.CloseSend())
	_, err := bob.Recv()
	assert.ErrorIs(t, err, io.EOF)
	assert.Eventually(t, func() bool {
		_, ok := srv.Game(id)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestLastMessageIsDelivered(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _ := testServer(t)
	alice, bob, _ := pair(t, ctx, c)

	over := snapshot(1)
	over.GameOver = true
	require.NoError(t, alice.Send(&proto.GameMessage{Snapshot: over}))
	require.NoError(t, alice.CloseSend())

	msg := recv(t, bob)
	assert.True(t, msg.GetGameOver())
	_, err := bob.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _ := testServer(t)
	alice, bob, id := pair(t, ctx, c)

	require.NoError(t, alice.Send(&proto.GameMessage{Snapshot: snapshot(10)}))
	recv(t, bob)

	watch, err := c.Watch(ctx, &proto.WatchRequest{GameId: id})
	require.NoError(t, err)
	// the current state comes first.
	msg := recv(t, watch)
	assert.Equal(t, proto.Player1, msg.GetPlayer())
	assert.Equal(t, uint64(10), msg.GetSnapshot().Score)

	require.NoError(t, bob.Send(&proto.GameMessage{Snapshot: snapshot(20)}))
	msg = recv(t, watch)
	assert.Equal(t, proto.Player2, msg.GetPlayer())
	assert.Equal(t, "bob", msg.GetName())
	assert.Equal(t, uint64(20), msg.GetSnapshot().Score)

	require.NoError(t, alice.CloseSend())
	require.NoError(t, bob.CloseSend())
	_, err = watch.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWatchUnknownGame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, _ := testServer(t)

	watch, err := c.Watch(ctx, &proto.WatchRequest{GameId: "nope"})
	require.NoError(t, err)
	_, err = watch.Recv()
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestLeaveBeforeStart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, srv := testServer(t)

	sctx, scancel := context.WithCancel(ctx)
	_, a := join(t, sctx, c, "alice")
	scancel()
	assert.Eventually(t, func() bool { return len(srv.Games()) == 0 }, time.Second, 10*time.Millisecond)

	// the next player doesn't join the abandoned game.
	_, b := join(t, ctx, c, "bob")
	assert.NotEqual(t, a.GetGameId(), b.GetGameId())
	assert.Equal(t, proto.Player1, b.GetPlayer())
}

func TestHTTP(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, srv := testServer(t)
	alice, bob, id := pair(t, ctx, c)
	require.NoError(t, alice.Send(&proto.GameMessage{Snapshot: snapshot(300)}))
	recv(t, bob)

	ts := httptest.NewServer(NewHTTPHandler(srv, slog.New(slog.NewTextHandler(io.Discard, nil))))
	defer ts.Close()

	get := func(path string, v any) int {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer res.Body.Close()
		if v != nil && res.StatusCode == http.StatusOK {
			require.NoError(t, json.NewDecoder(res.Body).Decode(v))
		}
		return res.StatusCode
	}

	assert.Equal(t, http.StatusOK, get("/healthz", nil))

	var games []GameInfo
	require.Equal(t, http.StatusOK, get("/games", &games))
	require.Len(t, games, 1)
	assert.Equal(t, id, games[0].ID)
	assert.True(t, games[0].Started)
	assert.Nil(t, games[0].Players[0].Snapshot)

	var game GameInfo
	require.Equal(t, http.StatusOK, get("/games/"+id, &game))
	require.Len(t, game.Players, 2)
	assert.Equal(t, "alice", game.Players[0].Name)
	require.NotNil(t, game.Players[0].Snapshot)
	assert.Equal(t, uint64(300), game.Players[0].Snapshot.Score)
	assert.Nil(t, game.Players[1].Snapshot)

	p, err := tetris.RestorePlayer(*game.Players[0].Snapshot)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), p.Score())

	assert.Equal(t, http.StatusNotFound, get("/games/nope", nil))
}
