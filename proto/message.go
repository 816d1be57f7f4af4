// Package proto holds the messages exchanged with the relay server, their wire
// encoding and the gRPC service definition.
package proto

import "tetrix/tetris"

const (
	Player1 int32 = 1
	Player2 int32 = 2
)

// GameMessage goes both ways on a GameSession stream and is what Watch streams to
// spectators.
//
// The first message a client sends only carries its Name. The server answers with the
// GameId and Player once paired and sets Started when the opponent joined. From then
// on every message carries the sender's Snapshot, its CompletedLines being the lines
// cleared since the previous message.
type GameMessage struct {
	GameId   string
	Player   int32
	Name     string
	Started  bool
	Snapshot *tetris.Snapshot
}

func (m *GameMessage) GetGameId() string {
	if m == nil {
		return ""
	}
	return m.GameId
}

func (m *GameMessage) GetPlayer() int32 {
	if m == nil {
		return 0
	}
	return m.Player
}

func (m *GameMessage) GetName() string {
	if m == nil {
		return ""
	}
	return m.Name
}

func (m *GameMessage) GetStarted() bool {
	if m == nil {
		return false
	}
	return m.Started
}

func (m *GameMessage) GetSnapshot() *tetris.Snapshot {
	if m == nil {
		return nil
	}
	return m.Snapshot
}

// GetGameOver reports whether the sender's game has ended.
func (m *GameMessage) GetGameOver() bool {
	return m.GetSnapshot() != nil && m.Snapshot.GameOver
}

// WatchRequest subscribes to the messages of a game.
type WatchRequest struct {
	GameId string
}

func (m *WatchRequest) GetGameId() string {
	if m == nil {
		return ""
	}
	return m.GameId
}
