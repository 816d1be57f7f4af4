package proto

import (
	"testing"

	"tetrix/tetris"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func testSnapshot(t *testing.T) *tetris.Snapshot {
	t.Helper()
	p := tetris.NewPlayer(tetris.WithSeed(5))
	p.HandleKey(tetris.KeyEvent{Key: tetris.KeyHardDrop, Down: true})
	p.Update(1, 1000, 30)
	p.HandleKey(tetris.KeyEvent{Key: tetris.KeyHold, Down: true})
	p.Update(2, 1000, 30)
	p.AddGarbage(3)
	p.Update(3, 1000, 30)
	s := p.Snapshot()
	s.CompletedLines = 2
	s.Score = 12345
	return &s
}

func TestGameMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *GameMessage
	}{
		{name: "empty", msg: &GameMessage{}},
		{name: "hello", msg: &GameMessage{Name: "alice"}},
		{name: "pairing", msg: &GameMessage{GameId: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Player: Player2, Started: true}},
		{name: "snapshot", msg: &GameMessage{GameId: "g", Player: Player1, Name: "bob", Started: true, Snapshot: testSnapshot(t)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got GameMessage
			require.NoError(t, got.Unmarshal(tt.msg.Marshal()))
			assert.Equal(t, tt.msg, &got)
		})
	}
}

func TestSnapshotRestoresAfterDecoding(t *testing.T) {
	want := testSnapshot(t)
	var msg GameMessage
	require.NoError(t, msg.Unmarshal((&GameMessage{Snapshot: want}).Marshal()))

	p, err := tetris.RestorePlayer(*msg.GetSnapshot())
	require.NoError(t, err)
	assert.Equal(t, *want, p.Snapshot())
	assert.False(t, msg.GetGameOver())
}

func TestWatchRequestRoundTrip(t *testing.T) {
	var got WatchRequest
	require.NoError(t, got.Unmarshal((&WatchRequest{GameId: "abc"}).Marshal()))
	assert.Equal(t, "abc", got.GetGameId())
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := (&GameMessage{Name: "carol"}).Marshal()
	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 7)
	b = protowire.AppendTag(b, 98, protowire.BytesType)
	b = protowire.AppendString(b, "later")

	var got GameMessage
	require.NoError(t, got.Unmarshal(b))
	assert.Equal(t, "carol", got.Name)
}

func TestMalformed(t *testing.T) {
	snapshot := func(fields ...[]byte) []byte {
		var inner []byte
		for _, f := range fields {
			inner = append(inner, f...)
		}
		b := protowire.AppendTag(nil, fieldSnapshot, protowire.BytesType)
		return protowire.AppendBytes(b, inner)
	}
	varint := func(num protowire.Number, v uint64) []byte {
		return protowire.AppendVarint(protowire.AppendTag(nil, num, protowire.VarintType), v)
	}
	bytesField := func(num protowire.Number, v []byte) []byte {
		return protowire.AppendBytes(protowire.AppendTag(nil, num, protowire.BytesType), v)
	}

	tests := map[string][]byte{
		"truncated tag":     {0x80},
		"truncated string":  {0x0a, 0x05, 'a'},
		"cells mismatch":    snapshot(varint(fieldColumns, 10), varint(fieldRows, 22), bytesField(fieldCells, make([]byte, 5))),
		"huge grid":         snapshot(varint(fieldColumns, 1000), varint(fieldRows, 1000), bytesField(fieldCells, nil)),
		"five blocks":       snapshot(bytesField(fieldActive, bytesField(fieldBlocks, make([]byte, 10)))),
		"three blocks":      snapshot(bytesField(fieldActive, bytesField(fieldBlocks, make([]byte, 6)))),
		"short snapshot":     {0x2a, 0x10, 0x08},
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			var got GameMessage
			assert.ErrorIs(t, got.Unmarshal(b), ErrMalformed)
		})
	}
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "tetrix", c.Name())

	msg := &GameMessage{GameId: "g", Snapshot: testSnapshot(t)}
	data, err := c.Marshal(msg)
	require.NoError(t, err)
	assert.Less(t, len(data), len(msg.Marshal()), "an almost empty grid compresses")

	var got GameMessage
	require.NoError(t, c.Unmarshal(data, &got))
	assert.Equal(t, msg, &got)

	_, err = c.Marshal("nope")
	assert.Error(t, err)
	assert.Error(t, c.Unmarshal(data, new(int)))
	assert.Error(t, c.Unmarshal([]byte("not zstd"), &got))
}
