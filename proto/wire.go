package proto

import (
	"errors"
	"fmt"

	"tetrix/tetris"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("malformed message")

// Field numbers, keep them stable.
//
//	message GameMessage {
//	  string game_id = 1;
//	  int32 player = 2;
//	  string name = 3;
//	  bool started = 4;
//	  Snapshot snapshot = 5;
//	}
//
//	message WatchRequest {
//	  string game_id = 1;
//	}
//
//	message Snapshot {
//	  uint32 columns = 1;
//	  uint32 rows = 2;
//	  bytes cells = 3; // one color per byte, row major
//	  uint64 score = 4;
//	  bool game_over = 5;
//	  uint64 completed_lines = 6;
//	  Piece active = 7;
//	  Piece saved = 8;
//	  repeated Piece next = 9;
//	  uint32 next_capacity = 10;
//	}
//
//	message Piece {
//	  string shape = 1;
//	  sint32 center_x = 2;
//	  sint32 center_y = 3;
//	  repeated sint32 blocks = 4 [packed = true]; // x0 y0 ... x3 y3
//	  uint32 rotation = 5;
//	}
const (
	fieldGameID   protowire.Number = 1
	fieldPlayer   protowire.Number = 2
	fieldName     protowire.Number = 3
	fieldStarted  protowire.Number = 4
	fieldSnapshot protowire.Number = 5

	fieldColumns        protowire.Number = 1
	fieldRows           protowire.Number = 2
	fieldCells          protowire.Number = 3
	fieldScore          protowire.Number = 4
	fieldGameOver       protowire.Number = 5
	fieldCompletedLines protowire.Number = 6
	fieldActive         protowire.Number = 7
	fieldSaved          protowire.Number = 8
	fieldNext           protowire.Number = 9
	fieldNextCapacity   protowire.Number = 10

	fieldShape    protowire.Number = 1
	fieldCenterX  protowire.Number = 2
	fieldCenterY  protowire.Number = 3
	fieldBlocks   protowire.Number = 4
	fieldRotation protowire.Number = 5
)

// maxCells bounds the grid a message can declare.
const maxCells = 127 * 127

func (m *GameMessage) Marshal() []byte {
	var b []byte
	if m.GameId != "" {
		b = protowire.AppendTag(b, fieldGameID, protowire.BytesType)
		b = protowire.AppendString(b, m.GameId)
	}
	if m.Player != 0 {
		b = protowire.AppendTag(b, fieldPlayer, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Player)) //nolint:gosec
	}
	if m.Name != "" {
		b = protowire.AppendTag(b, fieldName, protowire.BytesType)
		b = protowire.AppendString(b, m.Name)
	}
	if m.Started {
		b = protowire.AppendTag(b, fieldStarted, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if m.Snapshot != nil {
		b = protowire.AppendTag(b, fieldSnapshot, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalSnapshot(m.Snapshot))
	}
	return b
}

func (m *GameMessage) Unmarshal(b []byte) error {
	*m = GameMessage{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldGameID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.GameId = v
			return n, nil
		case num == fieldPlayer && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Player = int32(v) //nolint:gosec
			return n, nil
		case num == fieldName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.Name = v
			return n, nil
		case num == fieldStarted && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.Started = v != 0
			return n, nil
		case num == fieldSnapshot && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			s, err := unmarshalSnapshot(v)
			if err != nil {
				return 0, fmt.Errorf("snapshot: %w", err)
			}
			m.Snapshot = s
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (m *WatchRequest) Marshal() []byte {
	var b []byte
	if m.GameId != "" {
		b = protowire.AppendTag(b, fieldGameID, protowire.BytesType)
		b = protowire.AppendString(b, m.GameId)
	}
	return b
}

func (m *WatchRequest) Unmarshal(b []byte) error {
	*m = WatchRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldGameID && typ == protowire.BytesType {
			v, n := protowire.ConsumeString(b)
			m.GameId = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// consumeFields walks the fields of b. field returns the length of the value it
// consumed, negative lengths are protowire errors.
func consumeFields(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		n, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func marshalSnapshot(s *tetris.Snapshot) []byte {
	var b []byte
	b = appendUint(b, fieldColumns, uint64(s.Columns)) //nolint:gosec
	b = appendUint(b, fieldRows, uint64(s.Rows))       //nolint:gosec
	cells := make([]byte, 0, s.Columns*s.Rows)
	for _, row := range s.Cells {
		for _, c := range row {
			cells = append(cells, byte(c))
		}
	}
	b = protowire.AppendTag(b, fieldCells, protowire.BytesType)
	b = protowire.AppendBytes(b, cells)
	b = appendUint(b, fieldScore, s.Score)
	if s.GameOver {
		b = appendUint(b, fieldGameOver, 1)
	}
	b = appendUint(b, fieldCompletedLines, s.CompletedLines)
	b = protowire.AppendTag(b, fieldActive, protowire.BytesType)
	b = protowire.AppendBytes(b, marshalPiece(s.Active))
	if s.Saved != nil {
		b = protowire.AppendTag(b, fieldSaved, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalPiece(*s.Saved))
	}
	for _, p := range s.Next {
		b = protowire.AppendTag(b, fieldNext, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalPiece(p))
	}
	return appendUint(b, fieldNextCapacity, uint64(s.NextCapacity)) //nolint:gosec
}

func unmarshalSnapshot(b []byte) (*tetris.Snapshot, error) {
	s := &tetris.Snapshot{}
	var cells []byte
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case fieldColumns:
				s.Columns = int(min(v, maxCells)) //nolint:gosec
			case fieldRows:
				s.Rows = int(min(v, maxCells)) //nolint:gosec
			case fieldScore:
				s.Score = v
			case fieldGameOver:
				s.GameOver = v != 0
			case fieldCompletedLines:
				s.CompletedLines = v
			case fieldNextCapacity:
				s.NextCapacity = int(min(v, maxCells)) //nolint:gosec
			}
			return n, nil
		}
		if typ != protowire.BytesType {
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return n, nil
		}
		switch num {
		case fieldCells:
			cells = v
		case fieldActive, fieldSaved, fieldNext:
			p, err := unmarshalPiece(v)
			if err != nil {
				return 0, fmt.Errorf("piece: %w", err)
			}
			switch num {
			case fieldActive:
				s.Active = p
			case fieldSaved:
				s.Saved = &p
			default:
				if len(s.Next) >= maxCells {
					return 0, fmt.Errorf("%w: too many next pieces", ErrMalformed)
				}
				s.Next = append(s.Next, p)
			}
		}
		return n, nil
	})
	if err != nil {
		return nil, err
	}
	if s.Columns*s.Rows > maxCells || len(cells) != s.Columns*s.Rows {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d grid", ErrMalformed, len(cells), s.Columns, s.Rows)
	}
	s.Cells = make([][]tetris.Color, s.Rows)
	for y := range s.Cells {
		row := make([]tetris.Color, s.Columns)
		for x := range row {
			row[x] = tetris.Color(cells[y*s.Columns+x])
		}
		s.Cells[y] = row
	}
	return s, nil
}

func appendCoord(b []byte, num protowire.Number, v int8) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(int64(v)))
}

func marshalPiece(p tetris.Piece) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldShape, protowire.BytesType)
	b = protowire.AppendString(b, string(p.Shape))
	b = appendCoord(b, fieldCenterX, p.Center.X)
	b = appendCoord(b, fieldCenterY, p.Center.Y)
	var packed []byte
	for _, pt := range p.Blocks {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(pt.X)))
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(pt.Y)))
	}
	b = protowire.AppendTag(b, fieldBlocks, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return appendUint(b, fieldRotation, uint64(p.Rotation))
}

func unmarshalPiece(b []byte) (tetris.Piece, error) {
	var p tetris.Piece
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldShape && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			p.Shape = tetris.Shape(v)
			return n, nil
		case (num == fieldCenterX || num == fieldCenterY) && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			c := int8(protowire.DecodeZigZag(v)) //nolint:gosec
			if num == fieldCenterX {
				p.Center.X = c
			} else {
				p.Center.Y = c
			}
			return n, nil
		case num == fieldBlocks && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			return n, unpackBlocks(&p, v)
		case num == fieldRotation && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			p.Rotation = tetris.Rotation(min(v, 255)) //nolint:gosec
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return p, err
}

func unpackBlocks(p *tetris.Piece, b []byte) error {
	var coords [8]int8
	for i := range coords {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return fmt.Errorf("%w: blocks: %w", ErrMalformed, protowire.ParseError(n))
		}
		coords[i] = int8(protowire.DecodeZigZag(v)) //nolint:gosec
		b = b[n:]
	}
	if len(b) != 0 {
		return fmt.Errorf("%w: more than 4 blocks", ErrMalformed)
	}
	for i := range p.Blocks {
		p.Blocks[i] = tetris.Point{X: coords[2*i], Y: coords[2*i+1]}
	}
	return nil
}
