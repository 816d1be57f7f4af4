package proto

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the content subtype of the messages on the wire.
const CodecName = "tetrix"

// maxMessageSize bounds a decompressed message.
const maxMessageSize = 1 << 20

var (
	encoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	decoder, _ = zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxMessageSize),
	)
)

// Message is implemented by every message of the service.
type Message interface {
	Marshal() []byte
	Unmarshal([]byte) error
}

// Codec encodes messages with protowire and compresses them with zstd. Snapshots
// are mostly empty cells so they shrink a lot.
type Codec struct{}

var _ encoding.Codec = Codec{}

func (Codec) Name() string { return CodecName }

func (Codec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("tetrix codec: unexpected message type %T", v)
	}
	return encoder.EncodeAll(m.Marshal(), nil), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("tetrix codec: unexpected message type %T", v)
	}
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("tetrix codec: failed to decompress: %w", err)
	}
	return m.Unmarshal(raw)
}

// ServerOption makes a gRPC server use Codec.
func ServerOption() grpc.ServerOption { return grpc.ForceServerCodec(Codec{}) }

// CallOption makes a call use Codec, NewTetrisServiceClient adds it to every call.
func CallOption() grpc.CallOption { return grpc.ForceCodec(Codec{}) }
