package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	TetrisService_GameSession_FullMethodName = "/tetris.TetrisService/GameSession"
	TetrisService_Watch_FullMethodName       = "/tetris.TetrisService/Watch"
)

// TetrisServiceClient is the client API for TetrisService.
type TetrisServiceClient interface {
	// GameSession pairs the caller with an opponent and relays their messages.
	GameSession(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[GameMessage, GameMessage], error)
	// Watch streams the messages of both players of a game.
	Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[GameMessage], error)
}

type tetrisServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTetrisServiceClient(cc grpc.ClientConnInterface) TetrisServiceClient {
	return &tetrisServiceClient{cc}
}

func (c *tetrisServiceClient) GameSession(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[GameMessage, GameMessage], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod(), CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, &TetrisService_ServiceDesc.Streams[0], TetrisService_GameSession_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[GameMessage, GameMessage]{ClientStream: stream}, nil
}

func (c *tetrisServiceClient) Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[GameMessage], error) {
	cOpts := append([]grpc.CallOption{grpc.StaticMethod(), CallOption()}, opts...)
	stream, err := c.cc.NewStream(ctx, &TetrisService_ServiceDesc.Streams[1], TetrisService_Watch_FullMethodName, cOpts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchRequest, GameMessage]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// TetrisServiceServer is the server API for TetrisService.
type TetrisServiceServer interface {
	GameSession(grpc.BidiStreamingServer[GameMessage, GameMessage]) error
	Watch(*WatchRequest, grpc.ServerStreamingServer[GameMessage]) error
}

// UnimplementedTetrisServiceServer can be embedded to have forward compatible implementations.
type UnimplementedTetrisServiceServer struct{}

func (UnimplementedTetrisServiceServer) GameSession(grpc.BidiStreamingServer[GameMessage, GameMessage]) error {
	return status.Errorf(codes.Unimplemented, "method GameSession not implemented")
}

func (UnimplementedTetrisServiceServer) Watch(*WatchRequest, grpc.ServerStreamingServer[GameMessage]) error {
	return status.Errorf(codes.Unimplemented, "method Watch not implemented")
}

// RegisterTetrisServiceServer registers srv on s. The server must be created with
// ServerOption so the messages are decoded with Codec.
func RegisterTetrisServiceServer(s grpc.ServiceRegistrar, srv TetrisServiceServer) {
	s.RegisterService(&TetrisService_ServiceDesc, srv)
}

func _TetrisService_GameSession_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(TetrisServiceServer).GameSession(&grpc.GenericServerStream[GameMessage, GameMessage]{ServerStream: stream})
}

func _TetrisService_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(TetrisServiceServer).Watch(m, &grpc.GenericServerStream[WatchRequest, GameMessage]{ServerStream: stream})
}

var TetrisService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tetris.TetrisService",
	HandlerType: (*TetrisServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GameSession",
			Handler:       _TetrisService_GameSession_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
		{
			StreamName:    "Watch",
			Handler:       _TetrisService_Watch_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "tetris.proto",
}
