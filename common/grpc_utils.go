package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

const grpcMaxMessageSize = 64 << 20

func NewGrpcServer() *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(grpcMaxMessageSize),
		grpc.MaxSendMsgSize(grpcMaxMessageSize),
		grpc.UnaryInterceptor(func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			resp, err := handler(ctx, req)
			return resp, ToRPCError(err)
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    2 * time.Minute,
			Timeout: 20 * time.Second,
		}),
	}
	return grpc.NewServer(opts...)
}

// ToRPCError maps error kinds onto grpc status codes so callers on the
// other side of the wire can tell a bad query from a node they should
// fail over from.
func ToRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrMalformedQuery):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrShardUnavailable):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FromRPCError reverses ToRPCError on the client side.
func FromRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", status.Convert(err).Message(), ErrMalformedQuery)
	case codes.NotFound:
		return fmt.Errorf("%s: %w", status.Convert(err).Message(), ErrShardUnavailable)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", status.Convert(err).Message(), ErrRpcTimeout)
	default:
		return err
	}
}

// DialNode opens a client connection to a worker node. Connections are
// lazy; failures surface on the first RPC, not here.
func DialNode(ctx context.Context, address string) (*grpc.ClientConn, error) {
	conn, err := grpc.DialContext(ctx, address,
		grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(grpcMaxMessageSize)),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                2 * time.Minute,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	return conn, nil
}
