// Package grpcbuf runs gRPC servers over an in-memory listener for tests.
package grpcbuf

import (
	"context"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

// Target is the dial target understood by Dial and by clients built with
// Dialer.
const Target = "passthrough://bufnet"

// MetaCapture records incoming metadata on the server side.
type MetaCapture struct {
	last atomic.Value // metadata.MD
}

// Interceptor records incoming metadata and forwards the request.
func (m *MetaCapture) Interceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		m.last.Store(md)
	}
	return handler(ctx, req)
}

// Last returns the most recently captured metadata or nil.
func (m *MetaCapture) Last() metadata.MD {
	if v := m.last.Load(); v != nil {
		return v.(metadata.MD)
	}
	return nil
}

// Start serves srv on a new bufconn listener. register is called before
// serving. Stop the returned server when done.
func Start(register func(*grpc.Server), opts ...grpc.ServerOption) (*grpc.Server, *bufconn.Listener, *MetaCapture) {
	lis := bufconn.Listen(bufSize)
	capture := &MetaCapture{}
	opts = append(opts, grpc.ChainUnaryInterceptor(capture.Interceptor))
	srv := grpc.NewServer(opts...)
	register(srv)
	go func() { _ = srv.Serve(lis) }()
	return srv, lis, capture
}

// Dialer returns the dial option routing connections to lis.
func Dialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() })
}

// Dial connects to lis without TLS.
func Dial(lis *bufconn.Listener, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		Dialer(lis),
	}
	return grpc.NewClient(Target, append(base, opts...)...)
}
