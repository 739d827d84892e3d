package grpc

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

var Logger = logger.GetLogger("transport/rpc")

// NewGRPCServerTransport creates a new gRPC server transport
func NewGRPCServerTransport() transport.IRPCServerTransport {
	return &grpcServerTransport{}
}

type grpcServerTransport struct {
	handler  transport.ServerHandleFunc
	config   common.ServerConfig
	listener net.Listener
	server   *grpc.Server

	nextRequestID atomic.Uint64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *grpcServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *grpcServerTransport) Listen(config common.ServerConfig) error {
	t.config = config

	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Transport.Endpoint, err)
	}
	t.listener = listener

	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(rawCodec{}),
	}
	if config.Transport.MaxCallsPerConn > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(config.Transport.MaxCallsPerConn)))
	}
	if config.Transport.WriteBufferSize > 0 {
		opts = append(opts, grpc.WriteBufferSize(config.Transport.WriteBufferSize))
	}
	if config.Transport.ReadBufferSize > 0 {
		opts = append(opts, grpc.ReadBufferSize(config.Transport.ReadBufferSize))
	}

	t.server = grpc.NewServer(opts...)
	t.server.RegisterService(&serviceDesc, t)
	return nil
}

func (t *grpcServerTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *grpcServerTransport) Serve() error {
	if t.server == nil {
		return fmt.Errorf("grpc transport is not listening")
	}
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	Logger.Infof("Serving grpc on %s", t.Addr())

	// returns nil after Stop or GracefulStop
	return t.server.Serve(t.listener)
}

func (t *grpcServerTransport) Shutdown(ctx context.Context) error {
	if t.server == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		t.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		Logger.Warningf("Grace period expired, cancelling remaining calls")
		t.server.Stop()
		<-done
		return ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// call is invoked by gRPC for every call, ctx carries the caller's deadline
func (t *grpcServerTransport) call(ctx context.Context, req *frame) (*frame, error) {
	info := transport.CallInfo{
		RequestID: t.nextRequestID.Add(1),
		Transport: "grpc",
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		info.RemoteAddr = p.Addr.String()
	}

	return &frame{data: t.handler(ctx, info, req.data)}, nil
}
