package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// NewGRPCClientTransport creates a new gRPC client transport
func NewGRPCClientTransport() transport.IRPCClientTransport {
	return &grpcClientTransport{}
}

type grpcClientTransport struct {
	mu      sync.RWMutex
	conns   []*grpc.ClientConn
	counter atomic.Uint64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *grpcClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	}
	if config.Transport.WriteBufferSize > 0 {
		opts = append(opts, grpc.WithWriteBufferSize(config.Transport.WriteBufferSize))
	}
	if config.Transport.ReadBufferSize > 0 {
		opts = append(opts, grpc.WithReadBufferSize(config.Transport.ReadBufferSize))
	}

	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)

	// grpc connects lazily, an unreachable endpoint fails the call, not Connect
	conns := make([]*grpc.ClientConn, 0, len(config.Transport.Endpoints)*connectionsPerEP)
	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			conn, err := grpc.NewClient("passthrough:///"+endpoint, opts...)
			if err != nil {
				for _, c := range conns {
					_ = c.Close()
				}
				return fmt.Errorf("invalid endpoint %s: %w", endpoint, err)
			}
			conns = append(conns, conn)
		}
	}

	t.mu.Lock()
	old := t.conns
	t.conns = conns
	t.mu.Unlock()

	for _, c := range old {
		_ = c.Close()
	}
	return nil
}

func (t *grpcClientTransport) Send(ctx context.Context, req []byte) ([]byte, error) {
	t.mu.RLock()
	conns := t.conns
	t.mu.RUnlock()

	if len(conns) == 0 {
		return nil, transport.NewError(transport.ErrKindUnavailable, fmt.Errorf("grpc transport not initialized"))
	}

	conn := conns[t.counter.Add(1)%uint64(len(conns))]

	out := new(frame)
	if err := conn.Invoke(ctx, callMethod, &frame{data: req}, out); err != nil {
		return nil, classify(ctx, err)
	}
	return out.data, nil
}

func (t *grpcClientTransport) Close() error {
	t.mu.Lock()
	conns := t.conns
	t.conns = nil
	t.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// classify maps a gRPC status to a transport error kind
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return transport.NewError(transport.ErrKindTimeout, ctxErr)
		}
		return transport.NewError(transport.ErrKindOther, ctxErr)
	}

	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return transport.NewError(transport.ErrKindTimeout, err)
	case codes.Unavailable:
		return transport.NewError(transport.ErrKindUnavailable, err)
	default:
		return transport.NewError(transport.ErrKindOther, err)
	}
}
