package transport

import (
	"context"

	"github.com/ValentinKolb/kvrpc/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// CallInfo describes one inbound call as seen by the transport
type CallInfo struct {
	// RequestID identifies the call on its transport (unique per transport instance)
	RequestID uint64
	// RemoteAddr is the address of the calling peer
	RemoteAddr string
	// Transport is the name of the transport that received the call (tcp, http, grpc)
	Transport string
}

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport on its own goroutine for every call.
// The context carries the caller's deadline (if any) and is cancelled when
// the server is forced to stop.
type ServerHandleFunc func(ctx context.Context, info CallInfo, req []byte) (resp []byte)

// IRPCServerTransport is the interface for the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler called for every request.
	// It must be called before Serve.
	RegisterHandler(handler ServerHandleFunc)
	// Listen binds the transport to config.Transport.Endpoint. It does not block.
	Listen(config common.ServerConfig) error
	// Addr returns the bound address, empty before Listen
	Addr() string
	// Serve accepts calls until Shutdown is called. It returns nil after a
	// shutdown and an error if serving failed.
	Serve() error
	// Shutdown stops accepting new calls and waits for in-flight calls to
	// finish. When ctx expires, the remaining calls are cancelled and their
	// connections closed, and ctx.Err() is returned.
	Shutdown(ctx context.Context) error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration.
	// Unreachable endpoints are not an error here, calls to them fail with ErrKindUnavailable.
	Connect(config common.ClientConfig) error
	// Send sends a request and waits for the response until ctx is done.
	// Every failure is returned as a *Error carrying its ErrorKind.
	// Send never retries.
	Send(ctx context.Context, req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
