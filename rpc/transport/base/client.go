package base

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// errTransportClosed is returned by Send after Close
var errTransportClosed = errors.New("transport is closed")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint, honouring ctx
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// liveConn is one established net connection together with the calls waiting on it.
// A liveConn is never reused once it broke, the owning clientConnection dials a new one.
type liveConn struct {
	conn    net.Conn
	pending *xsync.MapOf[uint64, chan responseResult]
	writeMu sync.Mutex
	closed  atomic.Bool
}

// clientConnection is one slot of the round robin pool, bound to an endpoint
type clientConnection struct {
	endpoint string
	mu       sync.Mutex // protects live
	live     *liveConn
	parent   *clientTransport
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64 // Round Robin counter
	nextRequestID atomic.Uint64 // unique request IDs
	stopping      atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Close all existing connections
	t.closeConnections()

	t.config = config
	t.stopping.Store(false)

	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)

	connections := make([]*clientConnection, 0, len(config.Transport.Endpoints)*connectionsPerEP)
	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			connections = append(connections, &clientConnection{
				endpoint: endpoint,
				parent:   t,
			})
		}
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	// Dial eagerly so the first call does not pay for it, failures are retried lazily per call
	ctx, cancel := context.WithTimeout(context.Background(), t.dialTimeout())
	defer cancel()

	connected := 0
	for i, conn := range connections {
		if _, err := conn.acquire(ctx); err != nil {
			Logger.Warningf("Failed to connect to %s (connection %d/%d): %v",
				conn.endpoint, i%connectionsPerEP+1, connectionsPerEP, err)
			continue
		}
		connected++
	}

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport",
		connected, len(connections), len(config.Transport.Endpoints), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(ctx context.Context, req []byte) ([]byte, error) {
	if t.stopping.Load() {
		return nil, transport.NewError(transport.ErrKindUnavailable, errTransportClosed)
	}

	connection := t.getNextConnection()
	if connection == nil {
		return nil, transport.NewError(transport.ErrKindUnavailable, fmt.Errorf("no connections configured"))
	}

	live, err := connection.acquire(ctx)
	if err != nil {
		return nil, classify(ctx, err)
	}

	requestID := t.nextRequestID.Add(1)

	// Register the request before writing, the response may arrive immediately
	respCh := make(chan responseResult, 1)
	live.pending.Store(requestID, respCh)
	defer live.pending.Delete(requestID)

	// drop() marks the connection closed before failing pending calls
	if live.closed.Load() {
		return nil, transport.NewError(transport.ErrKindUnavailable, fmt.Errorf("connection to %s lost", connection.endpoint))
	}

	deadline, hasDeadline := ctx.Deadline()

	live.writeMu.Lock()
	if hasDeadline {
		_ = live.conn.SetWriteDeadline(deadline)
	} else {
		_ = live.conn.SetWriteDeadline(time.Time{})
	}
	err = writeFrame(live.conn, requestID, encodeTimeout(deadline, hasDeadline), req)
	live.writeMu.Unlock()

	if err != nil {
		// a partially written frame corrupts the stream
		connection.drop(live, err)
		return nil, classify(ctx, err)
	}

	select {
	case result := <-respCh:
		if result.err != nil {
			return nil, result.err
		}
		return result.data, nil
	case <-ctx.Done():
		return nil, classify(ctx, ctx.Err())
	}
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dialTimeout bounds the eager dial in Connect
func (t *clientTransport) dialTimeout() time.Duration {
	if t.config.Timeout > 0 {
		return t.config.Timeout
	}
	return common.DefaultClientTimeout
}

// getNextConnection selects the next connection via Round Robin
func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	if len(t.connections) == 0 {
		return nil
	}
	if len(t.connections) == 1 {
		return t.connections[0]
	}
	index := t.nextConnIndex.Add(1) % uint64(len(t.connections))
	return t.connections[index]
}

// closeConnections closes all active connections and fails their pending calls
func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, conn := range connections {
		conn.mu.Lock()
		live := conn.live
		conn.mu.Unlock()
		if live != nil {
			conn.drop(live, errTransportClosed)
		}
	}
}

// acquire returns the established connection, dialing a new one if there is none
func (c *clientConnection) acquire(ctx context.Context) (*liveConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live != nil && !c.live.closed.Load() {
		return c.live, nil
	}

	conn, err := c.parent.connector.Connect(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	live := &liveConn{
		conn:    conn,
		pending: xsync.NewMapOf[uint64, chan responseResult](),
	}
	c.live = live

	// Start the response reader
	go c.readResponses(live)

	Logger.Debugf("Connected to %s", c.endpoint)
	return live, nil
}

// drop closes a broken connection and fails every call waiting on it.
// It is a no-op if the connection was already dropped.
func (c *clientConnection) drop(live *liveConn, cause error) {
	if !live.closed.CompareAndSwap(false, true) {
		return
	}
	_ = live.conn.Close()

	c.mu.Lock()
	if c.live == live {
		c.live = nil
	}
	c.mu.Unlock()

	err := transport.NewError(transport.ErrKindUnavailable, fmt.Errorf("connection to %s lost: %w", c.endpoint, cause))
	live.pending.Range(func(_ uint64, ch chan responseResult) bool {
		select {
		case ch <- responseResult{err: err}:
		default:
		}
		return true
	})
}

// readResponses reads responses in a loop and distributes them to waiting requests
func (c *clientConnection) readResponses(live *liveConn) {
	for {
		header, data, err := readFrame(live.conn, nil)
		if err != nil {
			if !live.closed.Load() {
				Logger.Debugf("Connection to %s broke: %v", c.endpoint, err)
			}
			c.drop(live, err)
			return
		}

		respCh, found := live.pending.Load(header.requestID)
		if !found {
			// the caller gave up (timeout) before the response arrived
			Logger.Debugf("Discarding response for unknown request ID %d", header.requestID)
			continue
		}

		select {
		case respCh <- responseResult{data: data}:
		default:
		}
	}
}

// classify converts err into a transport error, using ctx to tell a
// cancellation from a timeout
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return transport.NewError(transport.ErrKindTimeout, ctxErr)
		}
		return transport.NewError(transport.ErrKindOther, ctxErr)
	}
	return transport.Classify(err)
}
