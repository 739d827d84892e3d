package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// forcedShutdownWait bounds the wait for connection goroutines after the
// grace period expired and their connections were closed
const forcedShutdownWait = time.Second

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	listener   net.Listener
	bufferPool *sync.Pool

	// baseCtx is the parent of every call context, cancelled on forced shutdown
	baseCtx    context.Context
	cancelBase context.CancelFunc

	conns   *xsync.MapOf[net.Conn, struct{}]
	connWG  sync.WaitGroup
	closing atomic.Bool

	nextRequestID atomic.Uint64
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport for the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	ctx, cancel := context.WithCancel(context.Background())
	return &serverTransport{
		connector:  connector,
		baseCtx:    ctx,
		cancelBase: cancel,
		conns:      xsync.NewMapOf[net.Conn, struct{}](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	bufferSize := config.Transport.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64 * 1024
	}
	t.bufferPool = &sync.Pool{
		New: func() interface{} {
			return make([]byte, bufferSize)
		},
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	t.listener = listener
	return nil
}

func (t *serverTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *serverTransport) Serve() error {
	if t.listener == nil {
		return fmt.Errorf("%s transport is not listening", t.connector.GetName())
	}
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	maxCalls := "unlimited"
	if t.config.Transport.MaxCallsPerConn > 0 {
		maxCalls = fmt.Sprintf("%d", t.config.Transport.MaxCallsPerConn)
	}
	Logger.Infof("Serving %s on %s with %s concurrent calls per connection",
		t.connector.GetName(), t.Addr(), maxCalls)

	// Accept connections
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				Logger.Warningf("Accept error: %v", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		t.conns.Store(conn, struct{}{})
		t.connWG.Add(1)

		// Handle the connection in a goroutine
		go func() {
			defer t.connWG.Done()
			defer t.conns.Delete(conn)
			t.handleConnection(conn)
		}()
	}
}

func (t *serverTransport) Shutdown(ctx context.Context) error {
	if !t.closing.CompareAndSwap(false, true) {
		return nil
	}

	if t.listener != nil {
		if err := t.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			Logger.Warningf("Failed to close listener: %v", err)
		}
	}

	// Unblock the read loops, in-flight calls still finish and write their response
	t.conns.Range(func(conn net.Conn, _ struct{}) bool {
		_ = conn.SetReadDeadline(time.Now())
		return true
	})

	done := make(chan struct{})
	go func() {
		t.connWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancelBase()
		return nil
	case <-ctx.Done():
		Logger.Warningf("Grace period expired, cancelling remaining calls")
		t.cancelBase()
		t.conns.Range(func(conn net.Conn, _ struct{}) bool {
			_ = conn.Close()
			return true
		})

		// the cancelled calls return quickly, wait so nothing outlives Shutdown
		select {
		case <-done:
		case <-time.After(forcedShutdownWait):
			Logger.Warningf("Connections still open %s after the forced shutdown", forcedShutdownWait)
		}
		return ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection handles incoming requests for one connection
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	remoteAddr := conn.RemoteAddr().String()
	writeTimeout := time.Duration(t.config.TimeoutSecond) * time.Second
	idleTimeout := time.Duration(t.config.IdleTimeoutSecond) * time.Second

	// Counting semaphore limiting concurrent calls on this connection (nil = unlimited)
	var callSemaphore chan struct{}
	if t.config.Transport.MaxCallsPerConn > 0 {
		callSemaphore = make(chan struct{}, t.config.Transport.MaxCallsPerConn)
	}

	// Wait group for the calls of this connection
	var wg sync.WaitGroup

	// Protects writes to the connection
	var connMutex sync.Mutex

	handleCall := func(header frameHeader, data []byte, buf []byte) {
		defer func() {
			t.bufferPool.Put(buf)
			if callSemaphore != nil {
				<-callSemaphore
			}
			wg.Done()
		}()

		ctx := t.baseCtx
		if deadline, ok := header.deadlineTime(); ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithDeadline(ctx, deadline)
			defer cancel()
		}

		info := transport.CallInfo{
			RequestID:  t.nextRequestID.Add(1),
			RemoteAddr: remoteAddr,
			Transport:  t.connector.GetName(),
		}

		start := time.Now()
		resp := t.handler(ctx, info, data)
		Logger.Debugf("Processed request %d (wire id %d) from %s in %s",
			info.RequestID, header.requestID, remoteAddr, time.Since(start))

		connMutex.Lock()
		defer connMutex.Unlock()

		if writeTimeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}

		// Respond with the same requestID
		if err := writeFrame(conn, header.requestID, 0, resp); err != nil {
			Logger.Errorf("Failed to write response to %s: %v", remoteAddr, err)
		}
	}

	readCall := func() error {
		if idleTimeout > 0 && !t.closing.Load() {
			if err := conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
				return fmt.Errorf("failed to set read deadline: %w", err)
			}
			// Shutdown may have raced with the deadline above
			if t.closing.Load() {
				_ = conn.SetReadDeadline(time.Now())
			}
		}

		buf := t.bufferPool.Get().([]byte)
		header, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			return err
		}

		// Blocks if MaxCallsPerConn is reached
		if callSemaphore != nil {
			callSemaphore <- struct{}{}
		}
		wg.Add(1)
		go handleCall(header, data, buf)
		return nil
	}

	for {
		if t.closing.Load() {
			break
		}

		err := readCall()
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			Logger.Debugf("Connection closed by %s", remoteAddr)
		} else if t.closing.Load() {
			Logger.Debugf("Stopped reading from %s for shutdown", remoteAddr)
		} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
			Logger.Infof("Closing idle connection from %s", remoteAddr)
		} else {
			Logger.Errorf("Error reading request from %s: %v", remoteAddr, err)
		}
		break
	}

	// Wait for all calls to finish before closing the connection
	wg.Wait()
}
