package base

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
)

// loopbackConnector listens on a local TCP port without socket tuning
type loopbackConnector struct{}

func (c *loopbackConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Transport.Endpoint)
}

func (c *loopbackConnector) GetName() string {
	return "loopback"
}

func (c *loopbackConnector) UpgradeConnection(net.Conn, common.ServerConfig) error {
	return nil
}

func TestServerForcedShutdownWaitsForConnections(t *testing.T) {
	srv := NewBaseServerTransport(&loopbackConnector{})

	var returned atomic.Bool
	started := make(chan struct{})
	srv.RegisterHandler(func(ctx context.Context, _ transport.CallInfo, req []byte) []byte {
		close(started)
		<-ctx.Done()
		// keep running a little after the cancel, like a call that cleans up
		time.Sleep(50 * time.Millisecond)
		returned.Store(true)
		return req
	})

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = "127.0.0.1:0"
	if err := srv.Listen(config); err != nil {
		t.Fatalf("listen: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if err := writeFrame(conn, 1, 0, []byte("call")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("call did not reach the handler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected grace period to expire, got %v", err)
	}

	if !returned.Load() {
		t.Errorf("Shutdown returned before the cancelled call finished")
	}
	if err := <-serveErr; err != nil {
		t.Errorf("serve: %v", err)
	}
}
