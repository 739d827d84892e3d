package unix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/client"
	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/serializer"
	"github.com/ValentinKolb/kvrpc/rpc/server"
)

// TestMain sets the log level once, before any server goroutine logs
func TestMain(m *testing.M) {
	if err := common.InitLoggers("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func startUnixServer(t *testing.T, socketPath string, delay time.Duration) *server.RPCServer {
	t.Helper()

	config := common.DefaultServerConfig()
	config.Transport.Endpoint = socketPath
	config.SimulatedProcessingTime = delay

	srv := server.NewRPCServer(config, NewUnixServerTransport(), serializer.NewBinarySerializer())
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func newUnixClient(t *testing.T, socketPath string, timeout time.Duration) *client.RPCClient {
	t.Helper()

	config := common.ClientConfig{
		Timeout:   timeout,
		Transport: common.ClientTransportConfig{Endpoints: []string{socketPath}},
	}
	c, err := client.NewRPCClient(config, NewUnixClientTransport(), serializer.NewBinarySerializer())
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestUnixTransport(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "kvrpc.sock")
	srv := startUnixServer(t, socketPath, 0)
	if srv.Addr() != socketPath {
		t.Errorf("addr = %s, want %s", srv.Addr(), socketPath)
	}

	c := newUnixClient(t, socketPath, time.Second)
	ctx := context.Background()

	if err := c.Put(ctx, "A", "B"); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, found, err := c.Get(ctx, "A")
	if err != nil || !found || value != "B" {
		t.Errorf("get = %q, %v, %v", value, found, err)
	}
	deleted, err := c.Delete(ctx, "A")
	if err != nil || !deleted {
		t.Errorf("delete = %v, %v", deleted, err)
	}
}

func TestUnixTransportStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "kvrpc.sock")

	first := startUnixServer(t, socketPath, 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := first.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	// a second server on the same path must be able to listen again
	startUnixServer(t, socketPath, 0)
	c := newUnixClient(t, socketPath, time.Second)
	if err := c.Put(context.Background(), "A", "B"); err != nil {
		t.Errorf("put: %v", err)
	}
}

func TestUnixTransportErrors(t *testing.T) {
	t.Run("Unavailable", func(t *testing.T) {
		c := newUnixClient(t, filepath.Join(t.TempDir(), "missing.sock"), time.Second)
		err := c.Put(context.Background(), "A", "B")
		if client.OutcomeOf(err) != client.OutcomeTransportError {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		socketPath := filepath.Join(t.TempDir(), "kvrpc.sock")
		startUnixServer(t, socketPath, 500*time.Millisecond)
		c := newUnixClient(t, socketPath, 100*time.Millisecond)

		err := c.Put(context.Background(), "A", "B")
		if client.OutcomeOf(err) != client.OutcomeTimedOut {
			t.Errorf("expected timeout, got %v", err)
		}
		var callErr *client.CallError
		if !errors.As(err, &callErr) {
			t.Errorf("expected *client.CallError, got %T", err)
		}
	})
}
