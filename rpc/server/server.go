package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/ValentinKolb/kvrpc/lib/store"
	"github.com/ValentinKolb/kvrpc/lib/store/lstore"
	"github.com/ValentinKolb/kvrpc/lib/store/mstore"
	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/serializer"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	if config.SimulatedProcessingTime < 0 {
		config.SimulatedProcessingTime = 0
	}
	if config.ShutdownGracePeriod <= 0 {
		config.ShutdownGracePeriod = common.DefaultShutdownGracePeriod
	}

	set := metrics.NewSet()
	kvStore := mstore.NewMeteredStore(lstore.NewLocalStore(), set)

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		adapter:    NewKeyValueServerAdapter(),
		store:      kvStore,
		service:    NewKeyValueService(kvStore, config.SimulatedProcessingTime),
		metrics:    set,
		serveErr:   make(chan error, 1),
	}
}

// RPCServer ties a transport, a serializer and the key-value service together
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	adapter    IRPCServerAdapter
	store      store.IStore
	service    IKeyValueService
	metrics    *metrics.Set

	interceptors  []Interceptor
	metricsServer *http.Server

	startOnce    sync.Once
	shutdownOnce sync.Once
	serveErr     chan error
}

// Use appends interceptors to the chain. They run inside the built-in
// metrics, peer logging and recovery interceptors, in the given order.
// Use must be called before Start.
func (s *RPCServer) Use(interceptors ...Interceptor) {
	s.interceptors = append(s.interceptors, interceptors...)
}

// Store returns the store backing the server
func (s *RPCServer) Store() store.IStore {
	return s.store
}

// Metrics returns the metrics set of the server
func (s *RPCServer) Metrics() *metrics.Set {
	return s.metrics
}

// Addr returns the address the transport is bound to, empty before Start
func (s *RPCServer) Addr() string {
	return s.transport.Addr()
}

// Start binds the transport and serves calls in the background.
// Errors of the background serve loop are returned by Serve and Wait.
func (s *RPCServer) Start() error {
	var err error
	started := false
	s.startOnce.Do(func() {
		started = true
		err = s.start()
	})
	if !started {
		return fmt.Errorf("server already started")
	}
	return err
}

// Wait blocks until the serve loop has returned
func (s *RPCServer) Wait() error {
	err := <-s.serveErr
	s.serveErr <- err
	return err
}

// Shutdown stops accepting calls and waits for in-flight calls until ctx
// expires, after which they are cancelled.
func (s *RPCServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		errs := []error{s.transport.Shutdown(ctx)}
		if s.metricsServer != nil {
			errs = append(errs, s.metricsServer.Shutdown(ctx))
		}
		err = errors.Join(errs...)
	})
	return err
}

// Serve starts the RPC server and blocks until SIGINT or SIGTERM is received
// or serving fails. On a signal, the server is shut down with the configured
// grace period.
func (s *RPCServer) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-s.serveErr:
		s.serveErr <- err
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	Logger.Infof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownGracePeriod)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		Logger.Warningf("Server did not shut down cleanly: %v", err)
	}
	if err := s.Wait(); err != nil {
		return err
	}
	Logger.Infof("Server stopped")
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) start() error {
	Logger.Infof("Starting server")
	Logger.Infof("%s", s.config.String())
	Logger.Infof("All RPC calls will have an additional simulated processing time of %dms",
		s.config.SimulatedProcessingTime.Milliseconds())

	interceptors := append([]Interceptor{
		MetricsInterceptor(s.metrics),
		PeerLoggingInterceptor(),
		RecoveryInterceptor(s.serializer),
	}, s.interceptors...)
	s.transport.RegisterHandler(chain(s.handle, interceptors...))

	if err := s.transport.Listen(s.config); err != nil {
		return err
	}

	if s.config.MetricsEndpoint != "" {
		if err := s.startMetricsServer(); err != nil {
			_ = s.transport.Shutdown(context.Background())
			return err
		}
	}

	go func() {
		err := s.transport.Serve()
		if err != nil {
			Logger.Errorf("Serving failed: %v", err)
		}
		s.serveErr <- err
	}()

	Logger.Infof("Server listening on %s", s.Addr())
	return nil
}

// handle decodes a request, dispatches it and encodes the response
func (s *RPCServer) handle(ctx context.Context, info transport.CallInfo, req []byte) []byte {
	var msg common.Message
	var resp *common.Message

	if err := s.serializer.Deserialize(req, &msg); err != nil {
		Logger.Warningf("%sFailed to deserialize request from %s: %v", callFromContext(ctx).prefix(), info.RemoteAddr, err)
		resp = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
	} else {
		resp = s.adapter.Handle(ctx, &msg, s.service)
	}

	data, err := s.serializer.Serialize(*resp)
	if err != nil {
		return encodeError(s.serializer, fmt.Sprintf("failed to serialize response: %s", err))
	}
	return data
}

// startMetricsServer serves the prometheus metrics at /metrics
func (s *RPCServer) startMetricsServer() error {
	router := mux.NewRouter()
	router.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s.metrics.WritePrometheus(w)
		metrics.WritePrometheus(w, true)
	}).Methods(http.MethodGet)

	listener, err := net.Listen("tcp", s.config.MetricsEndpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics endpoint %s: %w", s.config.MetricsEndpoint, err)
	}

	s.metricsServer = &http.Server{Handler: router}
	go func() {
		if err := s.metricsServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics server failed: %v", err)
		}
	}()

	Logger.Infof("Serving metrics on http://%s/metrics", listener.Addr())
	return nil
}
