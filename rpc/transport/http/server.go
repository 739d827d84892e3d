package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/gorilla/mux"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

const (
	// rpcPath is the route all calls are posted to
	rpcPath = "/rpc"
	// timeoutHeader carries the time left for the call in nanoseconds. It is
	// relative, so the clocks of client and server need not agree.
	timeoutHeader = "X-Kvrpc-Timeout"
	// maxBodySize limits the size of a request body
	maxBodySize = 64 << 20
)

func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{}
}

type httpServerTransport struct {
	handler  transport.ServerHandleFunc
	config   common.ServerConfig
	listener net.Listener
	server   *http.Server

	baseCtx    context.Context
	cancelBase context.CancelFunc

	nextRequestID atomic.Uint64
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	t.config = config

	router := mux.NewRouter()
	router.HandleFunc(rpcPath, t.handleRequest).Methods(http.MethodPost)
	router.Use(loggerMiddleware)

	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", config.Transport.Endpoint, err)
	}
	t.listener = listener

	t.baseCtx, t.cancelBase = context.WithCancel(context.Background())
	t.server = &http.Server{
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return t.baseCtx },
		IdleTimeout: time.Duration(config.IdleTimeoutSecond) * time.Second,
	}
	if config.TimeoutSecond > 0 {
		// the write timeout covers the whole call, so it may not cut the simulated delay short
		t.server.WriteTimeout = time.Duration(config.TimeoutSecond)*time.Second + config.SimulatedProcessingTime
	}
	return nil
}

func (t *httpServerTransport) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

func (t *httpServerTransport) Serve() error {
	if t.server == nil {
		return fmt.Errorf("http transport is not listening")
	}
	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	Logger.Infof("Serving http on %s%s", t.Addr(), rpcPath)

	err := t.server.Serve(t.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (t *httpServerTransport) Shutdown(ctx context.Context) error {
	if t.server == nil {
		return nil
	}

	err := t.server.Shutdown(ctx)
	if err != nil {
		Logger.Warningf("Grace period expired, cancelling remaining calls")
		t.cancelBase()
		_ = t.server.Close()
		return err
	}
	t.cancelBase()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleRequest handles incoming HTTP requests and writes the response to the writer
func (t *httpServerTransport) handleRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	defer r.Body.Close()
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if raw := r.Header.Get(timeoutHeader); raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || nanos <= 0 {
			http.Error(w, "Invalid timeout header", http.StatusBadRequest)
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(nanos))
		defer cancel()
	}

	info := transport.CallInfo{
		RequestID:  t.nextRequestID.Add(1),
		RemoteAddr: r.RemoteAddr,
		Transport:  "http",
	}

	resp := t.handler(ctx, info, body)

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err = w.Write(resp); err != nil {
		Logger.Errorf("Failed to write response to %s: %v", r.RemoteAddr, err)
	}
}

// --------------------------------------------------------------------------
// Middleware (logging)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests at debug level
func loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		Logger.Debugf("%s %s from %s => %d took %s", r.Method, r.URL.Path, r.RemoteAddr, rw.statusCode, time.Since(start))
	})
}
