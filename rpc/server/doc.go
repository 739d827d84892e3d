// Package server implements the RPC server of the key-value store. It
// connects a server transport and a serializer to the key-value service,
// which runs every operation against an in-memory store.
//
// The package focuses on:
//   - Validating requests and answering malformed ones with INVALID_REQUEST_FORMAT
//   - Applying an optional simulated processing time outside of the store lock
//   - Observing calls through interceptors (peer logging, panic recovery, metrics)
//   - Graceful shutdown on SIGINT/SIGTERM with a bounded grace period
//
// Key Components:
//
//   - IKeyValueService: The strongly typed service (Put, Get, Delete), created
//     with NewKeyValueService on top of a store.IStore.
//
//   - IRPCServerAdapter: Translates message envelopes into service calls and
//     back. NewKeyValueServerAdapter is the only implementation.
//
//   - Interceptor: Wraps the handling of a call. PeerLoggingInterceptor,
//     RecoveryInterceptor and MetricsInterceptor are always installed, more
//     can be added with RPCServer.Use.
//
//   - RPCServer: Ties everything together. Start binds and serves in the
//     background, Serve blocks until a shutdown signal.
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.Transport.Endpoint = "0.0.0.0:8080"
//	config.SimulatedProcessingTime = 100 * time.Millisecond
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Metrics:
//
//	The server records call counts and durations (kvrpc_rpc_*) and store
//	operations (kvrpc_store_*) in its own metrics set. If MetricsEndpoint is
//	configured, they are served in the prometheus text format at /metrics.
package server
