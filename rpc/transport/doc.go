// Package transport defines the interfaces and abstractions for RPC communication
// in the key-value store. It provides a common contract that all transport
// implementations fulfil, enabling protocol-agnostic communication.
//
// The package focuses on:
//   - Defining the interfaces for client and server transport layers
//   - Classifying transport failures (unavailable, timeout, other)
//   - Enabling multiple transport implementations (TCP, HTTP, gRPC)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transports that manage
//     connections and send requests. Send takes a context whose deadline bounds
//     the call and never retries.
//
//   - IRPCServerTransport: Interface for server-side transports that receive
//     requests and hand them to the registered handler, one goroutine per call,
//     and shut down gracefully.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
//   - Error/ErrorKind: Failure classification returned by client transports.
package transport
