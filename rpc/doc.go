// Package rpc provides the remote procedure call layer of the key-value store.
// Clients send Put, Get and Delete requests to a server that keeps all entries
// in memory.
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol with its typed requests and responses, the
//     error status vocabulary, configuration structures and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP, gRPC) and the classification of transport errors.
//
//   - serializer: Message serialization with multiple format options (Binary,
//     Protobuf wire format, JSON, GOB).
//
//   - client: The RPC client. Every call is a single attempt bounded by a timeout
//     and ends in one of the outcomes succeeded, logical error, transport error or
//     timed out.
//
//   - server: The key-value service, the adapter between messages and the service,
//     call interceptors and the server lifecycle with graceful shutdown.
package rpc
