// Package base provides the foundation for stream based transports of the
// key-value RPC system. It implements framing, request correlation and
// connection handling independent of the network protocol, and is extended
// with protocol-specific connectors (see package tcp).
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Frame-based message protocol with requestID and deadline propagation
//   - Asynchronous request routing and response correlation
//   - Graceful shutdown that lets in-flight calls finish
//
// Frame format:
//
//	[8 bytes requestID][8 bytes timeout, nanos left, 0 = none][4 bytes length][payload]
//
// All integers are big endian. Responses carry the requestID of their request.
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific operations
//     (dialing, listening, socket tuning).
//
//   - clientTransport: Manages a pool of connections with round-robin selection.
//     Connections are dialed lazily and re-dialed on the next call after they broke.
//     Calls waiting on a broken connection fail with transport.ErrKindUnavailable.
//     Send never retries.
//
//   - serverTransport: Accepts connections and runs every call on its own
//     goroutine, optionally bounded per connection by MaxCallsPerConn. The
//     caller's deadline is applied to the handler's context.
//
// Performance Optimizations:
//
//   - Buffer Pooling: The server uses a sync.Pool to reuse read buffers.
//
//   - Frame Batching: Frames are written with net.Buffers, combining header and
//     payload into a single write.
//
// Thread Safety:
//
//	All public methods are thread-safe. Writes to a connection are serialized
//	with a mutex, pending calls are tracked in a concurrent map.
package base
