// Package grpc implements a gRPC based transport for the key-value RPC
// system. Serialized messages are carried as raw bytes through a single
// unary method (/kvrpc.Transport/Call) using a pass-through codec, so the
// wire format stays the one chosen by the RPC layer's serializer.
//
// Deadlines travel with gRPC's own timeout propagation. Status codes are
// mapped to transport error kinds: Unavailable to ErrKindUnavailable,
// DeadlineExceeded to ErrKindTimeout, everything else to ErrKindOther.
//
// Shutdown uses GracefulStop and falls back to Stop when the grace period
// expires.
package grpc
