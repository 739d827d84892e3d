// Package http implements an HTTP based transport for the key-value RPC
// system. Every call is a POST of the serialized request to /rpc, the
// response body is the serialized response.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport. Selects endpoints
//     round-robin and forwards the time left until the caller's deadline in
//     the X-Kvrpc-Timeout header (nanoseconds). Errors are classified into transport error kinds,
//     a non-200 status is reported as ErrKindOther. Send never retries.
//
//   - httpServerTransport: Implements IRPCServerTransport on top of a
//     gorilla/mux router. The timeout header is applied to the handler's context.
//     Shutdown drains open requests with http.Server.Shutdown and force-closes
//     the remaining connections when the grace period expires.
//
// Thread Safety:
//
//	The client transport is thread-safe and can be used concurrently.
package http
