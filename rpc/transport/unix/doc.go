// Package unix implements the RPC transport over Unix domain sockets for
// clients and servers on the same machine.
//
// It plugs socket specific connectors into the base package and inherits the
// framing, request routing, deadline propagation and shutdown handling from it.
// Endpoints are socket paths instead of host:port addresses. A stale socket
// file is removed before the server listens.
package unix
