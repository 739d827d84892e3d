// Package tcp implements the TCP socket transport of the key-value RPC
// system. It provides the connectors that plug TCP into the base package's
// framed transport, which handles request correlation, deadlines and
// graceful shutdown (see the base package documentation).
//
// Key Components:
//
//   - clientConnector: TCP implementation of base.IClientConnector, dials with
//     the caller's context.
//
//   - serverConnector: TCP implementation of base.IServerConnector.
//
// Both sides apply the socket options of common.SocketConf and common.TCPConf
// (no-delay, buffer sizes, keep-alive, linger) to every connection.
package tcp
