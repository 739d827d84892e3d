// Package cmd implements the command-line interface of kvrpc, a minimal
// networked key-value store.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the server (serve <port> [simulatedProcessingTimeMs])
//   - client: Interactive client (client <ip> <port>) that sends a few demo requests
//     and then reads put, get and delete commands from stdin
//   - kv: One-shot key-value operations and a performance test against a server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvrpc -help for a list of all commands.
package cmd
