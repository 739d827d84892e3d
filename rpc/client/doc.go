// Package client implements the RPC client of the key-value store. It turns
// Put, Get and Delete calls into request envelopes, sends them over a client
// transport and classifies the result.
//
// The package focuses on:
//   - A single attempt per call, bounded by ClientConfig.Timeout (default 10s)
//   - Classifying every call into exactly one Outcome
//   - Logging every outcome and keeping per-session statistics
//
// Outcomes:
//
//   - OutcomeSucceeded: the server answered with status NONE.
//   - OutcomeLogicalError: the server answered with another status, e.g.
//     INVALID_REQUEST_FORMAT. The store was not changed.
//   - OutcomeTransportError: no valid response, CallError.Kind tells whether
//     the server was unavailable or something else failed.
//   - OutcomeTimedOut: no response before the deadline.
//
// Every failed call returns a *CallError; OutcomeOf reads the outcome back
// from any error.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  Timeout:   10 * time.Second,
//	  Transport: common.ClientTransportConfig{Endpoints: []string{"localhost:8080"}},
//	}
//
//	c, _ := client.NewRPCClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	defer c.Close()
//
//	_ = c.Put(ctx, "Key0", "Value0")
//	value, found, err := c.Get(ctx, "Key0")
//	if client.OutcomeOf(err) == client.OutcomeTimedOut {
//	  // ...
//	}
//
// The client and the server must use the same transport and serializer.
package client
