// Package common provides the data structures and utilities shared by the
// client and the server of the key-value RPC system.
//
// The package focuses on:
//   - The message protocol (one envelope, three typed request/response pairs)
//   - The ErrorStatus vocabulary that reports application level outcomes in-band
//   - Configuration structures for client and server components
//   - A custom logging implementation plugged into Dragonboat's logger package
//
// Key Components:
//
//   - Message: the envelope that travels over the wire. MsgType tags the
//     variant; the typed views (PutRequest, GetResponse, ...) are obtained
//     through accessor methods and built through the New*Request/New*Response
//     factory functions. A nil Value means the field is absent, which is how
//     a malformed Put (key without value) is told apart from an empty value.
//
//   - ErrorStatus: NONE or INVALID_REQUEST_FORMAT. A Get on a missing key is
//     NONE without a value, absence is never reported as an error.
//
//   - ServerConfig / ClientConfig: configuration for both sides, ServerConfig
//     can also be loaded from a YAML file (LoadServerConfigFile).
//
//   - Logger: every line is "<ISO-8601 timestamp> : <component> : <LEVEL> : <message>"
//     on stdout. Packages obtain their logger with logger.GetLogger(name) and
//     InitLoggers installs the factory and sets the level.
package common
