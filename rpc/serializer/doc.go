// Package serializer provides message serialization for the key-value RPC
// system. It defines a common interface and several implementations that
// convert between common.Message and byte arrays.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: Custom binary format optimized for speed and size.
//     A flag byte records which optional fields follow, so only present fields
//     are encoded.
//
//   - protoSerializerImpl: Protocol buffers wire format written with protowire,
//     without generated code. Field presence of the value is explicit, unknown
//     fields are skipped.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging or interoperability
//     with other systems, but with lower performance.
//
//   - gobSerializerImpl: Go's gob encoding. Gob drops empty slices, so the
//     message is wrapped in an envelope that records whether a value is present.
//
// Value presence:
//
//	Every implementation keeps a nil Message.Value distinct from an empty one.
//	The server relies on this to reject a Put without a value as malformed
//	while still accepting a Put of the empty string.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	serializer := serializer.NewBinarySerializer()
//	data, err := serializer.Serialize(*common.NewGetRequest("Key0"))
//	// ... send data ...
//	var receivedMsg common.Message
//	err = serializer.Deserialize(receivedData, &receivedMsg)
//
// Client and server must be configured with the same serializer.
package serializer
