package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/kvrpc/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
//
//	[1 byte MsgType][1 byte flags][optional fields in flag order]
//
// Strings and byte slices are length prefixed (uint32, big endian).
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey    byte = 1 << 0
	hasValue  byte = 1 << 1
	hasStatus byte = 1 << 2
	hasOk     byte = 1 << 3
	hasErr    byte = 1 << 4
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, 2, b.sizeBytes(msg))

	// Write message type, flags are patched in at the end
	result[0] = byte(msg.MsgType)
	var flags byte = 0

	if msg.Key != "" {
		flags |= hasKey
		result = appendLengthPrefixed(result, []byte(msg.Key))
	}

	// A present but empty value is encoded with length 0
	if msg.Value != nil {
		flags |= hasValue
		result = appendLengthPrefixed(result, msg.Value)
	}

	if msg.Status != common.StatusNone {
		flags |= hasStatus
		result = append(result, byte(msg.Status))
	}

	if msg.Ok {
		flags |= hasOk
	}

	if msg.Err != "" {
		flags |= hasErr
		result = appendLengthPrefixed(result, []byte(msg.Err))
	}

	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	pos := 2

	if flags&hasKey != 0 {
		key, n, err := readLengthPrefixed(data, pos, "key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
		pos = n
	}

	if flags&hasValue != 0 {
		value, n, err := readLengthPrefixed(data, pos, "value")
		if err != nil {
			return err
		}
		// copy so the message does not alias the (pooled) input buffer
		msg.Value = append(make([]byte, 0, len(value)), value...)
		pos = n
	}

	if flags&hasStatus != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for status")
		}
		msg.Status = common.ErrorStatus(data[pos])
		pos++
	}

	msg.Ok = flags&hasOk != 0

	if flags&hasErr != 0 {
		errMsg, _, err := readLengthPrefixed(data, pos, "error")
		if err != nil {
			return err
		}
		msg.Err = string(errMsg)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Status != common.StatusNone {
		size++
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}

	return size
}

func appendLengthPrefixed(dst, data []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...)
}

// readLengthPrefixed returns the field starting at pos and the position after it
func readLengthPrefixed(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s length", field)
	}
	length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4

	if length < 0 || pos+length > len(data) {
		return nil, 0, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+length], pos + length, nil
}
