package serializer

import (
	"fmt"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"google.golang.org/protobuf/encoding/protowire"
)

// NewProtoSerializer creates a new serializer that encodes messages in the
// protocol buffers wire format. The message layout is
//
//	message Message {
//	  uint32 msg_type = 1;
//	  string key      = 2;
//	  optional bytes value = 3;
//	  uint32 status   = 4;
//	  bool   ok       = 5;
//	  string err      = 6;
//	}
//
// Unknown fields are skipped, so the format can be extended.
func NewProtoSerializer() IRPCSerializer {
	return &protoSerializerImpl{}
}

// protoSerializerImpl implements IRPCSerializer with protowire
type protoSerializerImpl struct {
}

const (
	fieldMsgType protowire.Number = 1
	fieldKey     protowire.Number = 2
	fieldValue   protowire.Number = 3
	fieldStatus  protowire.Number = 4
	fieldOk      protowire.Number = 5
	fieldErr     protowire.Number = 6
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (p protoSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	b := make([]byte, 0, 16+len(msg.Key)+len(msg.Value)+len(msg.Err))

	if msg.MsgType != common.MsgTUnknown {
		b = protowire.AppendTag(b, fieldMsgType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(msg.MsgType))
	}
	if msg.Key != "" {
		b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
		b = protowire.AppendString(b, msg.Key)
	}
	// explicit presence: an empty value is still written
	if msg.Value != nil {
		b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, msg.Value)
	}
	if msg.Status != common.StatusNone {
		b = protowire.AppendTag(b, fieldStatus, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(msg.Status))
	}
	if msg.Ok {
		b = protowire.AppendTag(b, fieldOk, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if msg.Err != "" {
		b = protowire.AppendTag(b, fieldErr, protowire.BytesType)
		b = protowire.AppendString(b, msg.Err)
	}
	return b, nil
}

func (p protoSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("invalid tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldMsgType && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("invalid msg_type: %w", protowire.ParseError(m))
			}
			msg.MsgType = common.MessageType(v)
			n = m
		case num == fieldKey && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return fmt.Errorf("invalid key: %w", protowire.ParseError(m))
			}
			msg.Key = v
			n = m
		case num == fieldValue && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return fmt.Errorf("invalid value: %w", protowire.ParseError(m))
			}
			msg.Value = append([]byte{}, v...)
			n = m
		case num == fieldStatus && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("invalid status: %w", protowire.ParseError(m))
			}
			msg.Status = common.ErrorStatus(v)
			n = m
		case num == fieldOk && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return fmt.Errorf("invalid ok: %w", protowire.ParseError(m))
			}
			msg.Ok = protowire.DecodeBool(v)
			n = m
		case num == fieldErr && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return fmt.Errorf("invalid err: %w", protowire.ParseError(m))
			}
			msg.Err = v
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("invalid field %d: %w", num, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return nil
}
