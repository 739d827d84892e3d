package serializer

import (
	"bytes"
	"encoding/gob"

	"github.com/ValentinKolb/kvrpc/rpc/common"
)

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() IRPCSerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the IRPCSerializer interface using gob encoding
type gobSerializerImpl struct {
}

// gobEnvelope carries the presence of Value explicitly,
// gob does not transmit empty slices and would decode them as nil
type gobEnvelope struct {
	Msg      common.Message
	HasValue bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(gobEnvelope{Msg: msg, HasValue: msg.Value != nil}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	var env gobEnvelope
	dec := gob.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&env); err != nil {
		return err
	}

	*msg = env.Msg
	switch {
	case !env.HasValue:
		msg.Value = nil
	case msg.Value == nil:
		msg.Value = []byte{}
	}
	return nil
}
