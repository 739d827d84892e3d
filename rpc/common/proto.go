package common

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is the wire envelope for all requests and responses. MsgType tags
// which variant is carried; use the typed accessors (PutRequest, GetResponse,
// ...) instead of reading the fields directly.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"` // Used for: Put, Get, Delete requests
	Value []byte `json:"value"`         // Used for: Put (request), Get (response). nil means absent

	// Response only fields
	Status ErrorStatus `json:"status,omitempty"` // Application level outcome
	Ok     bool        `json:"ok,omitempty"`     // Used for: Delete responses (entry was removed)
	Err    string      `json:"err,omitempty"`    // Transport level error, set only on MsgTError and MsgTTimeout
}

// --------------------------------------------------------------------------
// Typed Requests and Responses
// --------------------------------------------------------------------------

// PutRequest stores Value under Key. A nil Value makes the request malformed.
type PutRequest struct {
	Key   string
	Value *string
}

// GetRequest looks up the value stored under Key.
type GetRequest struct {
	Key string
}

// DeleteRequest removes the entry stored under Key.
type DeleteRequest struct {
	Key string
}

// PutResponse is the result of a PutRequest.
type PutResponse struct {
	Status ErrorStatus
}

// GetResponse is the result of a GetRequest. Value is nil if the key was not found.
type GetResponse struct {
	Status ErrorStatus
	Value  *string
}

// DeleteResponse is the result of a DeleteRequest. Deleted reports whether
// an entry existed and was removed.
type DeleteResponse struct {
	Status  ErrorStatus
	Deleted bool
}

func (r *PutRequest) String() string {
	return fmt.Sprintf("PutRequest { key: %s value: %s }", quote(&r.Key), quote(r.Value))
}

func (r *GetRequest) String() string {
	return fmt.Sprintf("GetRequest { key: %s }", quote(&r.Key))
}

func (r *DeleteRequest) String() string {
	return fmt.Sprintf("DeleteRequest { key: %s }", quote(&r.Key))
}

func (r *PutResponse) String() string {
	return fmt.Sprintf("PutResponse { status: %s }", r.Status)
}

func (r *GetResponse) String() string {
	return fmt.Sprintf("GetResponse { status: %s value: %s }", r.Status, quote(r.Value))
}

func (r *DeleteResponse) String() string {
	return fmt.Sprintf("DeleteResponse { status: %s deleted: %t }", r.Status, r.Deleted)
}

// quote renders an optional string field, <unset> if it is absent
func quote(s *string) string {
	if s == nil {
		return "<unset>"
	}
	return strconv.Quote(*s)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPutRequest creates a new Put request
func NewPutRequest(key, value string) *Message {
	return &Message{
		MsgType: MsgTPut,
		Key:     key,
		Value:   []byte(value),
	}
}

// NewPutResponse creates a new Put response
func NewPutResponse(resp *PutResponse) *Message {
	return &Message{
		MsgType: MsgTPut,
		Status:  resp.Status,
	}
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(resp *GetResponse) *Message {
	msg := &Message{
		MsgType: MsgTGet,
		Status:  resp.Status,
	}
	if resp.Value != nil {
		msg.Value = []byte(*resp.Value)
	}
	return msg
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(resp *DeleteResponse) *Message {
	return &Message{
		MsgType: MsgTDelete,
		Status:  resp.Status,
		Ok:      resp.Deleted,
	}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// NewTimeoutResponse creates the response for a call whose deadline passed
// on the server before it completed
func NewTimeoutResponse(err string) *Message {
	return &Message{
		MsgType: MsgTTimeout,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Typed Accessors
// --------------------------------------------------------------------------

// PutRequest returns the typed view of a Put request envelope
func (m *Message) PutRequest() *PutRequest {
	return &PutRequest{Key: m.Key, Value: optionalString(m.Value)}
}

// GetRequest returns the typed view of a Get request envelope
func (m *Message) GetRequest() *GetRequest {
	return &GetRequest{Key: m.Key}
}

// DeleteRequest returns the typed view of a Delete request envelope
func (m *Message) DeleteRequest() *DeleteRequest {
	return &DeleteRequest{Key: m.Key}
}

// PutResponse returns the typed view of a Put response envelope
func (m *Message) PutResponse() *PutResponse {
	return &PutResponse{Status: m.Status}
}

// GetResponse returns the typed view of a Get response envelope
func (m *Message) GetResponse() *GetResponse {
	return &GetResponse{Status: m.Status, Value: optionalString(m.Value)}
}

// DeleteResponse returns the typed view of a Delete response envelope
func (m *Message) DeleteResponse() *DeleteResponse {
	return &DeleteResponse{Status: m.Status, Deleted: m.Ok}
}

func optionalString(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPut:
		return "put"
	case MsgTGet:
		return "get"
	case MsgTDelete:
		return "delete"
	case MsgTError:
		return "error"
	case MsgTTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "put":
		*t = MsgTPut
	case "get":
		*t = MsgTGet
	case "delete":
		*t = MsgTDelete
	case "error":
		*t = MsgTError
	case "timeout":
		*t = MsgTTimeout
	case "unknown":
		*t = MsgTUnknown
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota
	MsgTError               // Transport level failure, see Message.Err

	MsgTPut    // Put a key-value pair
	MsgTGet    // Get a value by key
	MsgTDelete // Delete a key-value pair

	MsgTTimeout // The deadline of the call passed on the server, see Message.Err
)

// --------------------------------------------------------------------------
// Error Status
// --------------------------------------------------------------------------

// ErrorStatus is the application level outcome of a call. It is reported
// in-band and is never used for transport failures.
type ErrorStatus uint8

const (
	StatusNone                 ErrorStatus = iota // request was fulfilled (a missing key is not an error)
	StatusInvalidRequestFormat                    // a mandatory field was missing
)

// String returns the wire name of the status.
func (s ErrorStatus) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusInvalidRequestFormat:
		return "INVALID_REQUEST_FORMAT"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}

// Cause returns a human-readable description of the status.
func (s ErrorStatus) Cause() string {
	switch s {
	case StatusNone:
		return "no error"
	case StatusInvalidRequestFormat:
		return "invalid request"
	default:
		return fmt.Sprintf("unknown error status %d", uint8(s))
	}
}

// MarshalJSON encodes the status by name.
func (s ErrorStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *ErrorStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	switch name {
	case "NONE":
		*s = StatusNone
	case "INVALID_REQUEST_FORMAT":
		*s = StatusInvalidRequestFormat
	default:
		return fmt.Errorf("unknown error status: %s", name)
	}
	return nil
}
