package common

import (
	"encoding/json"
	"testing"
)

func TestTypedAccessors(t *testing.T) {
	t.Run("PutRequest", func(t *testing.T) {
		req := NewPutRequest("A", "B").PutRequest()
		if req.Key != "A" || req.Value == nil || *req.Value != "B" {
			t.Errorf("unexpected put request: %s", req)
		}
	})

	t.Run("PutRequestEmptyValue", func(t *testing.T) {
		req := NewPutRequest("A", "").PutRequest()
		if req.Value == nil || *req.Value != "" {
			t.Errorf("empty value must be present, got %s", req)
		}
	})

	t.Run("PutRequestMissingValue", func(t *testing.T) {
		msg := &Message{MsgType: MsgTPut, Key: "A"}
		if req := msg.PutRequest(); req.Value != nil {
			t.Errorf("expected missing value, got %s", req)
		}
	})

	t.Run("GetResponseHit", func(t *testing.T) {
		v := "value"
		resp := NewGetResponse(&GetResponse{Status: StatusNone, Value: &v}).GetResponse()
		if resp.Value == nil || *resp.Value != v {
			t.Errorf("unexpected get response: %s", resp)
		}
	})

	t.Run("GetResponseMiss", func(t *testing.T) {
		resp := NewGetResponse(&GetResponse{Status: StatusNone}).GetResponse()
		if resp.Value != nil || resp.Status != StatusNone {
			t.Errorf("unexpected get response: %s", resp)
		}
	})

	t.Run("DeleteResponse", func(t *testing.T) {
		resp := NewDeleteResponse(&DeleteResponse{Deleted: true}).DeleteResponse()
		if !resp.Deleted {
			t.Errorf("expected deleted=true")
		}
	})
}

func TestStringers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"put", NewPutRequest("A", "B").PutRequest().String(), `PutRequest { key: "A" value: "B" }`},
		{"put missing value", (&PutRequest{Key: "A"}).String(), `PutRequest { key: "A" value: <unset> }`},
		{"get", (&GetRequest{Key: "A"}).String(), `GetRequest { key: "A" }`},
		{"delete response", (&DeleteResponse{Deleted: true}).String(), `DeleteResponse { status: NONE deleted: true }`},
		{"put response", (&PutResponse{Status: StatusInvalidRequestFormat}).String(), `PutResponse { status: INVALID_REQUEST_FORMAT }`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}

func TestEnumJSON(t *testing.T) {
	for _, status := range []ErrorStatus{StatusNone, StatusInvalidRequestFormat} {
		data, err := json.Marshal(status)
		if err != nil {
			t.Fatalf("marshal %s: %v", status, err)
		}
		var got ErrorStatus
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != status {
			t.Errorf("status %s became %s", status, got)
		}
	}

	for msgType := MsgTUnknown; msgType <= MsgTTimeout; msgType++ {
		data, err := json.Marshal(msgType)
		if err != nil {
			t.Fatalf("marshal %s: %v", msgType, err)
		}
		var got MessageType
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != msgType {
			t.Errorf("message type %s became %s", msgType, got)
		}
	}

	var status ErrorStatus
	if err := json.Unmarshal([]byte(`"BOGUS"`), &status); err == nil {
		t.Errorf("expected error for unknown status")
	}
}
