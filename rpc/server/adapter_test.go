package server

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/kvrpc/lib/store/lstore"
	"github.com/ValentinKolb/kvrpc/rpc/common"
)

func TestKeyValueServerAdapter(t *testing.T) {
	ctx := context.Background()
	adapter := NewKeyValueServerAdapter()
	service := NewKeyValueService(lstore.NewLocalStore(), 0)

	tests := []struct {
		name  string
		req   *common.Message
		check func(t *testing.T, resp *common.Message)
	}{
		{"put", common.NewPutRequest("A", "B"), func(t *testing.T, resp *common.Message) {
			if resp.MsgType != common.MsgTPut || resp.PutResponse().Status != common.StatusNone {
				t.Errorf("unexpected response: %+v", resp)
			}
		}},
		{"get", common.NewGetRequest("A"), func(t *testing.T, resp *common.Message) {
			got := resp.GetResponse()
			if resp.MsgType != common.MsgTGet || got.Value == nil || *got.Value != "B" {
				t.Errorf("unexpected response: %s", got)
			}
		}},
		{"put missing value", &common.Message{MsgType: common.MsgTPut, Key: "A"}, func(t *testing.T, resp *common.Message) {
			if resp.PutResponse().Status != common.StatusInvalidRequestFormat {
				t.Errorf("expected INVALID_REQUEST_FORMAT, got %s", resp.Status)
			}
		}},
		{"value unchanged", common.NewGetRequest("A"), func(t *testing.T, resp *common.Message) {
			if got := resp.GetResponse(); got.Value == nil || *got.Value != "B" {
				t.Errorf("malformed put changed the store: %s", got)
			}
		}},
		{"delete", common.NewDeleteRequest("A"), func(t *testing.T, resp *common.Message) {
			if resp.MsgType != common.MsgTDelete || !resp.DeleteResponse().Deleted {
				t.Errorf("unexpected response: %+v", resp)
			}
		}},
		{"unknown type", &common.Message{MsgType: common.MessageType(200)}, func(t *testing.T, resp *common.Message) {
			if resp.MsgType != common.MsgTError || resp.Err == "" {
				t.Errorf("expected error envelope, got %+v", resp)
			}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, adapter.Handle(ctx, tc.req, service))
		})
	}
}

func TestKeyValueServerAdapterCancelled(t *testing.T) {
	adapter := NewKeyValueServerAdapter()
	service := NewKeyValueService(lstore.NewLocalStore(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := adapter.Handle(ctx, common.NewPutRequest("A", "B"), service)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error envelope for cancelled call, got %+v", resp)
	}
}

func TestKeyValueServerAdapterDeadlineExceeded(t *testing.T) {
	adapter := NewKeyValueServerAdapter()
	service := NewKeyValueService(lstore.NewLocalStore(), time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	resp := adapter.Handle(ctx, common.NewPutRequest("A", "B"), service)
	if resp.MsgType != common.MsgTTimeout {
		t.Errorf("expected timeout envelope for expired call, got %+v", resp)
	}
	if resp.Err == "" {
		t.Errorf("timeout envelope must carry the reason")
	}
}

func TestKeyValueServerAdapterNilService(t *testing.T) {
	resp := NewKeyValueServerAdapter().Handle(context.Background(), common.NewGetRequest("A"), nil)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error envelope, got %+v", resp)
	}
}
