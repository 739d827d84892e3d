package server

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/serializer"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

var testInfo = transport.CallInfo{RequestID: 7, RemoteAddr: "127.0.0.1:5000", Transport: "tcp"}

func TestChainOrder(t *testing.T) {
	var order []string
	record := func(name string) Interceptor {
		return func(ctx context.Context, info transport.CallInfo, req []byte, next transport.ServerHandleFunc) []byte {
			order = append(order, name+" in")
			resp := next(ctx, info, req)
			order = append(order, name+" out")
			return resp
		}
	}

	handler := chain(func(ctx context.Context, info transport.CallInfo, req []byte) []byte {
		order = append(order, "handler")
		return req
	}, record("a"), record("b"))

	resp := handler(context.Background(), testInfo, []byte("payload"))
	if string(resp) != "payload" {
		t.Errorf("response altered: %q", resp)
	}

	want := "a in,b in,handler,b out,a out"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestPeerLoggingInterceptor(t *testing.T) {
	req := []byte{1, 2, 3}
	var sawMeta bool

	handler := chain(func(ctx context.Context, info transport.CallInfo, got []byte) []byte {
		sawMeta = callFromContext(ctx).id == info.RequestID
		return got
	}, PeerLoggingInterceptor())

	if resp := handler(context.Background(), testInfo, req); !bytes.Equal(resp, req) {
		t.Errorf("interceptor altered the bytes: %v", resp)
	}
	if !sawMeta {
		t.Errorf("call metadata not attached to the context")
	}
}

func TestRecoveryInterceptor(t *testing.T) {
	s := serializer.NewBinarySerializer()

	handler := chain(func(ctx context.Context, info transport.CallInfo, req []byte) []byte {
		panic("boom")
	}, RecoveryInterceptor(s))

	resp := handler(context.Background(), testInfo, nil)

	var msg common.Message
	if err := s.Deserialize(resp, &msg); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if msg.MsgType != common.MsgTError || !strings.Contains(msg.Err, "boom") {
		t.Errorf("expected error envelope mentioning the panic, got %+v", msg)
	}
}

func TestMetricsInterceptor(t *testing.T) {
	set := metrics.NewSet()

	handler := chain(func(ctx context.Context, info transport.CallInfo, req []byte) []byte {
		callFromContext(ctx).op = common.MsgTGet
		return req
	}, MetricsInterceptor(set), PeerLoggingInterceptor())

	for i := 0; i < 3; i++ {
		handler(context.Background(), testInfo, nil)
	}

	var buf bytes.Buffer
	set.WritePrometheus(&buf)
	out := buf.String()

	if !strings.Contains(out, `kvrpc_rpc_calls_total{transport="tcp",op="get"} 3`) {
		t.Errorf("call counter missing:\n%s", out)
	}
	if !strings.Contains(out, `kvrpc_rpc_call_duration_seconds`) {
		t.Errorf("duration histogram missing:\n%s", out)
	}
}
