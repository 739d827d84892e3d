package server

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/serializer"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

// Interceptor wraps the handling of a single call. It must call next exactly
// once (unless it answers the call itself) and return the response bytes.
// Interceptors observe calls, they do not alter request or response bytes.
type Interceptor func(ctx context.Context, info transport.CallInfo, req []byte, next transport.ServerHandleFunc) []byte

// chain wraps handler with the interceptors, the first interceptor is the outermost
func chain(handler transport.ServerHandleFunc, interceptors ...Interceptor) transport.ServerHandleFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		interceptor, next := interceptors[i], handler
		handler = func(ctx context.Context, info transport.CallInfo, req []byte) []byte {
			return interceptor(ctx, info, req, next)
		}
	}
	return handler
}

// --------------------------------------------------------------------------
// Call metadata
// --------------------------------------------------------------------------

type callMetaKey struct{}

// callMeta is attached to the context of every call. Inner layers fill in
// what they learn (e.g. the operation) for the outer interceptors.
type callMeta struct {
	id uint64
	op common.MessageType
}

// prefix returns the log prefix identifying the call
func (c *callMeta) prefix() string {
	if c == nil || c.id == 0 {
		return ""
	}
	return fmt.Sprintf("[call %d] ", c.id)
}

// withCallMeta returns a context carrying a fresh callMeta for the call
func withCallMeta(ctx context.Context, info transport.CallInfo) (context.Context, *callMeta) {
	if call, ok := ctx.Value(callMetaKey{}).(*callMeta); ok {
		return ctx, call
	}
	call := &callMeta{id: info.RequestID}
	return context.WithValue(ctx, callMetaKey{}, call), call
}

// callFromContext returns the callMeta of the call, a detached one if there is none
func callFromContext(ctx context.Context) *callMeta {
	if call, ok := ctx.Value(callMetaKey{}).(*callMeta); ok {
		return call
	}
	return &callMeta{}
}

// --------------------------------------------------------------------------
// Interceptors
// --------------------------------------------------------------------------

// PeerLoggingInterceptor logs the remote peer of every call before it is handled
func PeerLoggingInterceptor() Interceptor {
	return func(ctx context.Context, info transport.CallInfo, req []byte, next transport.ServerHandleFunc) []byte {
		ctx, call := withCallMeta(ctx, info)
		Logger.Infof("%sReceived request from %s (%s)", call.prefix(), info.RemoteAddr, info.Transport)
		return next(ctx, info, req)
	}
}

// RecoveryInterceptor turns a panic in the call into an error response, so a
// single failing call never takes down the connection or the server.
// The response is encoded with s, because the panic may have happened before
// a response envelope existed.
func RecoveryInterceptor(s serializer.IRPCSerializer) Interceptor {
	return func(ctx context.Context, info transport.CallInfo, req []byte, next transport.ServerHandleFunc) (resp []byte) {
		ctx, call := withCallMeta(ctx, info)
		defer func() {
			if r := recover(); r != nil {
				Logger.Errorf("%sPanic while handling call from %s: %v\n%s", call.prefix(), info.RemoteAddr, r, debug.Stack())
				resp = encodeError(s, fmt.Sprintf("internal error: %v", r))
			}
		}()
		return next(ctx, info, req)
	}
}

// MetricsInterceptor counts calls and measures their duration per transport
// and operation:
//
//	kvrpc_rpc_calls_total{transport="tcp",op="put"}
//	kvrpc_rpc_call_duration_seconds{transport="tcp",op="put"}
func MetricsInterceptor(set *metrics.Set) Interceptor {
	return func(ctx context.Context, info transport.CallInfo, req []byte, next transport.ServerHandleFunc) []byte {
		ctx, call := withCallMeta(ctx, info)
		start := time.Now()

		resp := next(ctx, info, req)

		labels := fmt.Sprintf(`{transport=%q,op=%q}`, info.Transport, call.op)
		set.GetOrCreateCounter("kvrpc_rpc_calls_total" + labels).Inc()
		set.GetOrCreateHistogram("kvrpc_rpc_call_duration_seconds" + labels).UpdateDuration(start)
		return resp
	}
}

// encodeError serializes an error envelope, nil if even that fails
func encodeError(s serializer.IRPCSerializer, msg string) []byte {
	data, err := s.Serialize(*common.NewErrorResponse(msg))
	if err != nil {
		Logger.Errorf("Failed to serialize error response: %v", err)
		return nil
	}
	return data
}
