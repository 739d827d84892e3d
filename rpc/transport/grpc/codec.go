package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

const (
	// codecName is announced in the content-subtype of every call
	codecName = "kvrpc-raw"

	serviceName    = "kvrpc.Transport"
	callMethodName = "Call"
	callMethod     = "/" + serviceName + "/" + callMethodName
)

// frame carries an already serialized message through gRPC
type frame struct {
	data []byte
}

// rawCodec passes frames through unchanged. Messages are serialized by the
// RPC layer's serializer, gRPC only transports the bytes.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*frame)
	if !ok {
		return nil, fmt.Errorf("%s codec: unexpected type %T", codecName, v)
	}
	return f.data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*frame)
	if !ok {
		return fmt.Errorf("%s codec: unexpected type %T", codecName, v)
	}
	// gRPC may reuse the receive buffer
	f.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string {
	return codecName
}

// --------------------------------------------------------------------------
// Service description
// --------------------------------------------------------------------------

// callHandler is implemented by the server transport
type callHandler interface {
	call(ctx context.Context, req *frame) (*frame, error)
}

func callMethodHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(frame)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(callHandler).call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: callMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(callHandler).call(ctx, req.(*frame))
	}
	return interceptor(ctx, in, info, handler)
}

// serviceDesc describes the single unary method carrying all calls
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*callHandler)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: callMethodName,
			Handler:    callMethodHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kvrpc/transport.proto",
}
