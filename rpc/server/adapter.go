package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/ValentinKolb/kvrpc/rpc/common"
)

// NewKeyValueServerAdapter creates the adapter translating message envelopes
// into calls of an IKeyValueService
func NewKeyValueServerAdapter() IRPCServerAdapter {
	return &keyValueServerAdapter{}
}

type keyValueServerAdapter struct{}

func (adapter *keyValueServerAdapter) Handle(ctx context.Context, req *common.Message, service IKeyValueService) *common.Message {
	if service == nil {
		return common.NewErrorResponse("handler: service is nil")
	}

	call := callFromContext(ctx)
	call.op = req.MsgType

	switch req.MsgType {
	case common.MsgTPut:
		typed := req.PutRequest()
		Logger.Infof("%sReceived %s", call.prefix(), typed)
		resp, err := service.Put(ctx, typed)
		if err != nil {
			return adapter.failed(call, req.MsgType, err)
		}
		Logger.Infof("%sSending %s", call.prefix(), resp)
		return common.NewPutResponse(resp)

	case common.MsgTGet:
		typed := req.GetRequest()
		Logger.Infof("%sReceived %s", call.prefix(), typed)
		resp, err := service.Get(ctx, typed)
		if err != nil {
			return adapter.failed(call, req.MsgType, err)
		}
		Logger.Infof("%sSending %s", call.prefix(), resp)
		return common.NewGetResponse(resp)

	case common.MsgTDelete:
		typed := req.DeleteRequest()
		Logger.Infof("%sReceived %s", call.prefix(), typed)
		resp, err := service.Delete(ctx, typed)
		if err != nil {
			return adapter.failed(call, req.MsgType, err)
		}
		Logger.Infof("%sSending %s", call.prefix(), resp)
		return common.NewDeleteResponse(resp)

	default:
		Logger.Warningf("%sUnsupported message type: %s", call.prefix(), req.MsgType)
		return common.NewErrorResponse(fmt.Sprintf("unsupported message type: %s", req.MsgType))
	}
}

// failed builds the envelope for a call that did not complete. A call that
// ran out of time is answered with a timeout envelope, so the client reports
// it as timed out even if its own clock has not reached the deadline yet.
func (adapter *keyValueServerAdapter) failed(call *callMeta, op common.MessageType, err error) *common.Message {
	Logger.Warningf("%s%s aborted: %v", call.prefix(), op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewTimeoutResponse(fmt.Sprintf("%s aborted: %v", op, err))
	}
	return common.NewErrorResponse(fmt.Sprintf("%s aborted: %v", op, err))
}
