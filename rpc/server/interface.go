package server

import (
	"context"

	"github.com/ValentinKolb/kvrpc/rpc/common"
)

// IKeyValueService is the strongly typed key-value service. Each method
// validates its request, applies the simulated processing time and runs
// the store operation. Validation failures are reported in the response
// status, the error is only set if the call was cancelled.
type IKeyValueService interface {
	// Put stores the value under the key, overwriting any existing value
	Put(ctx context.Context, req *common.PutRequest) (*common.PutResponse, error)
	// Get returns the value stored under the key, the value is nil if there is none
	Get(ctx context.Context, req *common.GetRequest) (*common.GetResponse, error)
	// Delete removes the key and reports whether it existed
	Delete(ctx context.Context, req *common.DeleteRequest) (*common.DeleteResponse, error)
}

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle decodes the request envelope, calls the matching service method
	// and returns the response envelope.
	// If the call fails outside the service's status taxonomy, an error
	// envelope (common.MsgTError) is returned, or common.MsgTTimeout if the
	// deadline of the call passed.
	Handle(ctx context.Context, req *common.Message, service IKeyValueService) (resp *common.Message)
}
