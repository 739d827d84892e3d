package client

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/serializer"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// NewRPCClient creates a new RPC client and connects the transport.
// An unreachable server is not an error here, the calls will fail with
// OutcomeTransportError instead.
//
// Usage:
//
//	c, err := client.NewRPCClient(
//		common.ClientConfig{Transport: common.ClientTransportConfig{Endpoints: []string{"localhost:8080"}}},
//		tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer(),
//	)
func NewRPCClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*RPCClient, error) {
	if config.Timeout <= 0 {
		config.Timeout = common.DefaultClientTimeout
	}

	// Connect the transport
	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &RPCClient{
		config:     config,
		transport:  transport,
		serializer: serializer,
		stats:      newSessionStats(),
	}, nil
}

// RPCClient sends key-value operations to a server. Every call is a single
// attempt bounded by the configured timeout, it is never retried.
// RPCClient is safe for concurrent use.
type RPCClient struct {
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
	stats      *sessionStats

	// nextCallID numbers the calls of this client for the log lines
	nextCallID atomic.Uint64
}

// Put stores value under key
func (c *RPCClient) Put(ctx context.Context, key, value string) error {
	req := common.NewPutRequest(key, value)
	call := c.newCall()
	Logger.Infof("%sSending %s", call, req.PutRequest())

	if _, err := c.invokeRPCRequest(ctx, call, req); err != nil {
		return err
	}

	Logger.Infof("%sThe value %s has been put under key %s", call, value, key)
	return nil
}

// Get returns the value stored under key. The bool is false if the key does not exist.
func (c *RPCClient) Get(ctx context.Context, key string) (string, bool, error) {
	req := common.NewGetRequest(key)
	call := c.newCall()
	Logger.Infof("%sSending %s", call, req.GetRequest())

	resp, err := c.invokeRPCRequest(ctx, call, req)
	if err != nil {
		return "", false, err
	}

	value := resp.GetResponse().Value
	if value == nil {
		Logger.Infof("%sThere is no value for key %s", call, key)
		return "", false, nil
	}
	Logger.Infof("%sValue is %s", call, *value)
	return *value, true, nil
}

// Delete removes key and reports whether it existed
func (c *RPCClient) Delete(ctx context.Context, key string) (bool, error) {
	req := common.NewDeleteRequest(key)
	call := c.newCall()
	Logger.Infof("%sSending %s", call, req.DeleteRequest())

	resp, err := c.invokeRPCRequest(ctx, call, req)
	if err != nil {
		return false, err
	}

	deleted := resp.DeleteResponse().Deleted
	if deleted {
		Logger.Infof("%sThe key %s has been deleted", call, key)
	} else {
		Logger.Infof("%sThe key %s did not exist", call, key)
	}
	return deleted, nil
}

// Stats returns a snapshot of the statistics of this client
func (c *RPCClient) Stats() Stats {
	return c.stats.snapshot()
}

// Close closes the transport
func (c *RPCClient) Close() error {
	c.stats.stop()
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// callPrefix identifies one call in the log lines of the client
type callPrefix string

// newCall returns the log prefix for the next call
func (c *RPCClient) newCall() callPrefix {
	return callPrefix(fmt.Sprintf("[call %d] ", c.nextCallID.Add(1)))
}

// invokeRPCRequest sends a request and returns the response envelope.
// The wait is bounded by the configured timeout. Every failure, including a
// status other than NONE, is logged, recorded and returned as a *CallError.
func (c *RPCClient) invokeRPCRequest(ctx context.Context, call callPrefix, req *common.Message) (resp *common.Message, err error) {
	start := time.Now()
	defer func() {
		c.stats.record(req.MsgType, start, OutcomeOf(err))
		if err != nil {
			logFailure(call, err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqBytes, err := c.serializer.Serialize(*req)
	if err != nil {
		return nil, protocolError(req.MsgType, fmt.Errorf("failed to serialize request: %w", err))
	}

	respBytes, err := c.transport.Send(ctx, reqBytes)
	if err != nil {
		return nil, transportError(req.MsgType, err)
	}

	resp = &common.Message{}
	if err := c.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, protocolError(req.MsgType, fmt.Errorf("failed to deserialize response: %w", err))
	}

	// The server gave up because the deadline of the call passed
	if resp.MsgType == common.MsgTTimeout || (resp.MsgType == common.MsgTError && errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		return nil, timeoutError(req.MsgType, fmt.Errorf("server: %s", resp.Err))
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError || resp.Err != "" {
		return nil, protocolError(req.MsgType, fmt.Errorf("server error: %s", resp.Err))
	}

	// Check if the type of the response is the expected type
	if resp.MsgType != req.MsgType {
		return nil, protocolError(req.MsgType, fmt.Errorf("unexpected message type: %s, expected %s", resp.MsgType, req.MsgType))
	}

	Logger.Infof("%sReceived %s", call, describeResponse(resp))

	if resp.Status != common.StatusNone {
		return nil, logicalError(req.MsgType, resp.Status)
	}
	return resp, nil
}

// describeResponse renders the typed view of a response envelope
func describeResponse(resp *common.Message) fmt.Stringer {
	switch resp.MsgType {
	case common.MsgTPut:
		return resp.PutResponse()
	case common.MsgTGet:
		return resp.GetResponse()
	default:
		return resp.DeleteResponse()
	}
}

// logFailure logs a failed call in the client's log format
func logFailure(call callPrefix, err error) {
	callErr, ok := err.(*CallError)
	if !ok {
		Logger.Errorf("%s%v", call, err)
		return
	}

	op := opName(callErr.Op)
	switch callErr.Outcome {
	case OutcomeLogicalError:
		if callErr.Status == common.StatusInvalidRequestFormat {
			Logger.Errorf("%s%s failed due to invalid request", call, op)
		} else {
			Logger.Errorf("%s%s failed with error status code %s", call, op, callErr.Status)
		}
	case OutcomeTimedOut:
		Logger.Errorf("%s%s timed out waiting for response", call, op)
	default:
		if callErr.Kind == transport.ErrKindUnavailable {
			Logger.Errorf("%s%s failed because server is unavailable", call, op)
		} else {
			Logger.Errorf("%s%s failed with error %v", call, op, callErr.Err)
		}
	}
}
