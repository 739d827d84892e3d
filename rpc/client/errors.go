package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvrpc/rpc/common"
	"github.com/ValentinKolb/kvrpc/rpc/transport"
)

// Outcome is the terminal state of a client call
type Outcome uint8

const (
	// OutcomePending is the state of a call that has not completed yet
	OutcomePending Outcome = iota
	// OutcomeSucceeded means the server answered with status NONE
	OutcomeSucceeded
	// OutcomeLogicalError means the server answered with a status other than NONE
	OutcomeLogicalError
	// OutcomeTransportError means no valid response arrived (unavailable, protocol error, ...)
	OutcomeTransportError
	// OutcomeTimedOut means no response arrived before the deadline
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeSucceeded:
		return "SUCCEEDED"
	case OutcomeLogicalError:
		return "LOGICAL_ERROR"
	case OutcomeTransportError:
		return "TRANSPORT_ERROR"
	case OutcomeTimedOut:
		return "TIMED_OUT"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

// CallError is returned for every call that did not succeed
type CallError struct {
	// Op is the operation of the call
	Op common.MessageType
	// Outcome is OutcomeLogicalError, OutcomeTransportError or OutcomeTimedOut
	Outcome Outcome
	// Kind classifies transport errors, only meaningful for OutcomeTransportError and OutcomeTimedOut
	Kind transport.ErrorKind
	// Status is the status returned by the server, only meaningful for OutcomeLogicalError
	Status common.ErrorStatus
	// Err is the underlying error, nil for logical errors
	Err error
}

func (e *CallError) Error() string {
	op := opName(e.Op)
	switch e.Outcome {
	case OutcomeLogicalError:
		return fmt.Sprintf("%s failed: %s (%s)", op, e.Status.Cause(), e.Status)
	case OutcomeTimedOut:
		return fmt.Sprintf("%s timed out: %v", op, e.Err)
	default:
		return fmt.Sprintf("%s failed (%s): %v", op, e.Kind, e.Err)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// OutcomeOf returns the outcome of a call from its error: OutcomeSucceeded
// for nil, the recorded outcome for a *CallError and OutcomeTransportError
// for any other error.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSucceeded
	}
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Outcome
	}
	return OutcomeTransportError
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// opName is the name of an operation used in log messages (PUT, GET, DELETE)
func opName(op common.MessageType) string {
	return strings.ToUpper(op.String())
}

// transportError classifies a transport failure of op
func transportError(op common.MessageType, err error) *CallError {
	kind := transport.KindOf(err)
	outcome := OutcomeTransportError
	if kind == transport.ErrKindTimeout {
		outcome = OutcomeTimedOut
	}
	return &CallError{Op: op, Outcome: outcome, Kind: kind, Err: err}
}

// timeoutError reports a call the server aborted because its deadline passed
func timeoutError(op common.MessageType, err error) *CallError {
	return &CallError{Op: op, Outcome: OutcomeTimedOut, Kind: transport.ErrKindTimeout, Err: err}
}

// protocolError reports a response that could not be understood
func protocolError(op common.MessageType, err error) *CallError {
	return &CallError{Op: op, Outcome: OutcomeTransportError, Kind: transport.ErrKindOther, Err: err}
}

// logicalError reports a response with a status other than NONE
func logicalError(op common.MessageType, status common.ErrorStatus) *CallError {
	return &CallError{Op: op, Outcome: OutcomeLogicalError, Status: status}
}
