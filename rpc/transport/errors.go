package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ErrorKind classifies a transport failure
type ErrorKind uint8

const (
	// ErrKindOther is any failure that is neither a timeout nor an unreachable peer
	ErrKindOther ErrorKind = iota
	// ErrKindUnavailable means the peer could not be reached or the connection broke
	ErrKindUnavailable
	// ErrKindTimeout means no response arrived before the deadline
	ErrKindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindUnavailable:
		return "unavailable"
	case ErrKindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Error is returned by client transports for every failed call
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the ErrorKind of err. Errors that are not a *Error are
// classified by their cause (see Classify).
func KindOf(err error) ErrorKind {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Kind
	}
	return Classify(err).Kind
}

// Classify maps a network or context error to a transport *Error.
// It returns nil for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return NewError(ErrKindTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(ErrKindTimeout, err)
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) {
		return NewError(ErrKindUnavailable, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return NewError(ErrKindUnavailable, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewError(ErrKindUnavailable, err)
	}

	return NewError(ErrKindOther, err)
}
