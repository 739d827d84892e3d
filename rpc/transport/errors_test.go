package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline", context.DeadlineExceeded, ErrKindTimeout},
		{"wrapped deadline", fmt.Errorf("waiting: %w", context.DeadlineExceeded), ErrKindTimeout},
		{"net timeout", &net.OpError{Op: "read", Err: os.ErrDeadlineExceeded}, ErrKindTimeout},
		{"refused", &net.OpError{Op: "dial", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}, ErrKindUnavailable},
		{"reset", fmt.Errorf("write: %w", syscall.ECONNRESET), ErrKindUnavailable},
		{"eof", io.EOF, ErrKindUnavailable},
		{"closed", net.ErrClosed, ErrKindUnavailable},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("no route")}, ErrKindUnavailable},
		{"canceled", context.Canceled, ErrKindOther},
		{"other", errors.New("boom"), ErrKindOther},
		{"already classified", NewError(ErrKindUnavailable, errors.New("x")), ErrKindUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Errorf("KindOf(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}

	if Classify(nil) != nil {
		t.Errorf("Classify(nil) must be nil")
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := NewError(ErrKindTimeout, context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected errors.Is to see the wrapped cause")
	}
	if err.Error() != "transport error (timeout): context deadline exceeded" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
