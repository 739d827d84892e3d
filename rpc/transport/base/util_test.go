package base

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		requestID uint64
		timeout   int64
		data      []byte
		buf       []byte
	}{
		{"empty payload", 1, 0, []byte{}, nil},
		{"small payload", 2, int64(time.Second), []byte("hello"), nil},
		{"pooled buffer", 3, 0, bytes.Repeat([]byte("x"), 100), make([]byte, 1024)},
		{"buffer too small", 4, 42, bytes.Repeat([]byte("y"), 4096), make([]byte, 32)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- writeFrame(client, tc.requestID, tc.timeout, tc.data)
			}()

			header, data, err := readFrame(server, tc.buf)
			if err != nil {
				t.Fatalf("readFrame: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("writeFrame: %v", err)
			}

			if header.requestID != tc.requestID {
				t.Errorf("requestID = %d, want %d", header.requestID, tc.requestID)
			}
			if header.timeout != tc.timeout {
				t.Errorf("timeout = %d, want %d", header.timeout, tc.timeout)
			}
			if !bytes.Equal(data, tc.data) {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(data), len(tc.data))
			}
		})
	}
}

func TestFrameEmptyPayloadOverPipe(t *testing.T) {
	// net.Pipe is synchronous: every write blocks until it is read
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- writeFrame(client, 7, 0, nil)
	}()

	header, data, err := readFrame(server, nil)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("writeFrame: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("writeFrame did not return after the header was read")
	}
	if header.requestID != 7 || header.length != 0 || len(data) != 0 {
		t.Errorf("unexpected frame: %+v, %d bytes", header, len(data))
	}
}

func TestFrameDeadline(t *testing.T) {
	if _, ok := (frameHeader{}).deadlineTime(); ok {
		t.Errorf("zero timeout must mean no deadline")
	}

	if encodeTimeout(time.Now().Add(time.Second), false) != 0 {
		t.Errorf("missing deadline must encode as 0")
	}

	// the time left is sent, not the absolute deadline
	timeout := encodeTimeout(time.Now().Add(time.Second), true)
	if timeout <= int64(900*time.Millisecond) || timeout > int64(time.Second) {
		t.Errorf("timeout = %s, want about 1s", time.Duration(timeout))
	}

	// an expired deadline must still arrive as a deadline
	if expired := encodeTimeout(time.Now().Add(-time.Second), true); expired != 1 {
		t.Errorf("expired deadline encoded as %d, want 1", expired)
	}
}

func TestFrameDeadlineIgnoresClockSkew(t *testing.T) {
	// the sender's clock is an hour ahead of the receiver's
	skewedNow := time.Now().Add(time.Hour)
	senderDeadline := skewedNow.Add(500 * time.Millisecond)

	h := frameHeader{timeout: int64(senderDeadline.Sub(skewedNow))}
	before := time.Now()
	deadline, ok := h.deadlineTime()
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if left := deadline.Sub(before); left < 400*time.Millisecond || left > 600*time.Millisecond {
		t.Errorf("deadline is %s away on the receiver, want about 500ms", left)
	}
}

func TestReadFrameErrors(t *testing.T) {
	// truncated header
	if _, _, err := readFrame(bytes.NewReader([]byte{1, 2, 3}), nil); err != io.ErrUnexpectedEOF {
		t.Errorf("expected ErrUnexpectedEOF, got %v", err)
	}

	// header announcing more data than available
	header := make([]byte, headerSize)
	header[19] = 10
	if _, _, err := readFrame(bytes.NewReader(header), nil); err == nil {
		t.Errorf("expected error for truncated payload")
	}

	// oversized frame
	header = bytes.Repeat([]byte{0xff}, headerSize)
	if _, _, err := readFrame(bytes.NewReader(header), nil); err == nil {
		t.Errorf("expected error for oversized frame")
	}
}
