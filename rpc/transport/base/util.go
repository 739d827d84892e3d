package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	// headerSize is the size of the frame header in bytes
	headerSize = 20
	// maxFrameSize limits the payload of a single frame
	maxFrameSize = 64 << 20
)

// frameHeader is the decoded header of a frame
type frameHeader struct {
	requestID uint64
	// timeout is the time left for the call in nanoseconds, 0 if it has no deadline.
	// It is relative, so the clocks of client and server need not agree.
	timeout int64
	length  uint32
}

// deadlineTime returns the deadline of the call on the local clock, measured
// from now, and whether one is set
func (h frameHeader) deadlineTime() (time.Time, bool) {
	if h.timeout <= 0 {
		return time.Time{}, false
	}
	return time.Now().Add(time.Duration(h.timeout)), true
}

// encodeTimeout converts a context deadline into the time left for the call.
// A deadline that already passed is sent as 1ns, since 0 means none.
func encodeTimeout(deadline time.Time, ok bool) int64 {
	if !ok {
		return 0
	}
	return max(int64(time.Until(deadline)), 1)
}

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: requestID (uint64, big endian)
// - 8 bytes: timeout (int64 nanoseconds left, big endian, 0 = none)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: data payload
func writeFrame(conn net.Conn, requestID uint64, timeout int64, data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("frame too large: %d bytes", len(data))
	}

	header := make([]byte, headerSize)
	binary.BigEndian.PutUint64(header[:8], requestID)
	binary.BigEndian.PutUint64(header[8:16], uint64(timeout))
	binary.BigEndian.PutUint32(header[16:20], uint32(len(data)))

	// a zero length write still blocks on synchronous connections like net.Pipe
	if len(data) == 0 {
		_, err := conn.Write(header)
		return err
	}

	b := net.Buffers{header, data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer.
// If the buffer is too small, a new buffer is allocated for the data.
// The returned data may alias buf.
func readFrame(conn io.Reader, buf []byte) (frameHeader, []byte, error) {
	if len(buf) < headerSize {
		buf = make([]byte, headerSize)
	}

	// Read header
	if _, err := io.ReadFull(conn, buf[:headerSize]); err != nil {
		return frameHeader{}, nil, err
	}

	header := frameHeader{
		requestID: binary.BigEndian.Uint64(buf[:8]),
		timeout:   int64(binary.BigEndian.Uint64(buf[8:16])),
		length:    binary.BigEndian.Uint32(buf[16:20]),
	}

	if header.length == 0 {
		return header, []byte{}, nil
	}
	if header.length > maxFrameSize {
		return frameHeader{}, nil, fmt.Errorf("frame too large: %d bytes", header.length)
	}

	// Check if buffer is large enough for data
	if len(buf) < int(header.length) {
		buf = make([]byte, header.length)
	}

	if _, err := io.ReadFull(conn, buf[:header.length]); err != nil {
		return frameHeader{}, nil, err
	}

	return header, buf[:header.length], nil
}
