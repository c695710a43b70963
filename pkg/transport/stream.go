package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
)

// Stream framing constants.
const (
	// LengthPrefixSize is the size of the big-endian length prefix on each frame.
	LengthPrefixSize = 4

	// DefaultMaxFrameSize is the default limit on a single framed message.
	DefaultMaxFrameSize = 1 << 20
)

// FramedConn turns a byte stream (TCP, L2CAP, a serial link) into a
// message-oriented net.Conn. Each Write sends one frame prefixed with its
// 4-byte big-endian length, and each Read returns exactly one frame.
//
// Reads and writes may run concurrently with each other. Concurrent writes
// are serialised so frames never interleave.
type FramedConn struct {
	net.Conn
	maxFrameSize int

	readMu  sync.Mutex
	writeMu sync.Mutex
}

// NewFramedConn wraps a stream connection.
// maxFrameSize limits frames in both directions (0 uses DefaultMaxFrameSize).
func NewFramedConn(conn net.Conn, maxFrameSize int) *FramedConn {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &FramedConn{Conn: conn, maxFrameSize: maxFrameSize}
}

// MaxFrameSize returns the frame size limit.
func (c *FramedConn) MaxFrameSize() int {
	return c.maxFrameSize
}

// Write sends b as a single frame.
func (c *FramedConn) Write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, ErrInvalidLengthPrefix
	}
	if len(b) > c.maxFrameSize {
		return 0, ErrMessageTooLarge
	}

	buf := make([]byte, LengthPrefixSize+len(b))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(b)))
	copy(buf[LengthPrefixSize:], b)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.Conn.Write(buf); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Read reads the next frame into b.
//
// A frame larger than b is consumed and discarded, and ErrShortBuffer is
// returned, so the stream stays aligned on frame boundaries.
func (c *FramedConn) Read(b []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	var lenBuf [LengthPrefixSize]byte
	if _, err := io.ReadFull(c.Conn, lenBuf[:]); err != nil {
		return 0, err
	}

	frameLen := binary.BigEndian.Uint32(lenBuf[:])
	if frameLen == 0 {
		return 0, ErrInvalidLengthPrefix
	}
	if uint64(frameLen) > uint64(c.maxFrameSize) {
		return 0, ErrMessageTooLarge
	}

	if int(frameLen) > len(b) {
		if _, err := io.CopyN(io.Discard, c.Conn, int64(frameLen)); err != nil {
			return 0, err
		}
		return 0, ErrShortBuffer
	}

	n, err := io.ReadFull(c.Conn, b[:frameLen])
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return n, err
	}
	return n, nil
}

// Verify FramedConn implements net.Conn.
var _ net.Conn = (*FramedConn)(nil)
