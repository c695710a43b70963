package transport

import "errors"

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrInvalidLengthPrefix is returned when a stream frame declares a zero length.
	ErrInvalidLengthPrefix = errors.New("transport: invalid length prefix")

	// ErrMessageTooLarge is returned when a message exceeds the maximum size.
	ErrMessageTooLarge = errors.New("transport: message too large")

	// ErrShortBuffer is returned when a Read buffer cannot hold the next message.
	// The message is discarded.
	ErrShortBuffer = errors.New("transport: read buffer too small for message")
)
