package session

import (
	"errors"
	"fmt"
)

// Session package errors.
//
// Seal, Open and New report one of four kinds, tested with errors.Is:
// ErrKeyDerivation, ErrAuthentication, ErrMalformedCiphertext and
// ErrSessionExhausted. ErrSessionClosed is returned after Close.
var (
	// ErrKeyDerivation is returned by New when the session keys cannot be derived.
	// The session is not created.
	ErrKeyDerivation = errors.New("session: key derivation failed")

	// ErrAuthentication is returned when an inbound message's tag does not verify.
	// This covers tampering, a wrong key, and replayed or reordered messages.
	ErrAuthentication = errors.New("session: authentication failed")

	// ErrMalformedCiphertext is returned when an inbound message is not a
	// SessionData map carrying a byte string of at least one tag length.
	ErrMalformedCiphertext = errors.New("session: malformed ciphertext")

	// ErrSessionExhausted is returned when a direction's counter has been used up.
	// The session must be re-established when this occurs.
	ErrSessionExhausted = errors.New("session: message counter exhausted")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("session: session closed")

	// ErrInvalidRole is returned when the configured role is not Reader or Endpoint.
	ErrInvalidRole = errors.New("session: invalid session role")

	// ErrInvalidKeyLength is returned when the key length is not 16, 24 or 32.
	ErrInvalidKeyLength = fmt.Errorf("%w: key length must be 16, 24 or 32 bytes", ErrKeyDerivation)

	// ErrEmptySharedSecret is returned when the shared secret is empty.
	ErrEmptySharedSecret = fmt.Errorf("%w: empty shared secret", ErrKeyDerivation)

	// ErrEmptySalt is returned when the salt is empty.
	ErrEmptySalt = fmt.Errorf("%w: empty salt", ErrKeyDerivation)

	// ErrSessionNotFound is returned when a session lookup fails.
	ErrSessionNotFound = errors.New("session: session not found")

	// ErrSessionTableFull is returned when no more sessions can be allocated.
	ErrSessionTableFull = errors.New("session: session table full")

	// ErrSessionIDExhausted is returned when no more session handles are available.
	ErrSessionIDExhausted = errors.New("session: session ID space exhausted")

	// ErrNilConn is returned when a SecureConn is created without a session or connection.
	ErrNilConn = errors.New("session: nil session or connection")

	// ErrMessageTooLarge is returned when an outbound message exceeds the
	// SecureConn's maximum message size.
	ErrMessageTooLarge = errors.New("session: message too large")
)
