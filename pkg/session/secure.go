package session

import (
	"errors"
	"fmt"

	"github.com/backkem/mdocsession/pkg/crypto"
	"github.com/backkem/mdocsession/pkg/envelope"
	"github.com/pion/logging"
)

// SecureSession holds the state of an established mdoc secure session:
// the role, the outbound channel used by Seal and the inbound channel used
// by Open.
//
// For a reader the outbound channel uses SKReader with IV mode 0 and the
// inbound channel uses SKDevice with IV mode 1. An endpoint swaps them.
type SecureSession struct {
	role      Role
	keyLength int

	outbound *Channel
	inbound  *Channel

	closed bool

	log logging.LeveledLogger
}

// New derives the session keys from sharedSecret and salt and returns a
// ready session. Neither input is retained.
//
// Returns an error wrapping ErrKeyDerivation if the keys cannot be derived,
// including a KeyLength that is not 16, 24 or 32, and ErrInvalidRole for an
// unknown role. No session exists on error.
func New(sharedSecret, salt []byte, config Config) (*SecureSession, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	keys, err := DeriveKeys(sharedSecret, salt, config.KeyLength)
	if err != nil {
		return nil, err
	}

	// Outbound uses the key of the local role, inbound the key of the peer.
	outKey, inKey := keys.Reader, keys.Device
	if config.Role == RoleEndpoint {
		outKey, inKey = keys.Device, keys.Reader
	}

	outbound, err := newChannel(config.Role.outboundMode(), outKey)
	if err != nil {
		keys.Zeroize()
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}
	inbound, err := newChannel(config.Role.inboundMode(), inKey)
	if err != nil {
		keys.Zeroize()
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}

	s := &SecureSession{
		role:      config.Role,
		keyLength: config.KeyLength,
		outbound:  outbound,
		inbound:   inbound,
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger(loggerScope)
	}

	if s.log != nil {
		s.log.Debugf("session established: role=%s keyLength=%d", s.role, s.keyLength)
	}
	return s, nil
}

// Role returns the local role.
func (s *SecureSession) Role() Role {
	return s.role
}

// KeyLength returns the session key length in bytes.
func (s *SecureSession) KeyLength() int {
	return s.keyLength
}

// OutboundCounter returns the counter the next Seal will use.
func (s *SecureSession) OutboundCounter() uint32 {
	return s.outbound.Counter()
}

// InboundCounter returns the counter the next Open expects.
func (s *SecureSession) InboundCounter() uint32 {
	return s.inbound.Counter()
}

// OutboundIV returns a copy of the IV the next Seal will use.
func (s *SecureSession) OutboundIV() []byte {
	return s.outbound.IV()
}

// InboundIV returns a copy of the IV the next Open expects.
func (s *SecureSession) InboundIV() []byte {
	return s.inbound.IV()
}

// OutboundExhausted reports whether Seal can no longer be used.
func (s *SecureSession) OutboundExhausted() bool {
	return s.outbound.Exhausted()
}

// InboundExhausted reports whether Open can no longer be used.
func (s *SecureSession) InboundExhausted() bool {
	return s.inbound.Exhausted()
}

// Seal encrypts plaintext with the outbound channel and wraps the result as
// a SessionData map { "data": ciphertext || tag }.
//
// The outbound counter advances only when wire bytes are returned.
// Returns ErrSessionExhausted once the outbound counter is used up.
func (s *SecureSession) Seal(plaintext []byte) ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}

	ciphertext, err := s.outbound.seal(plaintext)
	if err != nil {
		if s.log != nil {
			s.log.Debugf("seal failed: counter=%d err=%v", s.outbound.Counter(), err)
		}
		return nil, err
	}

	wire, err := envelope.Encode(ciphertext)
	if err != nil {
		return nil, err
	}

	if s.log != nil {
		s.log.Tracef("sealed message: counter=%d plaintextLen=%d wireLen=%d",
			s.outbound.Counter(), len(plaintext), len(wire))
	}
	s.outbound.advance()
	return wire, nil
}

// Open decodes a SessionData map and decrypts its data with the inbound
// channel.
//
// Errors:
//   - ErrMalformedCiphertext: not a SessionData map, no byte string "data",
//     or data shorter than the tag. A status-only message also reports this
//     kind, wrapping an *envelope.StatusError that carries the status.
//   - ErrAuthentication: the tag did not verify under the expected IV. This
//     includes replayed, reordered and tampered messages.
//   - ErrSessionExhausted: the inbound counter is used up.
//
// The inbound counter advances only when plaintext is returned.
func (s *SecureSession) Open(wire []byte) ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.inbound.Exhausted() {
		return nil, ErrSessionExhausted
	}

	sd, err := envelope.Decode(wire)
	if err != nil {
		s.logOpenFailure("decode", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformedCiphertext, err)
	}
	if !sd.HasData() {
		statusErr := &envelope.StatusError{Status: *sd.Status}
		s.logOpenFailure("status", statusErr)
		return nil, fmt.Errorf("%w: %w", ErrMalformedCiphertext, statusErr)
	}
	if len(sd.Data) < crypto.AESGCMTagSize {
		s.logOpenFailure("length", crypto.ErrGCMCiphertextTooShort)
		return nil, fmt.Errorf("%w: %w", ErrMalformedCiphertext, crypto.ErrGCMCiphertextTooShort)
	}

	plaintext, err := s.inbound.open(sd.Data)
	if err != nil {
		s.logOpenFailure("open", err)
		if errors.Is(err, crypto.ErrGCMAuthFailed) {
			return nil, ErrAuthentication
		}
		return nil, err
	}
	if plaintext == nil {
		plaintext = []byte{}
	}

	if s.log != nil {
		s.log.Tracef("opened message: counter=%d plaintextLen=%d", s.inbound.Counter(), len(plaintext))
		if sd.Status != nil {
			s.log.Debugf("peer attached status %d (%s)", uint64(*sd.Status), *sd.Status)
		}
	}
	s.inbound.advance()
	return plaintext, nil
}

func (s *SecureSession) logOpenFailure(stage string, err error) {
	if s.log != nil {
		s.log.Debugf("open failed: stage=%s counter=%d err=%v", stage, s.inbound.Counter(), err)
	}
}

// Terminate closes the session and returns a { "status": 20 } message to
// send to the peer.
func (s *SecureSession) Terminate() ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	msg, err := envelope.EncodeStatus(envelope.StatusSessionTermination)
	if err != nil {
		return nil, err
	}
	s.Close()
	return msg, nil
}

// Close zeroizes both session keys. Later Seal and Open calls return
// ErrSessionClosed. Close is idempotent.
//
// Only the raw key buffers are overwritten. The AES key schedule inside the
// cipher.AEAD of each channel is not reachable from this package; Close
// drops the reference and leaves that memory to the garbage collector.
//
// Close must not run concurrently with Seal or Open on the same session.
func (s *SecureSession) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.outbound.zeroize()
	s.inbound.zeroize()

	if s.log != nil {
		s.log.Debugf("session closed: role=%s", s.role)
	}
}

// Closed reports whether Close has been called.
func (s *SecureSession) Closed() bool {
	return s.closed
}
