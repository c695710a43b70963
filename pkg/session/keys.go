package session

import (
	"fmt"

	"github.com/backkem/mdocsession/pkg/crypto"
)

// HKDF info labels. Plain ASCII with no trailing NUL.
const (
	readerKeyInfo = "SKReader"
	deviceKeyInfo = "SKDevice"
)

// SessionKeys holds the two derived session keys.
type SessionKeys struct {
	// Reader is SKReader. It protects reader-to-mdoc messages.
	Reader []byte

	// Device is SKDevice. It protects mdoc-to-reader messages.
	Device []byte
}

// DeriveKeys derives SKReader and SKDevice from the ECDH shared secret and
// the session transcript salt:
//
//	SKReader = HKDF-SHA-256(salt, sharedSecret, "SKReader", keyLength)
//	SKDevice = HKDF-SHA-256(salt, sharedSecret, "SKDevice", keyLength)
//
// keyLength must be 16, 24 or 32. All failures wrap ErrKeyDerivation.
func DeriveKeys(sharedSecret, salt []byte, keyLength int) (*SessionKeys, error) {
	if len(sharedSecret) == 0 {
		return nil, ErrEmptySharedSecret
	}
	if len(salt) == 0 {
		return nil, ErrEmptySalt
	}
	if !crypto.ValidAESKeySize(keyLength) {
		return nil, ErrInvalidKeyLength
	}

	reader, err := crypto.HKDFSHA256(sharedSecret, salt, []byte(readerKeyInfo), keyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}

	device, err := crypto.HKDFSHA256(sharedSecret, salt, []byte(deviceKeyInfo), keyLength)
	if err != nil {
		crypto.Zeroize(reader)
		return nil, fmt.Errorf("%w: %w", ErrKeyDerivation, err)
	}

	return &SessionKeys{Reader: reader, Device: device}, nil
}

// Zeroize overwrites both keys.
func (k *SessionKeys) Zeroize() {
	if k == nil {
		return
	}
	crypto.Zeroize(k.Reader)
	crypto.Zeroize(k.Device)
}
