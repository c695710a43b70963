// AES-GCM for ISO/IEC 18013-5 session encryption.
// Session messages use AES-GCM with:
//   - Key length: 128, 192 or 256 bits
//   - Tag length: 128 bits (16 bytes), appended to the ciphertext
//   - Nonce length: 96 bits (12 bytes)
//   - Empty additional authenticated data

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// AES-GCM constants.
const (
	// AESGCMTagSize is the authentication tag size in bytes.
	AESGCMTagSize = 16

	// AESGCMNonceSize is the nonce size in bytes.
	AESGCMNonceSize = 12
)

// Errors
var (
	ErrGCMInvalidKeySize     = errors.New("aesgcm: invalid key size, must be 16, 24 or 32 bytes")
	ErrGCMInvalidNonceSize   = errors.New("aesgcm: invalid nonce size, must be 12 bytes")
	ErrGCMCiphertextTooShort = errors.New("aesgcm: ciphertext too short")
	ErrGCMAuthFailed         = errors.New("aesgcm: message authentication failed")
)

// ValidAESKeySize reports whether n is an AES key length in bytes.
func ValidAESKeySize(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// AESGCM is an AES-GCM AEAD bound to one key.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM creates an AES-GCM cipher for a 16, 24 or 32 byte key.
// The key is expanded into the block cipher schedule; the caller keeps
// ownership of the key slice.
func NewAESGCM(key []byte) (*AESGCM, error) {
	if !ValidAESKeySize(len(key)) {
		return nil, ErrGCMInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCMWithTagSize(block, AESGCMTagSize)
	if err != nil {
		return nil, err
	}

	return &AESGCM{aead: aead}, nil
}

// NonceSize returns the required nonce size.
func (c *AESGCM) NonceSize() int {
	return AESGCMNonceSize
}

// Overhead returns the number of bytes Seal adds to the plaintext.
func (c *AESGCM) Overhead() int {
	return AESGCMTagSize
}

// Seal encrypts and authenticates plaintext with associated data.
//
// Parameters:
//   - nonce: 12-byte nonce (must never repeat under the same key)
//   - plaintext: data to encrypt (may be empty)
//   - aad: additional authenticated data (nil for session messages)
//
// Returns ciphertext || tag (plaintext length + 16 bytes).
func (c *AESGCM) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != AESGCMNonceSize {
		return nil, ErrGCMInvalidNonceSize
	}

	out := make([]byte, 0, len(plaintext)+AESGCMTagSize)
	return c.aead.Seal(out, nonce, plaintext, aad), nil
}

// Open verifies and decrypts ciphertext || tag.
//
// Parameters:
//   - nonce: 12-byte nonce (same as used for encryption)
//   - ciphertext: encrypted data followed by the 16-byte tag
//   - aad: additional authenticated data
//
// Returns the plaintext. On tag mismatch ErrGCMAuthFailed is returned and no
// plaintext is exposed.
func (c *AESGCM) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != AESGCMNonceSize {
		return nil, ErrGCMInvalidNonceSize
	}

	if len(ciphertext) < AESGCMTagSize {
		return nil, ErrGCMCiphertextTooShort
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrGCMAuthFailed
	}
	return plaintext, nil
}

// AESGCMEncrypt is a convenience function for one-shot AES-GCM encryption.
func AESGCMEncrypt(key, nonce, plaintext, aad []byte) ([]byte, error) {
	gcm, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, plaintext, aad)
}

// AESGCMDecrypt is a convenience function for one-shot AES-GCM decryption.
func AESGCMDecrypt(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	gcm, err := NewAESGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nonce, ciphertext, aad)
}
