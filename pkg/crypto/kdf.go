package crypto

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFMaxLength is the largest output of a single HKDF-Expand round with SHA-256.
const HKDFMaxLength = sha256.Size * 2

// ErrHKDFInvalidLength is returned when the requested output length is zero or
// exceeds HKDFMaxLength.
var ErrHKDFInvalidLength = errors.New("hkdf: invalid output length")

// HKDFSHA256 derives key material using HKDF-SHA256 (RFC 5869).
//
// Parameters:
//   - inputKey: Input keying material (IKM)
//   - salt: Optional salt value (can be nil or empty)
//   - info: Optional context/application-specific info (can be nil or empty)
//   - length: Number of bytes to derive, in [1, HKDFMaxLength]
//
// Returns the derived key material of the specified length.
func HKDFSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	if length <= 0 || length > HKDFMaxLength {
		return nil, ErrHKDFInvalidLength
	}

	// HKDF = HKDF-Expand(PRK := HKDF-Extract(salt, IKM), info, L)
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}
