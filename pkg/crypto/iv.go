// Deterministic IV construction for ISO/IEC 18013-5 session encryption
// (Section 9.1.1.5).

package crypto

import "encoding/binary"

// IVMode is the 4-byte direction constant placed in bytes 4..7 of the IV.
type IVMode uint32

const (
	// ReaderMode tags messages sealed with SKReader (reader to device).
	ReaderMode IVMode = 0x00000000

	// EndpointMode tags messages sealed with SKDevice (device to reader).
	EndpointMode IVMode = 0x00000001
)

// String returns a human-readable name for the mode.
func (m IVMode) String() string {
	switch m {
	case ReaderMode:
		return "reader"
	case EndpointMode:
		return "endpoint"
	default:
		return "unknown"
	}
}

// BuildSessionIV constructs the 12-byte AES-GCM nonce for a session message.
//
// Format: Identifier (4 bytes, zero) || Mode (4 bytes BE) || Counter (4 bytes BE)
//
// Parameters:
//   - mode: ReaderMode or EndpointMode
//   - counter: the direction's message counter (starts at 1)
func BuildSessionIV(mode IVMode, counter uint32) []byte {
	iv := make([]byte, AESGCMNonceSize)

	// Bytes 0-3: identifier, always zero.

	// Bytes 4-7: direction mode (big-endian)
	binary.BigEndian.PutUint32(iv[4:8], uint32(mode))

	// Bytes 8-11: message counter (big-endian)
	binary.BigEndian.PutUint32(iv[8:12], counter)

	return iv
}
