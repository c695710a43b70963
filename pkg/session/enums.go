// Package session implements the ISO/IEC 18013-5 secure session used by a
// reader and an mdoc (the endpoint) after session establishment.
//
// A SecureSession derives two AES keys from the ECDH shared secret and the
// session transcript salt, then exposes a pair of direction channels:
//   - Seal encrypts an outbound message and wraps it in a SessionData map
//   - Open unwraps an inbound SessionData map and decrypts it
//
// Each channel owns one key, a 4-byte IV mode and a 32-bit counter that
// starts at 1 and advances by one per successful operation. There is no
// replay window: a duplicated, dropped or reordered message fails to
// authenticate.
//
// A SecureSession does no locking. Seal and Open may run concurrently with
// each other, but calls in the same direction must be serialised by the
// caller. SecureConn does that for message-oriented connections.
//
// References:
//   - ISO/IEC 18013-5 Section 9.1.1.4: SessionData
//   - ISO/IEC 18013-5 Section 9.1.1.5: Cryptographic operations
package session

import "github.com/backkem/mdocsession/pkg/crypto"

// Role identifies which side of the session the local device plays.
// It determines which derived key and IV mode are used per direction.
type Role int

const (
	// RoleUnknown indicates an uninitialized or invalid role.
	RoleUnknown Role = iota

	// RoleReader is the verifier. Readers seal with SKReader and open with SKDevice.
	RoleReader

	// RoleEndpoint is the mdoc holder. Endpoints seal with SKDevice and open with SKReader.
	RoleEndpoint
)

// String returns a human-readable name for the role.
func (r Role) String() string {
	switch r {
	case RoleReader:
		return "Reader"
	case RoleEndpoint:
		return "Endpoint"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the role is a defined value.
func (r Role) IsValid() bool {
	return r == RoleReader || r == RoleEndpoint
}

// Peer returns the role on the other side of the session.
func (r Role) Peer() Role {
	switch r {
	case RoleReader:
		return RoleEndpoint
	case RoleEndpoint:
		return RoleReader
	default:
		return RoleUnknown
	}
}

// outboundMode returns the IV mode used for messages this role sends.
func (r Role) outboundMode() crypto.IVMode {
	if r == RoleEndpoint {
		return crypto.EndpointMode
	}
	return crypto.ReaderMode
}

// inboundMode returns the IV mode used for messages this role receives.
func (r Role) inboundMode() crypto.IVMode {
	if r == RoleEndpoint {
		return crypto.ReaderMode
	}
	return crypto.EndpointMode
}
