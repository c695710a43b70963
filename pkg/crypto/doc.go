// Package crypto provides the cryptographic primitives behind ISO/IEC 18013-5
// session encryption (Section 9.1.1.5): HKDF-SHA-256 key derivation, AES-GCM
// with a 16-byte tag, the deterministic 12-byte session IV and key zeroization.
package crypto
