// Package envelope implements the ISO/IEC 18013-5 SessionData CBOR map that
// carries an encrypted session message.
//
// Wire format (CBOR diagnostic notation):
//
//	{ "data": h'<ciphertext><16-byte tag>' }
//	{ "status": 20 }
//
// The map and the byte string always use definite-length encoding. Map keys
// are emitted in core deterministic order, so "data" precedes "status".
//
// Decoding locates "data" and "status" and ignores other keys. The top-level
// item must be a map, "data" must be a byte string and "status" an unsigned
// integer; anything else is rejected with an error wrapping ErrMalformed.
//
// References:
//   - ISO/IEC 18013-5 Section 9.1.1.4: SessionData
package envelope
