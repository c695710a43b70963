package envelope

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// SessionData map keys.
const (
	KeyData   = "data"
	KeyStatus = "status"
)

// Status is a SessionData status code.
type Status uint64

// Status codes from ISO/IEC 18013-5 Table 20.
const (
	// StatusSessionEncryptionError signals that the peer could not decrypt.
	StatusSessionEncryptionError Status = 10

	// StatusCBORDecodingError signals that the peer could not decode CBOR.
	StatusCBORDecodingError Status = 11

	// StatusSessionTermination signals that the sender ended the session.
	StatusSessionTermination Status = 20
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusSessionEncryptionError:
		return "session encryption error"
	case StatusCBORDecodingError:
		return "CBOR decoding error"
	case StatusSessionTermination:
		return "session termination"
	default:
		return "unknown"
	}
}

// SessionData is the decoded form of the envelope.
// Data holds ciphertext || tag; Status is nil when absent.
type SessionData struct {
	Data   []byte  `cbor:"data,omitempty"`
	Status *Status `cbor:"status,omitempty"`
}

// HasData reports whether the message carries encrypted data.
func (s *SessionData) HasData() bool {
	return s.Data != nil
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort: cbor.SortCoreDeterministic,
	}.EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Encode wraps ciphertext || tag as { "data": bstr }.
func Encode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return encMode.Marshal(SessionData{Data: data})
}

// EncodeStatus produces a status-only message, e.g. { "status": 20 }.
func EncodeStatus(status Status) ([]byte, error) {
	return encMode.Marshal(SessionData{Status: &status})
}

// Decode parses a SessionData message.
//
// Unknown keys are ignored. Duplicate keys, trailing bytes, a non-map top
// level item, a non-bstr "data" or a non-uint "status" are rejected.
func Decode(b []byte) (*SessionData, error) {
	// Major type 5 (map) is required at the top level; tags, arrays and
	// simple values such as null are rejected before decoding.
	if len(b) == 0 || b[0]>>5 != 5 {
		return nil, ErrNotMap
	}

	var m map[any]any
	if err := decMode.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	sd := &SessionData{}

	rawData, hasData := m[KeyData]
	if hasData {
		data, ok := rawData.([]byte)
		if !ok {
			return nil, ErrDataType
		}
		if data == nil {
			data = []byte{}
		}
		sd.Data = data
	}

	rawStatus, hasStatus := m[KeyStatus]
	if hasStatus {
		status, ok := rawStatus.(uint64)
		if !ok {
			return nil, ErrStatusType
		}
		s := Status(status)
		sd.Status = &s
	}

	if !hasData && !hasStatus {
		return nil, ErrMissingData
	}

	return sd, nil
}
