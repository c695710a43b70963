package envelope

import (
	"errors"
	"fmt"
)

// Envelope package errors.
var (
	// ErrMalformed is the umbrella error for any SessionData that cannot be
	// decoded into the expected shape.
	ErrMalformed = errors.New("envelope: malformed session data")

	// ErrNotMap is returned when the top-level CBOR item is not a map.
	ErrNotMap = fmt.Errorf("%w: top-level item is not a map", ErrMalformed)

	// ErrMissingData is returned when neither "data" nor "status" is present.
	ErrMissingData = fmt.Errorf("%w: missing data", ErrMalformed)

	// ErrDataType is returned when "data" is not a byte string.
	ErrDataType = fmt.Errorf("%w: data is not a byte string", ErrMalformed)

	// ErrStatusType is returned when "status" is not an unsigned integer.
	ErrStatusType = fmt.Errorf("%w: status is not an unsigned integer", ErrMalformed)

	// ErrEmptyData is returned by Encode when there is nothing to wrap.
	ErrEmptyData = errors.New("envelope: empty data")
)

// StatusError reports a SessionData message that carries a status code
// instead of encrypted data.
type StatusError struct {
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("envelope: peer sent status %d (%s)", uint64(e.Status), e.Status)
}
