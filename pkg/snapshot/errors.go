package snapshot

import (
	"errors"
	"fmt"
)

// Sentinel errors for wire codec operations.
var (
	// ErrBufferOverflow indicates the destination buffer cannot hold
	// the encoded message. Nothing has been written when it is
	// returned.
	ErrBufferOverflow = errors.New("buffer too small for encoded message")

	// ErrBufferUnderflow indicates the declared message extends past
	// the readable bound of the source buffer.
	ErrBufferUnderflow = errors.New("message extends past buffer bound")

	// ErrSchemaMismatch indicates the message header does not carry
	// this codec's template or schema identifiers.
	ErrSchemaMismatch = errors.New("unexpected message schema")

	// ErrGroupTooLarge indicates the descriptor count exceeds the
	// group count encoding.
	ErrGroupTooLarge = errors.New("too many snapshots for one message")

	// ErrValueTooLarge indicates a name or checksum exceeds its
	// length-prefix encoding.
	ErrValueTooLarge = errors.New("variable-length field exceeds encoding limit")
)

// UnsupportedEncodingError indicates a snapshot name cannot be
// represented in the declared wire text encoding. This is a defect in
// the caller's input, not a buffer-sizing problem, and is surfaced as
// its own type so callers can reject or sanitize the name.
type UnsupportedEncodingError struct {
	// Name is the offending snapshot name.
	Name string
}

// Error implements the error interface.
func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("snapshot name %q is not valid %s", e.Name, nameCharacterEncoding)
}

// IsBufferOverflow returns true if the error indicates the destination
// buffer was too small.
func IsBufferOverflow(err error) bool {
	return errors.Is(err, ErrBufferOverflow)
}

// IsBufferUnderflow returns true if the error indicates a read past
// the buffer bound.
func IsBufferUnderflow(err error) bool {
	return errors.Is(err, ErrBufferUnderflow)
}

// IsUnsupportedEncoding returns true if the error indicates a name
// that cannot be represented in the wire text encoding.
func IsUnsupportedEncoding(err error) bool {
	var target *UnsupportedEncodingError
	return errors.As(err, &target)
}
