package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Decoding error kinds. Every failure returned by this package wraps exactly
// one of these, so callers can branch with errors.Is.
var (
	ErrMalformedVarint    = errors.New("malformed varint")
	ErrTruncatedBuffer    = errors.New("truncated buffer")
	ErrUnknownWireType    = errors.New("unknown wire type")
	ErrUnknownFieldNumber = errors.New("unknown field number")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrInvalidText        = errors.New("invalid utf-8 text")
	ErrDepthExceeded      = errors.New("message nesting too deep")
)

// FieldError represents a decoding error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["phone", "number"]
	Offset    int      // byte offset of the failing field in the top-level buffer, -1 if unknown
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	var b strings.Builder
	if len(e.FieldPath) > 0 {
		fmt.Fprintf(&b, "error at proto path %s", strings.Join(e.FieldPath, "."))
	}
	if e.Offset >= 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString("error ")
		}
		fmt.Fprintf(&b, "(offset %d)", e.Offset)
	}
	if b.Len() == 0 {
		return e.Err.Error()
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// Path returns the dotted field path, or "" at the message root.
func (e *FieldError) Path() string {
	return strings.Join(e.FieldPath, ".")
}

// wrapWithField prefixes the error's field path with fieldName. The offset
// of the innermost failure is kept.
func wrapWithField(err error, fieldName string, offset int) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		path := fe.FieldPath
		if fieldName != "" {
			path = append([]string{fieldName}, fe.FieldPath...)
		}
		off := fe.Offset
		if off < 0 {
			off = offset
		}
		return &FieldError{
			FieldPath: path,
			Offset:    off,
			Err:       fe.Err,
		}
	}

	var path []string
	if fieldName != "" {
		path = []string{fieldName}
	}
	return &FieldError{
		FieldPath: path,
		Offset:    offset,
		Err:       err,
	}
}

// UnknownField reports a field number that the target message does not declare.
func UnknownField(message string, n FieldNumber) error {
	return fmt.Errorf("%w: %d in %s", ErrUnknownFieldNumber, n, message)
}
