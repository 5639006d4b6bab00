package wire

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/exp/constraints"
)

// FieldValue is a decoded field payload: either an integer (varint wire
// type) or a view of length-delimited bytes. Bytes values always alias the
// input buffer.
type FieldValue struct {
	wireType WireType
	integer  uint64
	bytes    ByteView
}

// IntegerValue wraps a varint payload.
func IntegerValue(v uint64) FieldValue {
	return FieldValue{wireType: WireVarint, integer: v}
}

// BytesValue wraps a length-delimited payload.
func BytesValue(v ByteView) FieldValue {
	return FieldValue{wireType: WireBytes, bytes: v}
}

// WireType reports which variant the value holds.
func (fv FieldValue) WireType() WireType { return fv.wireType }

func (fv FieldValue) mismatch(want WireType) error {
	return fmt.Errorf("%w: expected %s value, got %s", ErrTypeMismatch, want, fv.wireType)
}

// Uint64 returns the raw varint payload.
func (fv FieldValue) Uint64() (uint64, error) {
	if fv.wireType != WireVarint {
		return 0, fv.mismatch(WireVarint)
	}
	return fv.integer, nil
}

// Bool interprets the varint payload as a bool.
func (fv FieldValue) Bool() (bool, error) {
	v, err := fv.Uint64()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Sint64 interprets the varint payload as a zigzag-encoded signed integer.
func (fv FieldValue) Sint64() (int64, error) {
	v, err := fv.Uint64()
	if err != nil {
		return 0, err
	}
	return DecodeZigZag64(v), nil
}

// View returns the length-delimited payload as a view into the input.
func (fv FieldValue) View() (ByteView, error) {
	if fv.wireType != WireBytes {
		return ByteView{}, fv.mismatch(WireBytes)
	}
	return fv.bytes, nil
}

// Bytes returns the length-delimited payload without copying it.
func (fv FieldValue) Bytes() ([]byte, error) {
	v, err := fv.View()
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

// Text returns the length-delimited payload as a string. The payload must be
// valid UTF-8.
func (fv FieldValue) Text() (string, error) {
	v, err := fv.View()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(v.Bytes()) {
		return "", fmt.Errorf("%w: %d bytes at offset %d", ErrInvalidText, v.Len(), v.Offset())
	}
	return v.String(), nil
}

// Integer narrows a varint payload to T, failing with ErrTypeMismatch when the
// value does not fit.
func Integer[T constraints.Integer](fv FieldValue) (T, error) {
	v, err := fv.Uint64()
	if err != nil {
		return 0, err
	}
	t := T(v)
	if t < 0 || uint64(t) != v {
		return 0, fmt.Errorf("%w: %d overflows %T", ErrTypeMismatch, v, t)
	}
	return t, nil
}

// Field is one decoded tag/value pair. It is handed to exactly one
// Builder.AddField call and should not be retained.
type Field struct {
	Number FieldNumber
	Value  FieldValue

	offset  int
	depth   int
	decoder *Decoder
}

// Offset returns the position of the field's tag in the top-level buffer.
func (f Field) Offset() int { return f.offset }

// Depth returns the nesting depth of the message that contains the field;
// fields of the top-level message are at depth 0.
func (f Field) Depth() int { return f.depth }

// DecodeField decodes one tag and its payload from the front of v.
func DecodeField(v ByteView) (Field, ByteView, error) {
	tag, rest, err := DecodeVarint(v)
	if err != nil {
		return Field{}, v, fmt.Errorf("failed to decode field tag: %w", err)
	}

	fieldNumber, wireType, err := UnpackTag(tag)
	if err != nil {
		return Field{}, v, err
	}

	field := Field{Number: fieldNumber, offset: v.Offset()}

	switch wireType {
	case WireVarint:
		value, rest, err := DecodeVarint(rest)
		if err != nil {
			return Field{}, v, fmt.Errorf("failed to decode field %d value: %w", fieldNumber, err)
		}
		field.Value = IntegerValue(value)
		return field, rest, nil
	default:
		length, rest, err := DecodeVarint(rest)
		if err != nil {
			return Field{}, v, fmt.Errorf("failed to decode field %d length: %w", fieldNumber, err)
		}
		if length > uint64(rest.Len()) {
			return Field{}, v, fmt.Errorf("%w: field %d needs %d bytes, have %d", ErrTruncatedBuffer, fieldNumber, length, rest.Len())
		}
		data, rest, err := rest.SplitAt(int(length))
		if err != nil {
			return Field{}, v, err
		}
		field.Value = BytesValue(data)
		return field, rest, nil
	}
}
