package wire

import "fmt"

// ===== PROTOBUF WIRE FORMAT TYPES =====

// WireType represents protobuf wire format types. Only the two types below
// are decodable; every other value is rejected by UnpackTag.
type WireType int32

const (
	WireVarint WireType = 0 // int32, int64, uint32, uint64, sint32, sint64, bool, enum
	WireBytes  WireType = 2 // string, bytes, embedded messages
)

func (w WireType) String() string {
	switch w {
	case WireVarint:
		return "varint"
	case WireBytes:
		return "bytes"
	default:
		return fmt.Sprintf("wiretype(%d)", int32(w))
	}
}

// FieldNumber represents a protobuf field number
type FieldNumber uint64

// Tag represents a protobuf field tag (field number + wire type)
type Tag uint64

// MakeTag creates a tag from field number and wire type
func MakeTag(fieldNumber FieldNumber, wireType WireType) Tag {
	return Tag(uint64(fieldNumber)<<3 | uint64(wireType))
}

// UnpackTag splits a decoded tag varint into its field number and wire type.
func UnpackTag(tag uint64) (FieldNumber, WireType, error) {
	fieldNumber := FieldNumber(tag >> 3)
	switch wt := WireType(tag & 0x7); wt {
	case WireVarint, WireBytes:
		return fieldNumber, wt, nil
	default:
		return fieldNumber, wt, fmt.Errorf("%w: %d (field %d)", ErrUnknownWireType, int32(wt), fieldNumber)
	}
}
