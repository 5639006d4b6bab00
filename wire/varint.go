package wire

import "fmt"

const (
	// MaxVarintLen is the longest varint this decoder accepts. It is
	// deliberately narrower than the 10 bytes a full 64-bit varint can take.
	MaxVarintLen = 7

	// MaxVarintValue is the largest value representable in MaxVarintLen bytes.
	MaxVarintValue = 1<<(7*MaxVarintLen) - 1
)

// DecodeVarint decodes a base-128 varint from the front of v and returns the
// value together with the bytes that follow it.
func DecodeVarint(v ByteView) (uint64, ByteView, error) {
	var result uint64
	var shift uint

	for i := 0; i < MaxVarintLen; i++ {
		if i >= v.Len() {
			return 0, v, fmt.Errorf("%w: unexpected end of buffer after %d bytes", ErrMalformedVarint, i)
		}

		b := v.At(i)

		// Add the lower 7 bits to result
		result |= uint64(b&0x7F) << shift

		// If MSB is not set, we're done
		if b&0x80 == 0 {
			_, rest, err := v.SplitAt(i + 1)
			return result, rest, err
		}

		shift += 7
	}

	return 0, v, fmt.Errorf("%w: longer than %d bytes", ErrMalformedVarint, MaxVarintLen)
}

// DecodeZigZag32 decodes a zigzag-encoded 32-bit integer
func DecodeZigZag32(encoded uint64) int32 {
	return int32((uint32(encoded) >> 1) ^ uint32(-int32(encoded&1)))
}

// DecodeZigZag64 decodes a zigzag-encoded 64-bit integer
func DecodeZigZag64(encoded uint64) int64 {
	return int64((encoded >> 1) ^ uint64(-int64(encoded&1)))
}

// VarintSize returns the number of bytes needed to encode the given varint.
// Sizes above MaxVarintLen are reported but cannot be decoded.
func VarintSize(v uint64) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	case v < 1<<35:
		return 5
	case v < 1<<42:
		return 6
	case v < 1<<49:
		return 7
	case v < 1<<56:
		return 8
	case v < 1<<63:
		return 9
	default:
		return 10
	}
}
