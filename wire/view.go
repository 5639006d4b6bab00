package wire

import "fmt"

// ByteView is an immutable window over a caller-owned buffer. Splitting a
// view only narrows the window; the underlying bytes are never copied, and
// Offset always refers to a position in the buffer the view was created from.
type ByteView struct {
	buf    []byte
	lo, hi int
}

// NewByteView returns a view covering all of b.
func NewByteView(b []byte) ByteView {
	return ByteView{buf: b, lo: 0, hi: len(b)}
}

// Len returns the number of bytes in the view.
func (v ByteView) Len() int { return v.hi - v.lo }

// IsEmpty reports whether the view has no bytes left.
func (v ByteView) IsEmpty() bool { return v.hi == v.lo }

// Offset returns the position of the view's first byte in the original buffer.
func (v ByteView) Offset() int { return v.lo }

// Bytes returns the window as a sub-slice of the original buffer. The result
// aliases the input and its capacity is clipped to the window, so appending to
// it cannot overwrite bytes outside the view. Callers must not modify it.
func (v ByteView) Bytes() []byte {
	return v.buf[v.lo:v.hi:v.hi]
}

// At returns the i-th byte of the view.
func (v ByteView) At(i int) byte {
	return v.buf[v.lo+i]
}

// SplitAt splits the view into its first n bytes and the remainder.
func (v ByteView) SplitAt(n int) (ByteView, ByteView, error) {
	if n < 0 || n > v.Len() {
		return ByteView{}, v, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedBuffer, n, v.Len())
	}
	mid := v.lo + n
	return ByteView{buf: v.buf, lo: v.lo, hi: mid}, ByteView{buf: v.buf, lo: mid, hi: v.hi}, nil
}

// String copies the viewed bytes into a string.
func (v ByteView) String() string {
	return string(v.buf[v.lo:v.hi])
}
