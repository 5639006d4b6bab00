package wire

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Builder accumulates the fields of one message. AddField is called once per
// decoded field, in wire order; returning an error aborts the whole decode.
type Builder interface {
	AddField(f Field) error
}

// FieldNamer is implemented by builders that can name their fields. The
// names are used to build error paths; unnamed fields are reported by number.
type FieldNamer interface {
	FieldName(n FieldNumber) string
}

// Message is satisfied by *T when T is a message whose zero value is the
// empty message and whose pointer implements Builder.
type Message[T any] interface {
	*T
	Builder
}

// Decoder handles low-level protobuf wire format decoding. It only carries
// configuration, so one Decoder may be shared by concurrent decodes.
type Decoder struct {
	config Config
}

// NewDecoder creates a new wire format decoder
func NewDecoder(cfg Config) *Decoder {
	cfg.MaxDepth = cfg.maxDepth()
	return &Decoder{config: cfg}
}

var (
	defaultDecoder     *Decoder
	defaultDecoderOnce sync.Once
)

// DefaultDecoder returns the decoder used by ParseMessage. It is built from
// DefaultConfig on first use.
func DefaultDecoder() *Decoder {
	defaultDecoderOnce.Do(func() {
		defaultDecoder = NewDecoder(DefaultConfig())
	})
	return defaultDecoder
}

// Config returns the decoder's configuration.
func (d *Decoder) Config() Config { return d.config }

// Decode feeds every field in buf to b. The buffer is consumed completely;
// any malformed or unrecognised field fails the decode.
func (d *Decoder) Decode(buf []byte, b Builder) error {
	err := d.decode(NewByteView(buf), 0, b)
	if err != nil && d.config.LogFailures {
		fields := []zap.Field{zap.Int("size", len(buf)), zap.Error(err)}
		var fe *FieldError
		if errors.As(err, &fe) {
			fields = append(fields, zap.Int("offset", fe.Offset), zap.String("path", fe.Path()))
		}
		Logger().Debug("decode failed", fields...)
	}
	return err
}

func (d *Decoder) decode(v ByteView, depth int, b Builder) error {
	for !v.IsEmpty() {
		field, rest, err := DecodeField(v)
		if err != nil {
			return wrapWithField(err, "", v.Offset())
		}

		field.depth = depth
		field.decoder = d
		if err := b.AddField(field); err != nil {
			return wrapWithField(err, fieldName(b, field.Number), field.offset)
		}

		v = rest
	}
	return nil
}

func fieldName(b Builder, n FieldNumber) string {
	if namer, ok := b.(FieldNamer); ok {
		if name := namer.FieldName(n); name != "" {
			return name
		}
	}
	return strconv.FormatUint(uint64(n), 10)
}

// Embedded decodes the field's length-delimited payload as a nested message
// into b, one level deeper than the message that holds the field.
func (f Field) Embedded(b Builder) error {
	data, err := f.Value.View()
	if err != nil {
		return err
	}

	d := f.decoder
	if d == nil {
		d = DefaultDecoder()
	}

	depth := f.depth + 1
	if depth > d.config.MaxDepth {
		return fmt.Errorf("%w: limit is %d", ErrDepthExceeded, d.config.MaxDepth)
	}
	return d.decode(data, depth, b)
}

// ParseMessage decodes buf into a new T using the default decoder.
func ParseMessage[T any, PT Message[T]](buf []byte) (T, error) {
	return ParseMessageWith[T, PT](DefaultDecoder(), buf)
}

// ParseMessageWith decodes buf into a new T using d.
func ParseMessageWith[T any, PT Message[T]](d *Decoder, buf []byte) (T, error) {
	var msg T
	if err := d.Decode(buf, PT(&msg)); err != nil {
		var zero T
		return zero, err
	}
	return msg, nil
}

// ParseEmbedded decodes a sub-message field into a new T.
func ParseEmbedded[T any, PT Message[T]](f Field) (T, error) {
	var msg T
	if err := f.Embedded(PT(&msg)); err != nil {
		var zero T
		return zero, err
	}
	return msg, nil
}
