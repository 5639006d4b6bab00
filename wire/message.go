package wire

import (
	"fmt"
	"math"

	"github.com/anirudhraja/protoview/registry"
	"github.com/anirudhraja/protoview/schema"
)

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, msg *schema.Message, registry *registry.Registry) (map[string]interface{}, error) {
	return DecodeMessageWith(DefaultDecoder(), data, msg, registry)
}

// DecodeMessageWith is DecodeMessage with an explicit decoder.
func DecodeMessageWith(d *Decoder, data []byte, msg *schema.Message, registry *registry.Registry) (map[string]interface{}, error) {
	md := NewMessageDecoder(msg, registry)
	if err := d.Decode(data, md); err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
	}
	return md.Result(), nil
}

// MessageDecoder is a Builder driven by a schema.Message. Scalars land in the
// result under their field name, repeated fields as []interface{}, and map
// fields as map[interface{}]interface{}.
type MessageDecoder struct {
	msg      *schema.Message
	registry *registry.Registry

	result            map[string]interface{}
	repeatedCollector map[string][]interface{}
	mapCollector      map[string]map[interface{}]interface{}
}

// NewMessageDecoder creates a builder for one message of type msg. registry
// may be nil, in which case nested messages are returned as raw bytes.
func NewMessageDecoder(msg *schema.Message, registry *registry.Registry) *MessageDecoder {
	return &MessageDecoder{
		msg:               msg,
		registry:          registry,
		result:            make(map[string]interface{}),
		repeatedCollector: make(map[string][]interface{}),
		mapCollector:      make(map[string]map[interface{}]interface{}),
	}
}

func (md *MessageDecoder) lookup(n FieldNumber) *schema.Field {
	if n > math.MaxInt32 {
		return nil
	}
	return md.msg.FieldByNumber(int32(n))
}

// FieldName implements FieldNamer.
func (md *MessageDecoder) FieldName(n FieldNumber) string {
	if field := md.lookup(n); field != nil {
		return field.Name
	}
	return ""
}

// AddField implements Builder.
func (md *MessageDecoder) AddField(f Field) error {
	field := md.lookup(f.Number)
	if field == nil {
		return UnknownField(md.msg.Name, f.Number)
	}

	if field.Type.Kind == schema.KindMap {
		key, value, err := md.decodeMapEntry(f, field)
		if err != nil {
			return err
		}
		if md.mapCollector[field.Name] == nil {
			md.mapCollector[field.Name] = make(map[interface{}]interface{})
		}
		md.mapCollector[field.Name][key] = value
		return nil
	}

	value, err := md.decodeTypedField(f, &field.Type)
	if err != nil {
		return err
	}

	if field.Label == schema.LabelRepeated {
		md.repeatedCollector[field.Name] = append(md.repeatedCollector[field.Name], value)
		return nil
	}

	// Last one wins for singular fields
	md.result[field.Name] = value
	if field.Oneof != "" {
		md.clearOneofSiblings(field)
	}
	return nil
}

// clearOneofSiblings drops earlier members of the same oneof group.
func (md *MessageDecoder) clearOneofSiblings(field *schema.Field) {
	for _, other := range md.msg.Fields {
		if other != field && other.Oneof == field.Oneof {
			delete(md.result, other.Name)
		}
	}
}

// Result returns the decoded message.
func (md *MessageDecoder) Result() map[string]interface{} {
	for fieldName, repeatedData := range md.repeatedCollector {
		md.result[fieldName] = repeatedData
	}
	for fieldName, mapData := range md.mapCollector {
		md.result[fieldName] = mapData
	}
	return md.result
}

// decodeTypedField routes to the appropriate decoder based on field type
func (md *MessageDecoder) decodeTypedField(f Field, fieldType *schema.FieldType) (interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return decodePrimitive(f.Value, fieldType.PrimitiveType)
	case schema.KindEnum:
		return md.decodeEnum(f.Value, fieldType.EnumType)
	case schema.KindMessage:
		return md.decodeNested(f, fieldType.MessageType)
	default:
		return nil, fmt.Errorf("%w: unresolved field type %q", ErrTypeMismatch, fieldType.TypeName)
	}
}

// decodePrimitive converts a scalar field value to its Go representation
func decodePrimitive(v FieldValue, primitiveType schema.PrimitiveType) (interface{}, error) {
	switch primitiveType {
	case schema.TypeInt32:
		return Integer[int32](v)
	case schema.TypeInt64:
		return Integer[int64](v)
	case schema.TypeUint32:
		return Integer[uint32](v)
	case schema.TypeUint64:
		return v.Uint64()
	case schema.TypeSint32:
		raw, err := Integer[uint32](v)
		if err != nil {
			return nil, err
		}
		return DecodeZigZag32(uint64(raw)), nil
	case schema.TypeSint64:
		return v.Sint64()
	case schema.TypeBool:
		return v.Bool()
	case schema.TypeString:
		return v.Text()
	case schema.TypeBytes:
		return v.Bytes()
	default:
		return nil, fmt.Errorf("%w: %s uses a fixed-width wire type", ErrTypeMismatch, primitiveType)
	}
}

// decodeEnum returns the value's name, or its number when the enum does not
// declare it.
func (md *MessageDecoder) decodeEnum(v FieldValue, enumType string) (interface{}, error) {
	number, err := Integer[int32](v)
	if err != nil {
		return nil, err
	}
	if md.registry == nil {
		return number, nil
	}
	enum, err := md.registry.GetEnum(enumType)
	if err != nil {
		return nil, err
	}
	if name, ok := enum.ValueName(number); ok {
		return name, nil
	}
	return number, nil
}

// decodeNested recursively decodes an embedded message. Without a schema for
// it the raw payload is returned.
func (md *MessageDecoder) decodeNested(f Field, messageType string) (interface{}, error) {
	if md.registry == nil {
		return f.Value.Bytes()
	}
	msg, err := md.registry.GetMessage(messageType)
	if err != nil {
		return f.Value.Bytes()
	}

	nested := NewMessageDecoder(msg, md.registry)
	if err := f.Embedded(nested); err != nil {
		return nil, err
	}
	return nested.Result(), nil
}
