package wire

import (
	"github.com/anirudhraja/protoview/schema"
)

// decodeMapEntry decodes one key/value entry of a map field. Each entry is
// an embedded message with the key at field 1 and the value at field 2.
func (md *MessageDecoder) decodeMapEntry(f Field, field *schema.Field) (interface{}, interface{}, error) {
	entry := NewMessageDecoder(mapEntryMessage(field), md.registry)
	if err := f.Embedded(entry); err != nil {
		return nil, nil, err
	}
	result := entry.Result()

	key, ok := result["key"]
	if !ok {
		key = md.zeroValue(field.Type.MapKey)
	}
	value, ok := result["value"]
	if !ok {
		value = md.zeroValue(field.Type.MapValue)
	}
	return key, value, nil
}

// mapEntryMessage creates a synthetic message type for map entries
func mapEntryMessage(field *schema.Field) *schema.Message {
	return &schema.Message{
		Name:     field.Name + "Entry",
		MapEntry: true,
		Fields: []*schema.Field{
			{
				Name:   "key",
				Number: 1,
				Label:  schema.LabelOptional,
				Type:   *field.Type.MapKey,
			},
			{
				Name:   "value",
				Number: 2,
				Label:  schema.LabelOptional,
				Type:   *field.Type.MapValue,
			},
		},
	}
}

// zeroValue returns the value an absent map key or value decodes to. It has
// the same Go type a present value of ft would decode to.
func (md *MessageDecoder) zeroValue(ft *schema.FieldType) interface{} {
	switch ft.Kind {
	case schema.KindPrimitive:
		switch ft.PrimitiveType {
		case schema.TypeInt32, schema.TypeSint32:
			return int32(0)
		case schema.TypeInt64, schema.TypeSint64:
			return int64(0)
		case schema.TypeUint32:
			return uint32(0)
		case schema.TypeUint64:
			return uint64(0)
		case schema.TypeBool:
			return false
		case schema.TypeString:
			return ""
		case schema.TypeBytes:
			return []byte{}
		}
	case schema.KindEnum:
		if value, err := md.decodeEnum(IntegerValue(0), ft.EnumType); err == nil {
			return value
		}
		return int32(0)
	case schema.KindMessage:
		return map[string]interface{}{}
	}
	return nil
}
