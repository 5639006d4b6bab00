package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/anirudhraja/protoview/registry"
	"github.com/anirudhraja/protoview/schema"
)

func primitive(name string, number int32, t schema.PrimitiveType) *schema.Field {
	return &schema.Field{
		Name:   name,
		Number: number,
		Label:  schema.LabelOptional,
		Type:   schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: t},
	}
}

func TestDecodeMessage_Primitives(t *testing.T) {
	msg := &schema.Message{
		Name: "Scalars",
		Fields: []*schema.Field{
			primitive("test_int32", 1, schema.TypeInt32),
			primitive("test_int64", 2, schema.TypeInt64),
			primitive("test_uint32", 3, schema.TypeUint32),
			primitive("test_uint64", 4, schema.TypeUint64),
			primitive("test_sint32", 5, schema.TypeSint32),
			primitive("test_sint64", 6, schema.TypeSint64),
			primitive("test_bool", 7, schema.TypeBool),
			primitive("test_string", 8, schema.TypeString),
			primitive("test_bytes", 9, schema.TypeBytes),
		},
	}

	var buf []byte
	appendVarint := func(n protowire.Number, v uint64) {
		buf = protowire.AppendTag(buf, n, protowire.VarintType)
		buf = protowire.AppendVarint(buf, v)
	}
	appendVarint(1, 123)
	appendVarint(2, 456789)
	appendVarint(3, 4000000000)
	appendVarint(4, 1<<40)
	appendVarint(5, protowire.EncodeZigZag(-12))
	appendVarint(6, protowire.EncodeZigZag(-1<<40))
	appendVarint(7, 1)
	buf = protowire.AppendTag(buf, 8, protowire.BytesType)
	buf = protowire.AppendString(buf, "Hello, protoview!")
	buf = protowire.AppendTag(buf, 9, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte{0xde, 0xad, 0xbe, 0xef})

	result, err := DecodeMessage(buf, msg, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"test_int32":  int32(123),
		"test_int64":  int64(456789),
		"test_uint32": uint32(4000000000),
		"test_uint64": uint64(1 << 40),
		"test_sint32": int32(-12),
		"test_sint64": int64(-1 << 40),
		"test_bool":   true,
		"test_string": "Hello, protoview!",
		"test_bytes":  []byte{0xde, 0xad, 0xbe, 0xef},
	}, result)

	// bytes fields alias the input
	raw := result["test_bytes"].([]byte)
	require.Same(t, &buf[len(buf)-4], &raw[0])
}

func TestDecodeMessage_LastValueWins(t *testing.T) {
	msg := &schema.Message{Name: "M", Fields: []*schema.Field{primitive("id", 1, schema.TypeUint64)}}

	buf := protowire.AppendTag(nil, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 1)
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 2)

	result, err := DecodeMessage(buf, msg, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(2), result["id"])
}

func TestDecodeMessage_Errors(t *testing.T) {
	msg := &schema.Message{
		Name: "M",
		Fields: []*schema.Field{
			primitive("small", 1, schema.TypeInt32),
			primitive("name", 2, schema.TypeString),
			primitive("ratio", 3, schema.TypeDouble),
			{
				Name:   "values",
				Number: 4,
				Label:  schema.LabelRepeated,
				Type:   schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeUint32},
			},
		},
	}

	tests := []struct {
		name string
		buf  []byte
		want error
		path string
	}{
		{
			name: "unknown field",
			buf:  protowire.AppendVarint(protowire.AppendTag(nil, 99, protowire.VarintType), 1),
			want: ErrUnknownFieldNumber,
			path: "99",
		},
		{
			name: "int32 overflow",
			buf:  protowire.AppendVarint(protowire.AppendTag(nil, 1, protowire.VarintType), 1<<33),
			want: ErrTypeMismatch,
			path: "small",
		},
		{
			name: "string sent as varint",
			buf:  protowire.AppendVarint(protowire.AppendTag(nil, 2, protowire.VarintType), 1),
			want: ErrTypeMismatch,
			path: "name",
		},
		{
			name: "invalid utf-8",
			buf:  protowire.AppendBytes(protowire.AppendTag(nil, 2, protowire.BytesType), []byte{0xc3, 0x28}),
			want: ErrInvalidText,
			path: "name",
		},
		{
			name: "fixed-width wire type",
			buf:  protowire.AppendFixed64(protowire.AppendTag(nil, 3, protowire.Fixed64Type), 0),
			want: ErrUnknownWireType,
			path: "",
		},
		{
			name: "fixed-width type sent as varint",
			buf:  protowire.AppendVarint(protowire.AppendTag(nil, 3, protowire.VarintType), 0),
			want: ErrTypeMismatch,
			path: "ratio",
		},
		{
			name: "packed repeated",
			buf:  protowire.AppendBytes(protowire.AppendTag(nil, 4, protowire.BytesType), []byte{1, 2, 3}),
			want: ErrTypeMismatch,
			path: "values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DecodeMessage(tt.buf, msg, nil)
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, result)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			require.Equal(t, tt.path, fe.Path())
		})
	}
}

func TestDecodeMessage_NestedWithoutRegistry(t *testing.T) {
	msg := &schema.Message{
		Name: "Outer",
		Fields: []*schema.Field{{
			Name:   "inner",
			Number: 1,
			Type:   schema.FieldType{Kind: schema.KindMessage, MessageType: "Inner"},
		}},
	}

	buf := protowire.AppendTag(nil, 1, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte{0x08, 0x01})

	result, err := DecodeMessage(buf, msg, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x01}, result["inner"])
}

func TestDecodeMessage_WellKnownInterop(t *testing.T) {
	stringValue := &schema.Message{
		Name:   "StringValue",
		Fields: []*schema.Field{primitive("value", 1, schema.TypeString)},
	}
	data, err := proto.Marshal(wrapperspb.String("+1234-777-9090"))
	require.NoError(t, err)

	result, err := DecodeMessage(data, stringValue, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"value": "+1234-777-9090"}, result)

	timestamp := &schema.Message{
		Name: "Timestamp",
		Fields: []*schema.Field{
			primitive("seconds", 1, schema.TypeInt64),
			primitive("nanos", 2, schema.TypeInt32),
		},
	}
	data, err = proto.Marshal(&timestamppb.Timestamp{Seconds: 1700000000, Nanos: 500})
	require.NoError(t, err)

	result, err = DecodeMessage(data, timestamp, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"seconds": int64(1700000000), "nanos": int32(500)}, result)
}

func loadDirectory(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry([]string{"../testdata"})
	require.NoError(t, reg.LoadSchemaFromFile("directory.proto"))
	return reg
}

func TestDecodeMessage_WithRegistry(t *testing.T) {
	reg := loadDirectory(t)
	team, err := reg.GetMessage("tutorial.directory.Team")
	require.NoError(t, err)

	phone := protowire.AppendTag(nil, 1, protowire.BytesType)
	phone = protowire.AppendString(phone, "+1202-555-1212")
	phone = protowire.AppendTag(phone, 2, protowire.BytesType)
	phone = protowire.AppendString(phone, "home")

	person := protowire.AppendTag(nil, 1, protowire.BytesType)
	person = protowire.AppendString(person, "maxwell")
	person = protowire.AppendTag(person, 2, protowire.VarintType)
	person = protowire.AppendVarint(person, 42)
	person = protowire.AppendTag(person, 3, protowire.BytesType)
	person = protowire.AppendBytes(person, phone)

	member := protowire.AppendTag(nil, 1, protowire.BytesType)
	member = protowire.AppendBytes(member, person)
	member = protowire.AppendTag(member, 2, protowire.VarintType)
	member = protowire.AppendVarint(member, 1)
	member = protowire.AppendTag(member, 3, protowire.VarintType)
	member = protowire.AppendVarint(member, protowire.EncodeZigZag(-3))

	desk := protowire.AppendTag(nil, 1, protowire.BytesType)
	desk = protowire.AppendString(desk, "maxwell")
	desk = protowire.AppendTag(desk, 2, protowire.VarintType)
	desk = protowire.AppendVarint(desk, 7)

	parent := protowire.AppendTag(nil, 1, protowire.BytesType)
	parent = protowire.AppendString(parent, "platform")

	buf := protowire.AppendTag(nil, 1, protowire.BytesType)
	buf = protowire.AppendString(buf, "wire")
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, member)
	buf = protowire.AppendTag(buf, 3, protowire.BytesType)
	buf = protowire.AppendBytes(buf, desk)
	// a desk entry with no value
	buf = protowire.AppendTag(buf, 3, protowire.BytesType)
	buf = protowire.AppendBytes(buf, protowire.AppendString(protowire.AppendTag(nil, 1, protowire.BytesType), "guest"))
	buf = protowire.AppendTag(buf, 4, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 2)
	buf = protowire.AppendTag(buf, 7, protowire.BytesType)
	buf = protowire.AppendString(buf, "wire@example.com")
	buf = protowire.AppendTag(buf, 8, protowire.BytesType)
	buf = protowire.AppendString(buf, "#wire")
	buf = protowire.AppendTag(buf, 9, protowire.BytesType)
	buf = protowire.AppendBytes(buf, parent)
	buf = protowire.AppendTag(buf, 10, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 5)
	buf = protowire.AppendTag(buf, 10, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 6)

	result, err := DecodeMessage(buf, team, reg)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{
		"name": "wire",
		"members": []interface{}{
			map[string]interface{}{
				"person": map[string]interface{}{
					"name": "maxwell",
					"id":   uint64(42),
					"phone": []interface{}{
						map[string]interface{}{"number": "+1202-555-1212", "type": "home"},
					},
				},
				"role": "ROLE_LEAD",
				"rank": int32(-3),
			},
		},
		"desks":      map[interface{}]interface{}{"maxwell": uint32(7), "guest": uint32(0)},
		"visibility": "VISIBILITY_PRIVATE",
		"slack":      "#wire",
		"parent":     map[string]interface{}{"name": "platform"},
		"tags":       []interface{}{int64(5), int64(6)},
	}, result)
}

func TestDecodeMessage_UnknownEnumNumber(t *testing.T) {
	reg := loadDirectory(t)
	team, err := reg.GetMessage("Team")
	require.NoError(t, err)

	buf := protowire.AppendTag(nil, 4, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 42)

	result, err := DecodeMessage(buf, team, reg)
	require.NoError(t, err)
	require.Equal(t, int32(42), result["visibility"])
}

func TestDecodeMessage_NestedErrorPath(t *testing.T) {
	reg := loadDirectory(t)
	team, err := reg.GetMessage("tutorial.directory.Team")
	require.NoError(t, err)

	phone := protowire.AppendTag(nil, 3, protowire.BytesType)
	phone = protowire.AppendString(phone, "x")
	person := protowire.AppendTag(nil, 3, protowire.BytesType)
	person = protowire.AppendBytes(person, phone)
	member := protowire.AppendTag(nil, 1, protowire.BytesType)
	member = protowire.AppendBytes(member, person)
	buf := protowire.AppendTag(nil, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, member)

	_, err = DecodeMessage(buf, team, reg)
	require.ErrorIs(t, err, ErrUnknownFieldNumber)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "members.person.phone.3", fe.Path())
	require.Equal(t, 6, fe.Offset)
}

func TestDecodeMessage_MapEnumValueDefault(t *testing.T) {
	reg := loadDirectory(t)
	team, err := reg.GetMessage("tutorial.directory.Team")
	require.NoError(t, err)

	entry := func(key string, value ...uint64) []byte {
		b := protowire.AppendTag(nil, 1, protowire.BytesType)
		b = protowire.AppendString(b, key)
		for _, v := range value {
			b = protowire.AppendTag(b, 2, protowire.VarintType)
			b = protowire.AppendVarint(b, v)
		}
		return b
	}

	buf := protowire.AppendTag(nil, 12, protowire.BytesType)
	buf = protowire.AppendBytes(buf, entry("ops", 2))
	// absent value decodes like an explicit zero
	buf = protowire.AppendTag(buf, 12, protowire.BytesType)
	buf = protowire.AppendBytes(buf, entry("guest"))
	buf = protowire.AppendTag(buf, 12, protowire.BytesType)
	buf = protowire.AppendBytes(buf, entry("root", 0))

	result, err := DecodeMessage(buf, team, reg)
	require.NoError(t, err)
	require.Equal(t, map[interface{}]interface{}{
		"ops":   "VISIBILITY_PRIVATE",
		"guest": "VISIBILITY_UNSPECIFIED",
		"root":  "VISIBILITY_UNSPECIFIED",
	}, result["access"])
}

func TestDecodeMessage_MapEnumValueWithoutRegistry(t *testing.T) {
	visibility := schema.FieldType{Kind: schema.KindEnum, EnumType: "Visibility"}
	key := schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: schema.TypeString}
	msg := &schema.Message{
		Name: "Team",
		Fields: []*schema.Field{{
			Name:   "access",
			Number: 12,
			Label:  schema.LabelRepeated,
			Type:   schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &visibility},
		}},
	}

	e := protowire.AppendTag(nil, 1, protowire.BytesType)
	e = protowire.AppendString(e, "guest")
	buf := protowire.AppendTag(nil, 12, protowire.BytesType)
	buf = protowire.AppendBytes(buf, e)

	result, err := DecodeMessage(buf, msg, nil)
	require.NoError(t, err)
	require.Equal(t, map[interface{}]interface{}{"guest": int32(0)}, result["access"])
}
