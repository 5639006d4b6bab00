package schema

// ProtoRepo represents a collection of .proto files and their definitions.
type ProtoRepo struct {
	ProtoFiles map[string]*ProtoFile `json:"proto_files"`
}

// ProtoFile represents a single .proto file
type ProtoFile struct {
	Name     string     `json:"name"`     // file.proto
	Package  string     `json:"package"`  // package name
	Syntax   string     `json:"syntax"`   // proto2 or proto3
	Imports  []string   `json:"imports"`  // resolved paths of imported files
	Messages []*Message `json:"messages"` // message definitions
	Enums    []*Enum    `json:"enums"`    // enum definitions
}

// Message represents a protobuf message definition
type Message struct {
	Name        string     `json:"name"`         // "Person"
	FullName    string     `json:"full_name"`    // "tutorial.Person"
	Fields      []*Field   `json:"fields"`       // message fields, oneof members included
	NestedTypes []*Message `json:"nested_types"` // nested messages
	NestedEnums []*Enum    `json:"nested_enums"` // nested enums
	MapEntry    bool       `json:"map_entry"`    // is this a map entry?
}

// FieldByNumber returns the field declared with number n, or nil.
func (m *Message) FieldByNumber(n int32) *Field {
	for _, f := range m.Fields {
		if f.Number == n {
			return f
		}
	}
	return nil
}

// FieldByName returns the field declared with the given name, or nil.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Field represents a message field
type Field struct {
	Name   string     `json:"name"`   // "phone"
	Number int32      `json:"number"` // 3
	Label  FieldLabel `json:"label"`  // optional, required, repeated
	Type   FieldType  `json:"type"`   // field type information
	Oneof  string     `json:"oneof"`  // enclosing oneof group, "" if none
}

// FieldLabel represents field labels
type FieldLabel string

const (
	LabelOptional FieldLabel = "optional"
	LabelRequired FieldLabel = "required"
	LabelRepeated FieldLabel = "repeated"
)

// FieldType represents field type information
type FieldType struct {
	Kind          TypeKind      `json:"kind"`                     // primitive, message, enum, map
	PrimitiveType PrimitiveType `json:"primitive_type,omitempty"` // for primitive types
	MessageType   string        `json:"message_type,omitempty"`   // for message types: "tutorial.PhoneNumber"
	EnumType      string        `json:"enum_type,omitempty"`      // for enum types
	MapKey        *FieldType    `json:"map_key,omitempty"`        // for map key type
	MapValue      *FieldType    `json:"map_value,omitempty"`      // for map value type
	TypeName      string        `json:"type_name,omitempty"`      // type as written in the .proto file, before resolution
}

// TypeKind represents the kind of field type
type TypeKind string

const (
	KindUnresolved TypeKind = ""
	KindPrimitive  TypeKind = "primitive"
	KindMessage    TypeKind = "message"
	KindEnum       TypeKind = "enum"
	KindMap        TypeKind = "map"
)

// PrimitiveType represents protobuf primitive types
type PrimitiveType string

const (
	TypeDouble   PrimitiveType = "double"
	TypeFloat    PrimitiveType = "float"
	TypeInt64    PrimitiveType = "int64"
	TypeUint64   PrimitiveType = "uint64"
	TypeInt32    PrimitiveType = "int32"
	TypeFixed64  PrimitiveType = "fixed64"
	TypeFixed32  PrimitiveType = "fixed32"
	TypeBool     PrimitiveType = "bool"
	TypeString   PrimitiveType = "string"
	TypeBytes    PrimitiveType = "bytes"
	TypeUint32   PrimitiveType = "uint32"
	TypeSfixed32 PrimitiveType = "sfixed32"
	TypeSfixed64 PrimitiveType = "sfixed64"
	TypeSint32   PrimitiveType = "sint32"
	TypeSint64   PrimitiveType = "sint64"
)

var primitiveTypes = map[string]PrimitiveType{
	"double":   TypeDouble,
	"float":    TypeFloat,
	"int64":    TypeInt64,
	"uint64":   TypeUint64,
	"int32":    TypeInt32,
	"fixed64":  TypeFixed64,
	"fixed32":  TypeFixed32,
	"bool":     TypeBool,
	"string":   TypeString,
	"bytes":    TypeBytes,
	"uint32":   TypeUint32,
	"sfixed32": TypeSfixed32,
	"sfixed64": TypeSfixed64,
	"sint32":   TypeSint32,
	"sint64":   TypeSint64,
}

// LookupPrimitive maps a scalar type name from a .proto file to its PrimitiveType.
func LookupPrimitive(name string) (PrimitiveType, bool) {
	t, ok := primitiveTypes[name]
	return t, ok
}

// IsFixedWidth reports whether the type is carried on the fixed32/fixed64
// wire types, which this library cannot decode.
func IsFixedWidth(t PrimitiveType) bool {
	switch t {
	case TypeDouble, TypeFloat, TypeFixed32, TypeFixed64, TypeSfixed32, TypeSfixed64:
		return true
	}
	return false
}

// Enum represents an enum definition
type Enum struct {
	Name     string       `json:"name"`      // "PhoneType"
	FullName string       `json:"full_name"` // "tutorial.Person.PhoneType"
	Values   []*EnumValue `json:"values"`    // enum values
}

// ValueName returns the name declared for number, if any.
func (e *Enum) ValueName(number int32) (string, bool) {
	for _, v := range e.Values {
		if v.Number == number {
			return v.Name, true
		}
	}
	return "", false
}

// EnumValue represents an enum value
type EnumValue struct {
	Name   string `json:"name"`   // "MOBILE"
	Number int32  `json:"number"` // 0
}
