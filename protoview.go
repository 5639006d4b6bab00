package protoview

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/anirudhraja/protoview/registry"
	"github.com/anirudhraja/protoview/wire"
)

// ===== SCHEMA-AWARE API =====

// Protoview provides schema-aware protobuf decoding without generated code
type Protoview struct {
	registry *registry.Registry
	decoder  *wire.Decoder
}

// Option customises a Protoview.
type Option func(*Protoview)

// WithConfig decodes with cfg instead of wire.DefaultConfig.
func WithConfig(cfg wire.Config) Option {
	return func(p *Protoview) {
		p.decoder = wire.NewDecoder(cfg)
	}
}

// New creates a new Protoview instance that resolves .proto files against protoDirs
func New(protoDirs []string, opts ...Option) *Protoview {
	p := &Protoview{
		registry: registry.NewRegistry(protoDirs),
		decoder:  wire.DefaultDecoder(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadSchemaFromFile loads a .proto file and everything it imports
func (p *Protoview) LoadSchemaFromFile(protoFile string) error {
	return p.registry.LoadSchemaFromFile(protoFile)
}

// Parse decodes protobuf bytes using schema-aware decoder
func (p *Protoview) Parse(data []byte, messageType string) (map[string]interface{}, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s: %w", messageType, err)
	}

	return wire.DecodeMessageWith(p.decoder, data, msg, p.registry)
}

// Unmarshal decodes protobuf bytes into a Go struct using reflection. The
// message type is the struct's type name; struct fields match proto field
// names case-insensitively, with underscores ignored, or via a `protobuf:"name"` tag.
func (p *Protoview) Unmarshal(data []byte, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	messageType := rv.Elem().Type().Name()
	result, err := p.Parse(data, messageType)
	if err != nil {
		return err
	}

	return p.mapToStruct(result, rv.Elem())
}

// mapToStruct maps parsed result to struct fields
func (p *Protoview) mapToStruct(data map[string]interface{}, rv reflect.Value) error {
	byName := make(map[string]interface{}, len(data))
	for name, value := range data {
		byName[normalizeName(name)] = value
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fieldValue := rv.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		name := field.Name
		if tag := field.Tag.Get("protobuf"); tag != "" {
			name = tag
		}
		if value, ok := byName[normalizeName(name)]; ok {
			if err := p.setFieldValue(fieldValue, value); err != nil {
				return fmt.Errorf("failed to set field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

// setFieldValue sets a struct field with type conversion
func (p *Protoview) setFieldValue(fieldValue reflect.Value, value interface{}) error {
	if value == nil {
		return nil
	}

	// nested messages
	if nested, ok := value.(map[string]interface{}); ok {
		switch {
		case fieldValue.Kind() == reflect.Struct:
			return p.mapToStruct(nested, fieldValue)
		case fieldValue.Kind() == reflect.Ptr && fieldValue.Type().Elem().Kind() == reflect.Struct:
			ptr := reflect.New(fieldValue.Type().Elem())
			if err := p.mapToStruct(nested, ptr.Elem()); err != nil {
				return err
			}
			fieldValue.Set(ptr)
			return nil
		}
	}

	// repeated fields
	if list, ok := value.([]interface{}); ok && fieldValue.Kind() == reflect.Slice {
		out := reflect.MakeSlice(fieldValue.Type(), len(list), len(list))
		for i, item := range list {
			if err := p.setFieldValue(out.Index(i), item); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		fieldValue.Set(out)
		return nil
	}

	// map fields
	if entries, ok := value.(map[interface{}]interface{}); ok && fieldValue.Kind() == reflect.Map {
		mapType := fieldValue.Type()
		out := reflect.MakeMapWithSize(mapType, len(entries))
		for k, v := range entries {
			key := reflect.New(mapType.Key()).Elem()
			if err := p.setFieldValue(key, k); err != nil {
				return fmt.Errorf("map key %v: %w", k, err)
			}
			elem := reflect.New(mapType.Elem()).Elem()
			if err := p.setFieldValue(elem, v); err != nil {
				return fmt.Errorf("map value at %v: %w", k, err)
			}
			out.SetMapIndex(key, elem)
		}
		fieldValue.Set(out)
		return nil
	}

	sourceValue := reflect.ValueOf(value)
	if sourceValue.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue)
		return nil
	}

	// integers are convertible to string as runes; never do that
	stringMismatch := fieldValue.Kind() == reflect.String && sourceValue.Kind() != reflect.String
	if !stringMismatch && sourceValue.Type().ConvertibleTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue.Convert(fieldValue.Type()))
		return nil
	}

	return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
}

func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}

// ===== REGISTRY ACCESS =====

func (p *Protoview) GetRegistry() *registry.Registry { return p.registry }
func (p *Protoview) ListMessages() []string          { return p.registry.ListMessages() }
func (p *Protoview) ListEnums() []string             { return p.registry.ListEnums() }
