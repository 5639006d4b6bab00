package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	protoparser "github.com/yoheimuta/go-protoparser/v4"
	"github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protoview/schema"
)

// loader reads one .proto file and, depth first, everything it imports.
// Files the registry already holds are neither read nor returned.
type loader struct {
	dirs   []string
	loaded map[string]*schema.ProtoFile
	seen   map[string]struct{}
	files  []loadedFile
}

type loadedFile struct {
	path  string
	proto *schema.ProtoFile
}

func newLoader(dirs []string, loaded map[string]*schema.ProtoFile) *loader {
	return &loader{
		dirs:   dirs,
		loaded: loaded,
		seen:   make(map[string]struct{}),
	}
}

func (l *loader) load(name string) error {
	path, err := l.locate(name)
	if err != nil {
		return err
	}
	return l.visit(path)
}

func (l *loader) visit(path string) error {
	if _, ok := l.loaded[path]; ok {
		return nil
	}
	if _, ok := l.seen[path]; ok {
		return nil
	}
	l.seen[path] = struct{}{}

	parsed, err := parseFile(path)
	if err != nil {
		return err
	}

	pf := &schema.ProtoFile{
		Name:   filepath.Base(path),
		Syntax: "proto3",
	}
	if parsed.Syntax != nil && parsed.Syntax.ProtobufVersion != "" {
		pf.Syntax = parsed.Syntax.ProtobufVersion
	}

	// package and imports first: definitions are scoped by the package
	// wherever it appears in the file
	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *parser.Package:
			pf.Package = b.Name
		case *parser.Import:
			location := strings.Trim(b.Location, `"`)
			// well-known types are not shipped with the registry
			if strings.HasPrefix(location, "google/protobuf/") {
				continue
			}
			dep, err := l.locate(location)
			if err != nil {
				return err
			}
			pf.Imports = append(pf.Imports, dep)
			if err := l.visit(dep); err != nil {
				return err
			}
		}
	}

	for _, body := range parsed.ProtoBody {
		switch b := body.(type) {
		case *parser.Message:
			msg, err := buildMessage(b, pf.Package)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			pf.Messages = append(pf.Messages, msg)
		case *parser.Enum:
			enum, err := buildEnum(b, pf.Package)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			pf.Enums = append(pf.Enums, enum)
		}
	}

	l.files = append(l.files, loadedFile{path: path, proto: pf})
	return nil
}

// locate finds name in the first search directory that has it.
func (l *loader) locate(name string) (string, error) {
	name = strings.Trim(name, `"`)
	if !strings.HasSuffix(name, ".proto") {
		return "", fmt.Errorf("is not a .proto file: %s", name)
	}
	for _, dir := range l.dirs {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("path does not exist: %s (searched %q)", name, l.dirs)
}

func parseFile(path string) (*parser.Proto, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer f.Close()

	parsed, err := protoparser.Parse(f, protoparser.WithFilename(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return parsed, nil
}

func buildMessage(m *parser.Message, scope string) (*schema.Message, error) {
	msg := &schema.Message{
		Name:     m.MessageName,
		FullName: qualify(scope, m.MessageName),
	}

	addField := func(name, number string, label schema.FieldLabel, ft schema.FieldType, oneof string) error {
		n, err := parseNumber(number)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", msg.FullName, name, err)
		}
		msg.Fields = append(msg.Fields, &schema.Field{
			Name:   name,
			Number: n,
			Label:  label,
			Type:   ft,
			Oneof:  oneof,
		})
		return nil
	}

	for _, body := range m.MessageBody {
		var err error
		switch b := body.(type) {
		case *parser.Field:
			label := schema.LabelOptional
			if b.IsRepeated {
				label = schema.LabelRepeated
			} else if b.IsRequired {
				label = schema.LabelRequired
			}
			err = addField(b.FieldName, b.FieldNumber, label, newFieldType(b.Type), "")
		case *parser.MapField:
			key, value := newFieldType(b.KeyType), newFieldType(b.Type)
			ft := schema.FieldType{Kind: schema.KindMap, MapKey: &key, MapValue: &value}
			err = addField(b.MapName, b.FieldNumber, schema.LabelRepeated, ft, "")
		case *parser.Oneof:
			for _, of := range b.OneofFields {
				if err = addField(of.FieldName, of.FieldNumber, schema.LabelOptional, newFieldType(of.Type), b.OneofName); err != nil {
					break
				}
			}
		case *parser.Message:
			var nested *schema.Message
			if nested, err = buildMessage(b, msg.FullName); err == nil {
				msg.NestedTypes = append(msg.NestedTypes, nested)
			}
		case *parser.Enum:
			var nested *schema.Enum
			if nested, err = buildEnum(b, msg.FullName); err == nil {
				msg.NestedEnums = append(msg.NestedEnums, nested)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func buildEnum(e *parser.Enum, scope string) (*schema.Enum, error) {
	enum := &schema.Enum{
		Name:     e.EnumName,
		FullName: qualify(scope, e.EnumName),
	}
	for _, body := range e.EnumBody {
		ef, ok := body.(*parser.EnumField)
		if !ok {
			continue
		}
		number, err := parseNumber(ef.Number)
		if err != nil {
			return nil, fmt.Errorf("enum value %s.%s: %w", enum.FullName, ef.Ident, err)
		}
		enum.Values = append(enum.Values, &schema.EnumValue{Name: ef.Ident, Number: number})
	}
	return enum, nil
}

// newFieldType classifies scalars; anything else is resolved once every
// file of the load is known.
func newFieldType(typeName string) schema.FieldType {
	if p, ok := schema.LookupPrimitive(typeName); ok {
		return schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: p, TypeName: typeName}
	}
	return schema.FieldType{Kind: schema.KindUnresolved, TypeName: typeName}
}

func parseNumber(s string) (int32, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return int32(n), nil
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}
