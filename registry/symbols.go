package registry

import (
	"fmt"
	"strings"

	"github.com/anirudhraja/protoview/schema"
)

// symbolTable maps fully qualified names to definitions.
type symbolTable struct {
	messages map[string]*schema.Message
	enums    map[string]*schema.Enum
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		messages: make(map[string]*schema.Message),
		enums:    make(map[string]*schema.Enum),
	}
}

func (s *symbolTable) clone() *symbolTable {
	c := &symbolTable{
		messages: make(map[string]*schema.Message, len(s.messages)),
		enums:    make(map[string]*schema.Enum, len(s.enums)),
	}
	for name, msg := range s.messages {
		c.messages[name] = msg
	}
	for name, enum := range s.enums {
		c.enums[name] = enum
	}
	return c
}

func (s *symbolTable) addFile(pf *schema.ProtoFile) {
	for _, msg := range pf.Messages {
		s.addMessage(msg)
	}
	for _, enum := range pf.Enums {
		s.enums[enum.FullName] = enum
	}
}

func (s *symbolTable) addMessage(msg *schema.Message) {
	s.messages[msg.FullName] = msg
	for _, nested := range msg.NestedTypes {
		s.addMessage(nested)
	}
	for _, enum := range msg.NestedEnums {
		s.enums[enum.FullName] = enum
	}
}

func (s *symbolTable) has(name string) bool {
	if _, ok := s.messages[name]; ok {
		return true
	}
	_, ok := s.enums[name]
	return ok
}

// lookup finds the definition typeName refers to from inside scope. A
// leading dot makes the name absolute; otherwise enclosing scopes are tried
// innermost first, then the name as written.
func (s *symbolTable) lookup(typeName, scope string) (string, bool) {
	if strings.HasPrefix(typeName, ".") {
		name := typeName[1:]
		return name, s.has(name)
	}
	for scope != "" {
		if candidate := scope + "." + typeName; s.has(candidate) {
			return candidate, true
		}
		i := strings.LastIndexByte(scope, '.')
		if i < 0 {
			break
		}
		scope = scope[:i]
	}
	return typeName, s.has(typeName)
}

// resolveFile turns every type reference in the file's messages into a
// fully qualified message or enum name.
func (s *symbolTable) resolveFile(pf *schema.ProtoFile) error {
	for _, msg := range pf.Messages {
		if err := s.resolveMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *symbolTable) resolveMessage(msg *schema.Message) error {
	for _, field := range msg.Fields {
		types := []*schema.FieldType{&field.Type}
		if field.Type.Kind == schema.KindMap {
			types = []*schema.FieldType{field.Type.MapKey, field.Type.MapValue}
		}
		for _, ft := range types {
			if err := s.resolveType(ft, msg.FullName); err != nil {
				return fmt.Errorf("field %s.%s: %w", msg.FullName, field.Name, err)
			}
		}
	}
	for _, nested := range msg.NestedTypes {
		if err := s.resolveMessage(nested); err != nil {
			return err
		}
	}
	return nil
}

func (s *symbolTable) resolveType(ft *schema.FieldType, scope string) error {
	if ft.Kind != schema.KindUnresolved {
		return nil
	}
	name, ok := s.lookup(ft.TypeName, scope)
	if !ok {
		if strings.HasPrefix(ft.TypeName, ".") {
			return fmt.Errorf("unable to resolve fully qualified type name: %s", ft.TypeName)
		}
		return fmt.Errorf("unable to resolve type name: %s", ft.TypeName)
	}
	if _, ok := s.messages[name]; ok {
		ft.Kind = schema.KindMessage
		ft.MessageType = name
		return nil
	}
	ft.Kind = schema.KindEnum
	ft.EnumType = name
	return nil
}
