package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/anirudhraja/protoview/schema"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrEnumNotFound    = errors.New("enum not found")
)

// Registry allows us to store the schema of the protobuf messages. We look this up when we need to parse a message.
type Registry struct {
	// ProtoDirectories are searched, in order, for files passed to
	// LoadSchemaFromFile and for their imports.
	ProtoDirectories []string

	repo    *schema.ProtoRepo
	symbols *symbolTable
}

func NewRegistry(protoDirs []string) *Registry {
	if len(protoDirs) == 0 {
		protoDirs = []string{""}
	}
	return &Registry{
		ProtoDirectories: protoDirs,
		repo: &schema.ProtoRepo{
			ProtoFiles: make(map[string]*schema.ProtoFile),
		},
		symbols: newSymbolTable(),
	}
}

// LoadSchemaFromFile parses protoFile and every file it imports, then
// registers their messages and enums under fully qualified names. The
// registry is left untouched unless every file parses and every type
// reference resolves.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	l := newLoader(r.ProtoDirectories, r.repo.ProtoFiles)
	if err := l.load(protoFile); err != nil {
		return fmt.Errorf("failed to load proto file %s: %w", protoFile, err)
	}

	staged := r.symbols.clone()
	for _, lf := range l.files {
		staged.addFile(lf.proto)
	}
	for _, lf := range l.files {
		if err := staged.resolveFile(lf.proto); err != nil {
			return fmt.Errorf("failed to resolve types in %s: %w", lf.proto.Name, err)
		}
	}

	for _, lf := range l.files {
		r.repo.ProtoFiles[lf.path] = lf.proto
	}
	r.symbols = staged
	return nil
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	name = strings.TrimPrefix(name, ".")
	if msg, exists := r.symbols.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	for _, fullName := range r.ListMessages() {
		if strings.HasSuffix(fullName, "."+name) {
			return r.symbols.messages[fullName], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, name)
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	name = strings.TrimPrefix(name, ".")
	if enum, exists := r.symbols.enums[name]; exists {
		return enum, nil
	}

	// Try without package prefix
	for _, fullName := range r.ListEnums() {
		if strings.HasSuffix(fullName, "."+name) {
			return r.symbols.enums[fullName], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrEnumNotFound, name)
}

// ListMessages returns all registered message names, sorted
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.symbols.messages))
	for name := range r.symbols.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListEnums returns all registered enum names, sorted
func (r *Registry) ListEnums() []string {
	names := make([]string, 0, len(r.symbols.enums))
	for name := range r.symbols.enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProtoFiles returns the loaded files keyed by resolved path.
func (r *Registry) ProtoFiles() map[string]*schema.ProtoFile {
	return r.repo.ProtoFiles
}
