package orm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/cabinet/internal/logging"
)

// Schema is the frozen mapping of one entity onto one table.
type Schema struct {
	entity string
	table  string
	fields []*Field // ascending declaration order
	byName map[string]*Field
	pk     *Field
}

// Entity returns the declared entity name.
func (s *Schema) Entity() string { return s.entity }

// Table returns the table name.
func (s *Schema) Table() string { return s.table }

// PrimaryKey returns the primary key field.
func (s *Schema) PrimaryKey() *Field { return s.pk }

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the field with the given column name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// SQL renders the schema's CREATE TABLE statement.
func (s *Schema) SQL() (string, error) {
	return CreateTableSQL(s)
}

// SchemaOption configures BuildSchema.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	table string
}

// WithTable overrides the table name, which otherwise is the entity name in
// lower case.
func WithTable(table string) SchemaOption {
	return func(c *schemaConfig) { c.table = table }
}

// Registry holds built schemas keyed by entity name.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// DefaultRegistry is the process-wide registry used by BuildSchema.
var DefaultRegistry = NewRegistry()

// BuildSchema validates fields and registers the resulting schema in
// DefaultRegistry.
func BuildSchema(entity string, fields map[string]*Field, opts ...SchemaOption) (*Schema, error) {
	return DefaultRegistry.Build(entity, fields, opts...)
}

// Lookup returns the schema registered in DefaultRegistry under entity.
func Lookup(entity string) (*Schema, bool) {
	return DefaultRegistry.Lookup(entity)
}

// Build validates fields and registers the resulting schema under entity.
//
// Unnamed fields take their map key as name. Exactly one field must be the
// primary key; it is forced non-nullable and non-updatable, with a warning
// when the declaration said otherwise. Redefining an entity replaces the
// previous schema and logs a warning.
func (r *Registry) Build(entity string, fields map[string]*Field, opts ...SchemaOption) (*Schema, error) {
	if entity == "" {
		return nil, &SchemaError{Err: ErrInvalidEntity}
	}
	cfg := schemaConfig{table: strings.ToLower(entity)}
	for _, opt := range opts {
		opt(&cfg)
	}

	logging.Info("scan mapping", "entity", entity)

	keys := make([]string, 0, len(fields))
	for k, f := range fields {
		if f == nil {
			return nil, &SchemaError{Entity: entity, Field: k, Err: ErrNilField}
		}
		keys = append(keys, k)
	}
	// Process in declaration order so warnings and errors are reproducible.
	sort.Slice(keys, func(i, j int) bool {
		return fields[keys[i]].order < fields[keys[j]].order
	})

	s := &Schema{
		entity: entity,
		table:  cfg.table,
		fields: make([]*Field, 0, len(keys)),
		byName: make(map[string]*Field, len(keys)),
	}
	for _, k := range keys {
		f := fields[k].clone()
		if f.name == "" {
			f.name = k
		}
		if _, dup := s.byName[f.name]; dup {
			return nil, &SchemaError{Entity: entity, Field: f.name, Err: ErrDuplicateFieldName}
		}
		logging.Debug("found mapping", "entity", entity, "key", k, "field", f.String())

		if f.primaryKey {
			if s.pk != nil {
				return nil, &SchemaError{Entity: entity, Field: f.name, Err: ErrMultiplePrimaryKeys}
			}
			if f.updatable {
				logging.Warn("change primary key to non-updatable", "entity", entity, "field", f.name)
				f.updatable = false
			}
			if f.nullable {
				logging.Warn("change primary key to non-nullable", "entity", entity, "field", f.name)
				f.nullable = false
			}
			s.pk = f
		}
		s.byName[f.name] = f
		s.fields = append(s.fields, f)
	}
	if s.pk == nil {
		return nil, &SchemaError{Entity: entity, Err: ErrNoPrimaryKey}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[entity]; exists {
		logging.Warn("redefine entity", "entity", entity)
	}
	r.schemas[entity] = s
	return s, nil
}

// Lookup returns the schema registered under entity.
func (r *Registry) Lookup(entity string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[entity]
	return s, ok
}

// Names returns the registered entity names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the registered schemas ordered by the declaration order of
// their first field, which is the order the entities were declared in.
func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].fields[0].order < out[j].fields[0].order
	})
	return out
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.schemas)
}

func (s *Schema) String() string {
	return fmt.Sprintf("%s(%s)", s.entity, s.table)
}
