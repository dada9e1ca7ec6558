// Package schemafile reads entity declarations from YAML and registers them
// as orm schemas. A file looks like:
//
//	entities:
//	  - name: User
//	    table: users
//	    fields:
//	      - {name: id, kind: string, primary_key: true, default_func: next_id}
//	      - {name: email, kind: string, updatable: false}
//	      - {name: version, kind: version}
//
// Fields keep the order they are listed in.
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/cabinet/pkg/orm"
)

// Declaration errors.
var (
	ErrNoEntities         = errors.New("no entities declared")
	ErrEntityName         = errors.New("entity name is required")
	ErrDuplicateEntity    = errors.New("entity declared twice")
	ErrFieldName          = errors.New("field name is required")
	ErrUnknownDefaultFunc = errors.New("unknown default_func")
	ErrConflictingDefault = errors.New("default and default_func are mutually exclusive")
)

// defaultFuncs are the producers a declaration may name in default_func.
var defaultFuncs = map[string]func() any{
	"next_id":   orm.NextIDProducer,
	"now":       orm.Now,
	"unix_time": orm.UnixTime,
}

// File is a parsed declaration file.
type File struct {
	Entities []Entity `yaml:"entities"`
}

// Entity declares one mapped entity.
type Entity struct {
	Name   string  `yaml:"name"`
	Table  string  `yaml:"table,omitempty"`
	Fields []Field `yaml:"fields"`
}

// Field declares one column. Unset options keep the kind's defaults.
type Field struct {
	Name        string  `yaml:"name"`
	Kind        string  `yaml:"kind"`
	PrimaryKey  *bool   `yaml:"primary_key,omitempty"`
	Nullable    *bool   `yaml:"nullable,omitempty"`
	Updatable   *bool   `yaml:"updatable,omitempty"`
	Insertable  *bool   `yaml:"insertable,omitempty"`
	DDL         *string `yaml:"ddl,omitempty"`
	Default     any     `yaml:"default,omitempty"`
	DefaultFunc string  `yaml:"default_func,omitempty"`
}

// Load reads and parses the declaration file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a declaration file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}
	if len(f.Entities) == 0 {
		return nil, ErrNoEntities
	}

	seen := make(map[string]bool, len(f.Entities))
	for i, e := range f.Entities {
		if e.Name == "" {
			return nil, fmt.Errorf("entity %d: %w", i, ErrEntityName)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEntity, e.Name)
		}
		seen[e.Name] = true
	}
	return &f, nil
}

// Register builds every entity in r, in file order, and returns the
// schemas. Entities built before a failing one stay registered.
func (f *File) Register(r *orm.Registry) ([]*orm.Schema, error) {
	schemas := make([]*orm.Schema, 0, len(f.Entities))
	for _, e := range f.Entities {
		s, err := e.build(r)
		if err != nil {
			return schemas, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func (e Entity) build(r *orm.Registry) (*orm.Schema, error) {
	fields := make(map[string]*orm.Field, len(e.Fields))
	for i, decl := range e.Fields {
		if decl.Name == "" {
			return nil, fmt.Errorf("entity %s field %d: %w", e.Name, i, ErrFieldName)
		}
		field, err := decl.field()
		if err != nil {
			return nil, fmt.Errorf("entity %s field %s: %w", e.Name, decl.Name, err)
		}
		fields[decl.Name] = field
	}

	var opts []orm.SchemaOption
	if e.Table != "" {
		opts = append(opts, orm.WithTable(e.Table))
	}
	return r.Build(e.Name, fields, opts...)
}

// field constructs the orm field through its option map.
func (d Field) field() (*orm.Field, error) {
	kind, err := orm.ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}

	options := map[string]any{"name": d.Name}
	setBool := func(key string, v *bool) {
		if v != nil {
			options[key] = *v
		}
	}
	setBool("primary_key", d.PrimaryKey)
	setBool("nullable", d.Nullable)
	setBool("updatable", d.Updatable)
	setBool("insertable", d.Insertable)
	if d.DDL != nil {
		options["ddl"] = *d.DDL
	}

	switch {
	case d.DefaultFunc != "" && d.Default != nil:
		return nil, ErrConflictingDefault
	case d.DefaultFunc != "":
		fn, ok := defaultFuncs[d.DefaultFunc]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDefaultFunc, d.DefaultFunc)
		}
		options["default"] = fn
	case d.Default != nil:
		v, err := d.convertDefault(kind, options)
		if err != nil {
			return nil, err
		}
		options["default"] = v
	}
	return orm.FieldFromOptions(kind, options)
}

// convertDefault coerces a YAML scalar to the column's Go type, so that an
// integer column declared with "default: 5" defaults to int64(5).
func (d Field) convertDefault(kind orm.Kind, options map[string]any) (any, error) {
	probe, err := orm.FieldFromOptions(kind, options)
	if err != nil {
		return nil, err
	}
	return orm.ConvertValue(probe, d.Default)
}
