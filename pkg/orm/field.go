package orm

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// declarations counts every Field ever constructed in this process. Its value
// at construction time is the field's declaration order. Never reset.
var declarations atomic.Int64

// Kind identifies the preset a Field was constructed with.
type Kind int

// Field kinds.
const (
	KindField Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindText
	KindBlob
	KindVersion
)

var kindNames = map[Kind]string{
	KindField:   "Field",
	KindString:  "StringField",
	KindInteger: "IntegerField",
	KindFloat:   "FloatField",
	KindBoolean: "BooleanField",
	KindText:    "TextField",
	KindBlob:    "BlobField",
	KindVersion: "VersionField",
}

// kindsByKeyword maps the lower-case names used in declaration files.
var kindsByKeyword = map[string]Kind{
	"field":   KindField,
	"string":  KindString,
	"integer": KindInteger,
	"float":   KindFloat,
	"boolean": KindBoolean,
	"text":    KindText,
	"blob":    KindBlob,
	"version": KindVersion,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a keyword such as "string" or "integer" to its Kind.
func ParseKind(s string) (Kind, error) {
	k, ok := kindsByKeyword[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidOption, s)
	}
	return k, nil
}

// kindPreset is the default value and column type a kind fills in when the
// caller supplied none.
type kindPreset struct {
	ddl  string
	zero func() any
}

var presets = map[Kind]kindPreset{
	KindString:  {ddl: "varchar(255)", zero: func() any { return "" }},
	KindInteger: {ddl: "bigint", zero: func() any { return int64(0) }},
	KindFloat:   {ddl: "real", zero: func() any { return float64(0) }},
	KindBoolean: {ddl: "bool", zero: func() any { return false }},
	KindText:    {ddl: "text", zero: func() any { return "" }},
	KindBlob:    {ddl: "blob", zero: func() any { return []byte{} }},
}

// Default is either a constant or a producer evaluated on every read.
type Default struct {
	value    any
	producer func() any
}

// Constant returns a Default that always yields v.
func Constant(v any) Default {
	return Default{value: v}
}

// Producer returns a Default that calls fn each time it is read. The result
// is never cached.
func Producer(fn func() any) Default {
	return Default{producer: fn}
}

// Value resolves the default.
func (d Default) Value() any {
	if d.producer != nil {
		return d.producer()
	}
	return d.value
}

// IsProducer reports whether the default is computed on each read.
func (d Default) IsProducer() bool {
	return d.producer != nil
}

func (d Default) String() string {
	if d.producer != nil {
		return "<func>"
	}
	if d.value == nil {
		return "None"
	}
	return fmt.Sprintf("%v", d.value)
}

// Field describes one column. A Field is immutable once constructed; a
// Schema holds its own validated copies.
type Field struct {
	name       string
	ddl        string
	def        Default
	primaryKey bool
	nullable   bool
	updatable  bool
	insertable bool
	kind       Kind
	order      int64

	hasDefault bool
	hasDDL     bool
}

// Option configures a Field under construction.
type Option func(*Field)

// Name sets the column name. Unnamed fields take the key they are declared
// under in BuildSchema.
func Name(name string) Option {
	return func(f *Field) { f.name = name }
}

// DefaultValue sets a constant default.
func DefaultValue(v any) Option {
	return func(f *Field) {
		f.def = Constant(v)
		f.hasDefault = true
	}
}

// DefaultFunc sets a default computed on every read, e.g. a timestamp.
func DefaultFunc(fn func() any) Option {
	return func(f *Field) {
		f.def = Producer(fn)
		f.hasDefault = true
	}
}

// WithDefault sets an already built Default.
func WithDefault(d Default) Option {
	return func(f *Field) {
		f.def = d
		f.hasDefault = true
	}
}

// PrimaryKey marks the field as the table's primary key.
func PrimaryKey() Option {
	return func(f *Field) { f.primaryKey = true }
}

// Nullable allows NULL in the column.
func Nullable() Option {
	return func(f *Field) { f.nullable = true }
}

// NotUpdatable excludes the field from UPDATE statements.
func NotUpdatable() Option {
	return func(f *Field) { f.updatable = false }
}

// NotInsertable excludes the field from INSERT statements.
func NotInsertable() Option {
	return func(f *Field) { f.insertable = false }
}

// DDL sets the raw column type clause, e.g. "varchar(50)".
func DDL(ddl string) Option {
	return func(f *Field) {
		f.ddl = ddl
		f.hasDDL = true
	}
}

func newField(kind Kind, opts []Option) *Field {
	f := &Field{
		kind:       kind,
		updatable:  true,
		insertable: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if p, ok := presets[kind]; ok {
		if !f.hasDefault {
			f.def = Constant(p.zero())
		}
		if !f.hasDDL {
			f.ddl = p.ddl
		}
	}
	f.order = declarations.Add(1)
	return f
}

// NewField constructs a field with no preset: nil default and empty DDL
// unless supplied.
func NewField(opts ...Option) *Field { return newField(KindField, opts) }

// StringField is a varchar(255) column defaulting to "".
func StringField(opts ...Option) *Field { return newField(KindString, opts) }

// IntegerField is a bigint column defaulting to 0.
func IntegerField(opts ...Option) *Field { return newField(KindInteger, opts) }

// FloatField is a real column defaulting to 0.0.
func FloatField(opts ...Option) *Field { return newField(KindFloat, opts) }

// BooleanField is a bool column defaulting to false.
func BooleanField(opts ...Option) *Field { return newField(KindBoolean, opts) }

// TextField is a text column defaulting to "".
func TextField(opts ...Option) *Field { return newField(KindText, opts) }

// BlobField is a blob column defaulting to an empty byte slice.
func BlobField(opts ...Option) *Field { return newField(KindBlob, opts) }

// VersionField is a bigint column defaulting to 0. Only the name can be set.
func VersionField(name string) *Field {
	return newField(KindVersion, []Option{Name(name), DefaultValue(int64(0)), DDL("bigint")})
}

// NewKindField constructs a field of the given kind. For KindVersion only
// the Name option is honored.
func NewKindField(kind Kind, opts ...Option) *Field {
	if kind == KindVersion {
		f := &Field{}
		for _, opt := range opts {
			opt(f)
		}
		return VersionField(f.name)
	}
	return newField(kind, opts)
}

// optionKeys are the keys FieldFromOptions recognizes.
var optionKeys = []string{"name", "default", "primary_key", "nullable", "updatable", "insertable", "ddl"}

// FieldFromOptions constructs a field of the given kind from an option map
// with keys name, default, primary_key, nullable, updatable, insertable and
// ddl. Absent keys keep their defaults. A "default" holding a func() any is
// treated as a producer. Version fields accept only "name".
func FieldFromOptions(kind Kind, options map[string]any) (*Field, error) {
	var opts []Option
	for key, raw := range options {
		if kind == KindVersion && key != "name" {
			return nil, fmt.Errorf("%w: %s accepts only a name, got %q", ErrInvalidOption, kind, key)
		}
		switch key {
		case "name", "ddl":
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidOption, key, raw)
			}
			if key == "name" {
				opts = append(opts, Name(s))
			} else {
				opts = append(opts, DDL(s))
			}
		case "default":
			switch v := raw.(type) {
			case func() any:
				opts = append(opts, DefaultFunc(v))
			case Default:
				opts = append(opts, WithDefault(v))
			default:
				opts = append(opts, DefaultValue(v))
			}
		case "primary_key", "nullable", "updatable", "insertable":
			b, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: %q must be a bool, got %T", ErrInvalidOption, key, raw)
			}
			opts = append(opts, boolOption(key, b))
		default:
			return nil, fmt.Errorf("%w: unknown key %q (known: %s)", ErrInvalidOption, key, strings.Join(optionKeys, ", "))
		}
	}
	return NewKindField(kind, opts...), nil
}

func boolOption(key string, b bool) Option {
	return func(f *Field) {
		switch key {
		case "primary_key":
			f.primaryKey = b
		case "nullable":
			f.nullable = b
		case "updatable":
			f.updatable = b
		case "insertable":
			f.insertable = b
		}
	}
}

// Name returns the column name.
func (f *Field) Name() string { return f.name }

// DDL returns the raw column type clause.
func (f *Field) DDL() string { return f.ddl }

// Kind returns the preset the field was built with.
func (f *Field) Kind() Kind { return f.kind }

// Order returns the field's declaration order.
func (f *Field) Order() int64 { return f.order }

// IsPrimaryKey reports whether the field is the primary key.
func (f *Field) IsPrimaryKey() bool { return f.primaryKey }

// IsNullable reports whether the column allows NULL.
func (f *Field) IsNullable() bool { return f.nullable }

// IsUpdatable reports whether the field appears in UPDATE statements.
func (f *Field) IsUpdatable() bool { return f.updatable }

// IsInsertable reports whether the field appears in INSERT statements.
func (f *Field) IsInsertable() bool { return f.insertable }

// Default resolves the field's default, calling its producer if it has one.
func (f *Field) Default() any { return f.def.Value() }

// DefaultSpec returns the unresolved default.
func (f *Field) DefaultSpec() Default { return f.def }

func (f *Field) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s: %s, %s, default(%s), ", f.kind, f.name, f.ddl, f.def)
	if f.nullable {
		b.WriteByte('N')
	}
	if f.updatable {
		b.WriteByte('U')
	}
	if f.insertable {
		b.WriteByte('I')
	}
	b.WriteByte('>')
	return b.String()
}

// clone copies f, keeping its declaration order.
func (f *Field) clone() *Field {
	c := *f
	return &c
}
