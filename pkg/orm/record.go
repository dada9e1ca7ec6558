package orm

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Entity is anything backed by a Record. Entity types usually embed *Record
// and add lifecycle hooks.
type Entity interface {
	Data() *Record
}

// PreInserter is implemented by entities that adjust their record before
// an insert, e.g. to stamp a creation time.
type PreInserter interface {
	PreInsert() error
}

// PreUpdater is implemented by entities that adjust their record before an
// update.
type PreUpdater interface {
	PreUpdate() error
}

// PreDeleter is implemented by entities that run logic before a delete.
type PreDeleter interface {
	PreDelete() error
}

// Record holds the column values of one row, bound to its schema. A Record
// is owned by one caller at a time.
type Record struct {
	schema *Schema
	values map[string]any
}

// NewRecord returns a record for schema holding a copy of values.
func NewRecord(schema *Schema, values map[string]any) *Record {
	r := &Record{
		schema: schema,
		values: make(map[string]any, len(values)),
	}
	for k, v := range values {
		r.values[k] = v
	}
	return r
}

// Data returns r, making *Record an Entity.
func (r *Record) Data() *Record { return r }

// Schema returns the schema the record is bound to.
func (r *Record) Schema() *Schema { return r.schema }

// Get returns the value stored under name and whether it is set.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set stores v under name.
func (r *Record) Set(name string, v any) {
	r.values[name] = v
}

// Has reports whether name is set.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Unset removes name so that its default applies on the next write.
func (r *Record) Unset(name string) {
	delete(r.values, name)
}

// Len returns the number of set values.
func (r *Record) Len() int { return len(r.values) }

// Map returns a copy of the set values.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// PrimaryKey returns the primary key value and whether it is set.
func (r *Record) PrimaryKey() (any, bool) {
	return r.Get(r.schema.pk.name)
}

// resolve returns the value of f, materializing its default onto the record
// when unset.
func (r *Record) resolve(f *Field) any {
	if v, ok := r.values[f.name]; ok {
		return v
	}
	v := f.Default()
	r.values[f.name] = v
	return v
}

// keys returns the set names: schema fields in declaration order, then any
// extra columns sorted by name.
func (r *Record) keys() []string {
	keys := make([]string, 0, len(r.values))
	known := make(map[string]bool, len(r.schema.fields))
	for _, f := range r.schema.fields {
		known[f.name] = true
		if _, ok := r.values[f.name]; ok {
			keys = append(keys, f.name)
		}
	}
	var extra []string
	for k := range r.values {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// MarshalJSON encodes the record as an object whose keys follow declaration
// order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
