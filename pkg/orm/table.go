package orm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/cabinet/internal/logging"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

// Table runs CRUD operations for one schema through a data-access
// collaborator. It holds no mutable state and is safe for concurrent use
// when the collaborator is.
type Table[E Entity] struct {
	schema *Schema
	db     types.DataAccess
	wrap   func(*Record) E
}

// NewTable returns a Table whose read operations wrap each loaded record
// with wrap, so that results carry the entity type's hooks.
func NewTable[E Entity](schema *Schema, db types.DataAccess, wrap func(*Record) E) *Table[E] {
	return &Table[E]{schema: schema, db: db, wrap: wrap}
}

// NewRecordTable returns a Table over bare records.
func NewRecordTable(schema *Schema, db types.DataAccess) *Table[*Record] {
	return NewTable(schema, db, func(r *Record) *Record { return r })
}

// Schema returns the table's schema.
func (t *Table[E]) Schema() *Schema { return t.schema }

// New returns an entity holding a copy of values. Unset fields take their
// defaults on insert or update.
func (t *Table[E]) New(values map[string]any) E {
	return t.wrap(NewRecord(t.schema, values))
}

// Get loads the row whose primary key equals pk.
// Returns types.ErrNotFound if there is none.
func (t *Table[E]) Get(ctx context.Context, pk any) (E, error) {
	query := fmt.Sprintf("select * from %s where %s=?", quote(t.schema.table), quote(t.schema.pk.name))
	return t.selectOne(ctx, query, pk)
}

// FindFirst loads the first row matching where, a raw fragment such as
// "where name=? order by id", with args bound to its placeholders.
// Returns types.ErrNotFound if there is none.
func (t *Table[E]) FindFirst(ctx context.Context, where string, args ...any) (E, error) {
	return t.selectOne(ctx, t.selectSQL(where), args...)
}

// FindAll loads every row of the table.
func (t *Table[E]) FindAll(ctx context.Context) ([]E, error) {
	return t.selectMany(ctx, t.selectSQL(""))
}

// FindBy loads every row matching where. No match is an empty slice.
func (t *Table[E]) FindBy(ctx context.Context, where string, args ...any) ([]E, error) {
	return t.selectMany(ctx, t.selectSQL(where), args...)
}

// CountAll returns the number of rows.
func (t *Table[E]) CountAll(ctx context.Context) (int64, error) {
	return t.count(ctx, "")
}

// CountBy returns the number of rows matching where.
func (t *Table[E]) CountBy(ctx context.Context, where string, args ...any) (int64, error) {
	return t.count(ctx, where, args...)
}

// Insert runs the entity's PreInsert hook, stores the default of every unset
// insertable field onto the record, and inserts the insertable fields.
// The record keeps its materialized defaults even if the insert fails.
func (t *Table[E]) Insert(ctx context.Context, e E) (E, error) {
	r, err := t.record(e)
	if err != nil {
		return e, err
	}
	if h, ok := any(e).(PreInserter); ok {
		if err := h.PreInsert(); err != nil {
			return e, fmt.Errorf("pre-insert %s: %w", t.schema.entity, err)
		}
	}

	row := make(types.Row, len(t.schema.fields))
	for _, f := range t.schema.fields {
		if f.insertable {
			row[f.name] = r.resolve(f)
		}
	}
	if err := t.db.Insert(ctx, t.schema.table, row); err != nil {
		return e, fmt.Errorf("insert %s: %w", t.schema.entity, err)
	}
	return e, nil
}

// Update runs the entity's PreUpdate hook and writes every updatable field,
// storing defaults of unset ones onto the record, to the row identified by
// the record's primary key. The primary key itself is never written.
func (t *Table[E]) Update(ctx context.Context, e E) (E, error) {
	r, err := t.record(e)
	if err != nil {
		return e, err
	}
	if h, ok := any(e).(PreUpdater); ok {
		if err := h.PreUpdate(); err != nil {
			return e, fmt.Errorf("pre-update %s: %w", t.schema.entity, err)
		}
	}
	pk, ok := r.PrimaryKey()
	if !ok {
		return e, fmt.Errorf("update %s: %w", t.schema.entity, ErrMissingPrimaryKey)
	}

	var sets []string
	var args []any
	for _, f := range t.schema.fields {
		if f.updatable {
			sets = append(sets, quote(f.name)+"=?")
			args = append(args, r.resolve(f))
		}
	}
	if len(sets) == 0 {
		return e, fmt.Errorf("update %s: %w", t.schema.entity, ErrNothingToUpdate)
	}
	args = append(args, pk)

	query := fmt.Sprintf("update %s set %s where %s=?",
		quote(t.schema.table), strings.Join(sets, ","), quote(t.schema.pk.name))
	n, err := t.db.Update(ctx, query, args...)
	if err != nil {
		return e, fmt.Errorf("update %s: %w", t.schema.entity, err)
	}
	logging.Debug("updated", "entity", t.schema.entity, "rows", n)
	return e, nil
}

// Delete runs the entity's PreDelete hook and deletes the row identified by
// the record's primary key.
func (t *Table[E]) Delete(ctx context.Context, e E) (E, error) {
	r, err := t.record(e)
	if err != nil {
		return e, err
	}
	if h, ok := any(e).(PreDeleter); ok {
		if err := h.PreDelete(); err != nil {
			return e, fmt.Errorf("pre-delete %s: %w", t.schema.entity, err)
		}
	}
	pk, ok := r.PrimaryKey()
	if !ok {
		return e, fmt.Errorf("delete %s: %w", t.schema.entity, ErrMissingPrimaryKey)
	}

	query := fmt.Sprintf("delete from %s where %s=?", quote(t.schema.table), quote(t.schema.pk.name))
	n, err := t.db.Update(ctx, query, pk)
	if err != nil {
		return e, fmt.Errorf("delete %s: %w", t.schema.entity, err)
	}
	logging.Debug("deleted", "entity", t.schema.entity, "rows", n)
	return e, nil
}

// record extracts and checks the record behind e.
func (t *Table[E]) record(e E) (*Record, error) {
	r := e.Data()
	if r == nil {
		return nil, ErrNilRecord
	}
	if r.schema != t.schema {
		return nil, fmt.Errorf("%w: %s is not %s", ErrSchemaMismatch, r.schema, t.schema)
	}
	return r, nil
}

func (t *Table[E]) selectSQL(where string) string {
	return withWhere("select * from "+quote(t.schema.table), where)
}

func (t *Table[E]) count(ctx context.Context, where string, args ...any) (int64, error) {
	query := withWhere(fmt.Sprintf("select count(%s) from %s", quote(t.schema.pk.name), quote(t.schema.table)), where)
	n, err := t.db.SelectInt(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.schema.entity, err)
	}
	return n, nil
}

func (t *Table[E]) selectOne(ctx context.Context, query string, args ...any) (E, error) {
	var zero E
	row, err := t.db.SelectOne(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("select %s: %w", t.schema.entity, err)
	}
	return t.fromRow(row)
}

func (t *Table[E]) selectMany(ctx context.Context, query string, args ...any) ([]E, error) {
	rows, err := t.db.Select(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.schema.entity, err)
	}
	out := make([]E, 0, len(rows))
	for _, row := range rows {
		e, err := t.fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// fromRow converts a result row into an entity, coercing values of known
// columns to their field's Go type.
func (t *Table[E]) fromRow(row types.Row) (E, error) {
	r := NewRecord(t.schema, nil)
	for col, v := range row {
		if f, ok := t.schema.byName[col]; ok {
			cv, err := ConvertValue(f, v)
			if err != nil {
				var zero E
				return zero, fmt.Errorf("load %s: %w", t.schema.entity, err)
			}
			v = cv
		}
		r.values[col] = v
	}
	return t.wrap(r), nil
}

// withWhere appends a caller-supplied fragment, if any, separated by a space.
func withWhere(query, where string) string {
	where = strings.TrimSpace(where)
	if where == "" {
		return query
	}
	return query + " " + where
}
