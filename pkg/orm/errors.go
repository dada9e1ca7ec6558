package orm

import (
	"errors"
	"fmt"
)

// Schema construction errors.
var (
	ErrNoPrimaryKey        = errors.New("primary key not defined")
	ErrMultiplePrimaryKeys = errors.New("cannot define more than one primary key")
	ErrDuplicateFieldName  = errors.New("duplicate field name")
	ErrInvalidEntity       = errors.New("entity name must not be empty")
	ErrNilField            = errors.New("field must not be nil")
	ErrInvalidOption       = errors.New("invalid field option")
)

// DDL generation errors.
var ErrMissingDDL = errors.New("no ddl in field")

// CRUD errors.
var (
	ErrMissingPrimaryKey = errors.New("primary key value not set")
	ErrNothingToUpdate   = errors.New("schema has no updatable fields")
	ErrSchemaMismatch    = errors.New("record belongs to a different schema")
	ErrNilRecord         = errors.New("entity has no record")
	ErrConvert           = errors.New("cannot convert value")
)

// SchemaError reports a failure to build the schema of one entity.
type SchemaError struct {
	Entity string
	Field  string // empty when the failure is not tied to one field
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema %s: field %q: %v", e.Entity, e.Field, e.Err)
	}
	return fmt.Sprintf("schema %s: %v", e.Entity, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// DDLError reports a failure to render a CREATE TABLE statement.
type DDLError struct {
	Table string
	Field string
	Err   error
}

func (e *DDLError) Error() string {
	return fmt.Sprintf("ddl %s: field %q: %v", e.Table, e.Field, e.Err)
}

func (e *DDLError) Unwrap() error { return e.Err }
