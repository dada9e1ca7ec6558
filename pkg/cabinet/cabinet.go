// Package cabinet is the public entry point for opening a store that the
// mapping layer in pkg/orm runs its statements against.
//
// Example:
//
//	store, err := cabinet.Open(ctx, types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".cabinet-db",
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	users := orm.NewRecordTable(userSchema, store)
package cabinet

import (
	"context"
	"strings"

	"github.com/mesh-intelligence/cabinet/internal/store"
	"github.com/mesh-intelligence/cabinet/pkg/orm"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

// Open validates cfg and connects to the configured backend.
func Open(ctx context.Context, cfg types.Config) (types.Store, error) {
	s, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateTables runs the create table statement of every schema that does not
// have a table yet, in declaration order. It returns the names of the tables
// it created.
func CreateTables(ctx context.Context, s types.Store, schemas []*orm.Schema) ([]string, error) {
	var created []string
	for _, schema := range schemas {
		exists, err := s.HasTable(ctx, schema.Table())
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}
		ddl, err := schema.SQL()
		if err != nil {
			return created, err
		}
		if err := s.Exec(ctx, executable(ddl)); err != nil {
			return created, err
		}
		created = append(created, schema.Table())
	}
	return created, nil
}

// executable drops the leading "--" comment lines of generated DDL. MySQL
// only reads "--" as a comment when whitespace follows it.
func executable(ddl string) string {
	for strings.HasPrefix(ddl, "--") {
		i := strings.IndexByte(ddl, '\n')
		if i < 0 {
			return ""
		}
		ddl = ddl[i+1:]
	}
	return ddl
}
