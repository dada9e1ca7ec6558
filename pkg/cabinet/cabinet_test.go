package cabinet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cabinet/pkg/orm"
	"github.com/mesh-intelligence/cabinet/pkg/types"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, types.Config{Backend: "oracle"})
	assert.True(t, errors.Is(err, types.ErrBackendUnknown))
}

func TestCreateTables(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	r := orm.NewRegistry()
	_, err = r.Build("Author", map[string]*orm.Field{
		"id":   orm.IntegerField(orm.PrimaryKey()),
		"name": orm.StringField(),
	})
	require.NoError(t, err)
	_, err = r.Build("Book", map[string]*orm.Field{
		"isbn":  orm.StringField(orm.PrimaryKey(), orm.DDL("varchar(13)")),
		"title": orm.StringField(),
	}, orm.WithTable("books"))
	require.NoError(t, err)

	created, err := CreateTables(ctx, s, r.Schemas())
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "books"}, created)

	created, err = CreateTables(ctx, s, r.Schemas())
	require.NoError(t, err)
	assert.Empty(t, created, "existing tables are left alone")
}

func TestCreateTablesMissingDDL(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	schema, err := orm.NewRegistry().Build("Opaque", map[string]*orm.Field{
		"id":  orm.IntegerField(orm.PrimaryKey()),
		"raw": orm.NewField(),
	})
	require.NoError(t, err)

	_, err = CreateTables(ctx, s, []*orm.Schema{schema})
	assert.True(t, errors.Is(err, orm.ErrMissingDDL))
}

// execRecorder captures the statements CreateTables runs.
type execRecorder struct {
	types.Store
	stmts []string
}

func (r *execRecorder) HasTable(context.Context, string) (bool, error) { return false, nil }

func (r *execRecorder) Exec(_ context.Context, stmt string) error {
	r.stmts = append(r.stmts, stmt)
	return nil
}

func TestCreateTablesExecutesWithoutComment(t *testing.T) {
	schema, err := orm.NewRegistry().Build("Note", map[string]*orm.Field{
		"id":    orm.IntegerField(orm.PrimaryKey()),
		"title": orm.StringField(),
	}, orm.WithTable("notes"))
	require.NoError(t, err)

	rec := &execRecorder{}
	created, err := CreateTables(context.Background(), rec, []*orm.Schema{schema})
	require.NoError(t, err)
	assert.Equal(t, []string{"notes"}, created)

	require.Len(t, rec.stmts, 1)
	assert.True(t, strings.HasPrefix(rec.stmts[0], "create table `notes` ("), "got %q", rec.stmts[0])
	assert.NotContains(t, rec.stmts[0], "--")

	ddl, err := schema.SQL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ddl, "--generating SQL for notes:\n"), "generated DDL keeps its header")
}

func TestExecutable(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"--generating SQL for t:\ncreate table `t` (\n);", "create table `t` (\n);"},
		{"-- a\n-- b\nselect 1", "select 1"},
		{"select 1", "select 1"},
		{"-- only", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, executable(tt.in))
		})
	}
}
