package schemafile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/cabinet/pkg/orm"
)

const blogYAML = `
entities:
  - name: User
    table: users
    fields:
      - {name: id, kind: string, primary_key: true, ddl: "varchar(50)", default_func: next_id}
      - {name: email, kind: string, updatable: false}
      - {name: age, kind: integer, default: 18}
      - {name: bio, kind: text, nullable: true}
      - {name: created_at, kind: float, default_func: unix_time}
      - {name: version, kind: version}
  - name: Post
    fields:
      - {name: id, kind: integer, primary_key: true}
      - {name: title, kind: string}
      - {name: draft, kind: boolean, default: true}
`

func TestParseAndRegister(t *testing.T) {
	f, err := Parse([]byte(blogYAML))
	require.NoError(t, err)
	require.Len(t, f.Entities, 2)

	r := orm.NewRegistry()
	schemas, err := f.Register(r)
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, []string{"Post", "User"}, r.Names())

	users := schemas[0]
	assert.Equal(t, "users", users.Table())
	assert.Equal(t, "id", users.PrimaryKey().Name())

	var names []string
	for _, fld := range users.Fields() {
		names = append(names, fld.Name())
	}
	assert.Equal(t, []string{"id", "email", "age", "bio", "created_at", "version"}, names, "file order is declaration order")

	id, _ := users.Field("id")
	assert.Equal(t, "varchar(50)", id.DDL())
	assert.True(t, id.DefaultSpec().IsProducer())
	assert.NotEqual(t, id.Default(), id.Default())

	email, _ := users.Field("email")
	assert.False(t, email.IsUpdatable())

	age, _ := users.Field("age")
	assert.Equal(t, int64(18), age.Default(), "scalar defaults take the column's Go type")

	bio, _ := users.Field("bio")
	assert.True(t, bio.IsNullable())

	version, _ := users.Field("version")
	assert.Equal(t, orm.KindVersion, version.Kind())
	assert.Equal(t, "bigint", version.DDL())

	posts := schemas[1]
	assert.Equal(t, "post", posts.Table())
	draft, _ := posts.Field("draft")
	assert.Equal(t, true, draft.Default())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(blogYAML), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Entities, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"empty document", "", ErrNoEntities},
		{"no entities", "entities: []", ErrNoEntities},
		{"missing entity name", "entities:\n  - fields: []", ErrEntityName},
		{"duplicate entity", "entities:\n  - name: A\n  - name: A", ErrDuplicateEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("entities:\n  - name: A\n    colour: red"))
		assert.Error(t, err)
	})
}

func TestRegisterErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "missing field name",
			yaml: "entities:\n  - name: A\n    fields:\n      - {kind: string}",
			want: ErrFieldName,
		},
		{
			name: "unknown kind",
			yaml: "entities:\n  - name: A\n    fields:\n      - {name: x, kind: decimal}",
			want: orm.ErrInvalidOption,
		},
		{
			name: "unknown default func",
			yaml: "entities:\n  - name: A\n    fields:\n      - {name: x, kind: string, default_func: tomorrow}",
			want: ErrUnknownDefaultFunc,
		},
		{
			name: "both defaults",
			yaml: "entities:\n  - name: A\n    fields:\n      - {name: x, kind: string, default: a, default_func: now}",
			want: ErrConflictingDefault,
		},
		{
			name: "version with options",
			yaml: "entities:\n  - name: A\n    fields:\n      - {name: v, kind: version, nullable: true}",
			want: orm.ErrInvalidOption,
		},
		{
			name: "default of wrong type",
			yaml: "entities:\n  - name: A\n    fields:\n      - {name: n, kind: integer, default: many}",
			want: orm.ErrConvert,
		},
		{
			name: "no primary key",
			yaml: "entities:\n  - name: A\n    fields:\n      - {name: x, kind: string}",
			want: orm.ErrNoPrimaryKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = f.Register(orm.NewRegistry())
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
