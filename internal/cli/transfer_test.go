package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImport(t *testing.T) {
	src := newTestEnv(t, usersYAML)
	_, _, err := src.run(t, "init")
	require.NoError(t, err)
	for _, rec := range []string{
		`{"id":1,"email":"ann@example.com","name":"Ann"}`,
		`{"id":2,"email":"bo@example.com","name":"Bo","admin":true}`,
	} {
		_, _, err := src.run(t, "insert", "User", rec)
		require.NoError(t, err)
	}

	out, _, err := src.run(t, "export", "User")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":1,"email":"ann@example.com","name":"Ann","admin":false}`, lines[0])

	file := filepath.Join(t.TempDir(), "users.jsonl")
	_, stderr, err := src.run(t, "export", "User", file)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported 2 User records")

	dst := newTestEnv(t, usersYAML)
	_, _, err = dst.run(t, "init")
	require.NoError(t, err)

	out, _, err = dst.run(t, "import", "User", file, "--json")
	require.NoError(t, err)
	got := decodeObject(t, out)
	assert.Equal(t, float64(2), got["imported"])
	assert.Equal(t, float64(0), got["skipped"])

	out, _, err = dst.run(t, "get", "User", "2", "--json")
	require.NoError(t, err)
	assert.Equal(t, true, decodeObject(t, out)["admin"])
}

func TestImportTolerance(t *testing.T) {
	e := newTestEnv(t, usersYAML)
	_, _, err := e.run(t, "init")
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "in.jsonl")
	content := `{"id":1,"email":"a@example.com","name":"A","legacy":"x"}` + "\n" +
		"{not json\n" +
		`{"id":2,"email":"b@example.com","name":"B"}` + "\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	out, stderr, err := e.run(t, "import", "User", file)
	require.NoError(t, err)
	assert.Equal(t, "Imported 2 User records\n", out)
	assert.Contains(t, stderr, "skipped malformed lines")
	assert.Contains(t, stderr, "ignored undeclared fields")
}

func TestImportErrors(t *testing.T) {
	e := newTestEnv(t, usersYAML)
	_, _, err := e.run(t, "init")
	require.NoError(t, err)

	_, _, err = e.run(t, "import", "User", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Equal(t, exitUserError, exitCode(err))

	file := filepath.Join(t.TempDir(), "dup.jsonl")
	dup := `{"id":5,"email":"d@example.com","name":"D"}` + "\n"
	require.NoError(t, os.WriteFile(file, []byte(dup+dup), 0o644))
	_, _, err = e.run(t, "import", "User", file)
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
	assert.Contains(t, err.Error(), "record 2")
	assert.Contains(t, err.Error(), "(1 imported)")
}

func TestImportFromStdin(t *testing.T) {
	e := newTestEnv(t, usersYAML)
	_, _, err := e.run(t, "init")
	require.NoError(t, err)

	cmd := NewRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"id":9,"email":"s@example.com","name":"S"}` + "\n"))
	cmd.SetArgs([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir, "--schema", e.schema, "import", "User", "-"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Imported 1 User records\n", stdout.String())
}

const docsYAML = `entities:
  - name: Doc
    fields:
      - {name: id, kind: integer, primary_key: true}
      - {name: body, kind: blob}
`

func TestExportImportBlob(t *testing.T) {
	src := newTestEnv(t, docsYAML)
	_, _, err := src.run(t, "init")
	require.NoError(t, err)

	_, _, err = src.run(t, "insert", "Doc", `{"id":1,"body":"aGVsbG8="}`)
	require.NoError(t, err)

	out, _, err := src.run(t, "get", "Doc", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "body: hello\n")

	file := filepath.Join(t.TempDir(), "docs.jsonl")
	_, _, err = src.run(t, "export", "Doc", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"body":"aGVsbG8="}`, strings.TrimSpace(string(data)))

	dst := newTestEnv(t, docsYAML)
	_, _, err = dst.run(t, "init")
	require.NoError(t, err)
	_, _, err = dst.run(t, "import", "Doc", file)
	require.NoError(t, err)

	out, _, err = dst.run(t, "get", "Doc", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "body: hello\n")
}

func TestInsertBlobRejectsInvalidBase64(t *testing.T) {
	e := newTestEnv(t, docsYAML)
	_, _, err := e.run(t, "init")
	require.NoError(t, err)

	_, _, err = e.run(t, "insert", "Doc", `{"id":1,"body":"not base64!"}`)
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestLargeIntegersKeepPrecision(t *testing.T) {
	e := newTestEnv(t, docsYAML)
	_, _, err := e.run(t, "init")
	require.NoError(t, err)

	_, _, err = e.run(t, "insert", "Doc", `{"id":9007199254740993}`)
	require.NoError(t, err)

	out, _, err := e.run(t, "list", "Doc")
	require.NoError(t, err)
	assert.Contains(t, out, "9007199254740993")

	file := filepath.Join(t.TempDir(), "docs.jsonl")
	require.NoError(t, os.WriteFile(file, []byte(`{"id":9007199254740995}`+"\n"), 0o644))
	_, _, err = e.run(t, "import", "Doc", file)
	require.NoError(t, err)

	out, _, err = e.run(t, "get", "Doc", "9007199254740995")
	require.NoError(t, err)
	assert.Contains(t, out, "id: 9007199254740995\n")
}
