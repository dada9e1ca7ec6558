package jsonl

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantCount   int
		wantSkipped int
	}{
		{"empty input", "", 0, 0},
		{"one record", `{"id":1}` + "\n", 1, 0},
		{"no trailing newline", `{"id":1}` + "\n" + `{"id":2}`, 2, 0},
		{"blank lines ignored", "\n" + `{"id":1}` + "\n\n", 1, 0},
		{"malformed lines skipped", `{"id":1}` + "\n{broken\n" + `{"id":3}` + "\n", 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, skipped, err := Read(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Len(t, records, tt.wantCount)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []json.RawMessage{
		json.RawMessage(`{"id":1}`),
		json.RawMessage(`{"id":2}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"id\":1}\n{\"id\":2}\n", buf.String())
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "users.jsonl")

	require.NoError(t, WriteFile(path, []json.RawMessage{json.RawMessage(`{"id":1}`)}))
	require.NoError(t, WriteFile(path, []json.RawMessage{json.RawMessage(`{"id":2}`)}))

	records, skipped, err := ReadFile(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"id":2}`, string(records[0]))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
