package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{" WARN ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestInitWriterText(t *testing.T) {
	t.Cleanup(func() { _ = Close() })

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: LevelWarn, Writer: &buf}))

	Info("hidden")
	Warn("primary key coerced", "entity", "User")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "primary key coerced")
	assert.Contains(t, out, "entity=User")
}

func TestInitWriterJSON(t *testing.T) {
	t.Cleanup(func() { _ = Close() })

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: LevelDebug, Writer: &buf, Format: "json"}))
	Debug("statement", "sql", "select 1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "statement", entry["msg"])
	assert.Equal(t, "select 1", entry["sql"])
	assert.Equal(t, "DEBUG", entry["level"])
}

func TestInitTwiceFails(t *testing.T) {
	t.Cleanup(func() { _ = Close() })

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Writer: &buf}))
	assert.Error(t, Init(Config{Writer: &buf}))

	require.NoError(t, Close())
	assert.NoError(t, Init(Config{Writer: &buf}))
}

func TestInitOutputPath(t *testing.T) {
	t.Cleanup(func() { _ = Close() })

	path := filepath.Join(t.TempDir(), "logs", "cabinet.log")
	require.NoError(t, Init(Config{Level: LevelInfo, OutputPath: path}))
	Info("hello")
	require.NoError(t, Close())

	assert.FileExists(t, path)
}

func TestGetLoggerLazyDefault(t *testing.T) {
	require.NoError(t, Close())
	assert.NotNil(t, GetLogger())
	require.NoError(t, Close())
}

func TestGetLoggerConcurrentClose(t *testing.T) {
	t.Cleanup(func() { _ = Close() })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.NotNil(t, GetLogger())
				Debug("tick", "j", j)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = Close()
			}
		}()
	}
	wg.Wait()
}
