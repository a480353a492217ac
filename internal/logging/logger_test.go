package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "debug", Format: "json"}, &buf))

	NewModuleLogger("server", "students").Debug("enrolled", "name", "ada")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "enrolled", rec["msg"])
	assert.Equal(t, "server", rec["module"])
	assert.Equal(t, "students", rec["component"])
	assert.Equal(t, "calctutor", rec["service"])
}

func TestInitLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "warn"}, &buf))

	Logger().Info("hidden")
	Logger().Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	require.NoError(t, Init(Config{File: path}, os.Stderr))
	Logger().Info("to file")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "to file"))
}

func TestInitDiscard(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{File: "-"}, &buf))
	Logger().Error("nothing")
	assert.Empty(t, buf.String())
}
