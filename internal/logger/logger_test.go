package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/samvad-hq/apiprobe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONWithLevelFilter(t *testing.T) {
	t.Cleanup(func() { S = nil })

	var buf bytes.Buffer
	_, err := initWithWriter(&config.Config{AppName: "apiprobe", Env: "test", LogLevel: "warn"}, &buf)
	require.NoError(t, err)

	InfoObj("dropped", "k", "v")
	WarnObj("kept", "detail", map[string]any{"port": 3000})
	require.NoError(t, Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "apiprobe", entry["app"])
	assert.Contains(t, entry, "ts")
	assert.Equal(t, map[string]any{"port": 3000.0}, entry["detail"])
}

func TestDefaultFallsBackToNop(t *testing.T) {
	S = nil
	_, ok := Default().(NopLogger)
	assert.True(t, ok)
	assert.NoError(t, Close())
}
