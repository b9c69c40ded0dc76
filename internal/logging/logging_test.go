package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	tests := []struct {
		name    string
		logsDir string
		appName string
		want    string
	}{
		{
			name:    "basic path",
			logsDir: "rsbotlogs",
			appName: "rsbot",
			want:    filepath.Join("rsbotlogs", "rsbot.20260212_213836.log"),
		},
		{
			name:    "relative path with dot",
			logsDir: "./rsbotlogs",
			appName: "rsbot",
			want:    filepath.Join(".", "rsbotlogs", "rsbot.20260212_213836.log"),
		},
		{
			name:    "absolute path",
			logsDir: filepath.Join("/var", "log", "rsbot"),
			appName: "rsbot",
			want:    filepath.Join("/var", "log", "rsbot", "rsbot.20260212_213836.log"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, tt.appName, sessionStart))
		})
	}
}

func TestOpenLogFile_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	f, err := OpenLogFile(dir, "rsbot", start)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	_, err = os.Stat(LogFilePath(dir, "rsbot", start))
	assert.NoError(t, err)
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "warn", "database")

	logger.Info().Msg("dropped")
	logger.Warn().Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "database", entry["component"])
}

func TestNewZerolog_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, "loud", "x")

	logger.Debug().Msg("dropped")
	assert.Empty(t, buf.String())
	logger.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}
