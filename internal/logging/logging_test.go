package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.input), "ParseLevel(%q)", tt.input)
	}
}

func TestBuildWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := BuildWithWriter("info", "json", &buf)
	log.Info("task event", zap.String("event", "ADDED"), zap.Uint64("task_id", 7))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "task event", entry["msg"])
	assert.Equal(t, "ADDED", entry["event"])
	assert.Equal(t, float64(7), entry["task_id"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestBuildWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := BuildWithWriter("warn", "console", &buf)
	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "shown"))
}
