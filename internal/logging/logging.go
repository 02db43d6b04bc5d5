// Package logging builds the zap logger shared by the scheduler and the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build creates a logger writing to stderr.
//
// level: debug, info, warn, error (anything else is info)
// encoding: "console" (human-readable) or "json"
func Build(level, encoding string) *zap.Logger {
	return BuildWithWriter(level, encoding, os.Stderr)
}

// BuildWithWriter creates a logger writing to w.
func BuildWithWriter(level, encoding string, w io.Writer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	encoder := zapcore.NewJSONEncoder(encCfg)
	if strings.ToLower(encoding) != "json" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(ParseLevel(level)))
	return zap.New(core)
}

// ParseLevel converts a string log level to a zapcore.Level.
// Returns InfoLevel for unrecognized values.
func ParseLevel(s string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}
