// Package logging builds the structured logger shared by the CLI and server.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger writing to stderr. Verbose lowers the level to debug.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		return build(zapcore.DebugLevel)
	}
	return build(zapcore.InfoLevel)
}

// NewQuiet is New for one-shot commands whose results go to stdout: only
// warnings and errors are logged unless verbose.
func NewQuiet(verbose bool) (*zap.Logger, error) {
	if verbose {
		return build(zapcore.DebugLevel)
	}
	return build(zapcore.WarnLevel)
}

func build(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.Level = zap.NewAtomicLevelAt(level)
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
