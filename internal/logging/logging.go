// Package logging builds the zap loggers used by the litnet commands.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to stderr. jsonOutput selects the production
// JSON encoding; otherwise a compact console encoding is used. verbose
// lowers the level from info to debug.
func New(jsonOutput, verbose bool) *zap.Logger {
	return NewWriter(os.Stderr, jsonOutput, verbose)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, jsonOutput, verbose bool) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	var enc zapcore.Encoder
	if jsonOutput {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}
