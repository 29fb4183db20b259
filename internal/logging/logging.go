// Package logging constructs the process-wide structured logger. The
// logger is built once at startup and passed explicitly into every
// component that needs it; nothing in this repo logs through package
// state.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger writing JSON to stderr. With debug
// enabled, the level drops to Debug and output switches to the
// human-readable console encoding.
func New(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		// Both preset configs are statically valid; this cannot fail.
		panic("failed to build logger: " + err.Error())
	}
	return logger
}
