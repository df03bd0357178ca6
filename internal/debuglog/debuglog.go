// Package debuglog is the SDK's diagnostic side channel. It stays
// silent unless debug mode is enabled, and it never feeds captured
// telemetry back into the SDK.
package debuglog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger for SDK-internal diagnostics.
type Logger struct {
	*zap.Logger
}

// New returns a debug logger writing to stderr when enabled, and a
// no-op logger otherwise.
func New(enabled bool) *Logger {
	if !enabled {
		return Nop()
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapcore.DebugLevel),
		Development:       true,
		Encoding:          "console",
		EncoderConfig:     encoderConfig(),
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     true,
		DisableStacktrace: true,
	}

	logger, err := cfg.Build()
	if err != nil {
		return Nop()
	}
	return &Logger{Logger: logger.Named("syntra")}
}

// Wrap adapts a caller-supplied zap logger.
func Wrap(logger *zap.Logger) *Logger {
	if logger == nil {
		return Nop()
	}
	return &Logger{Logger: logger.Named("syntra")}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// Leveled is a keys-and-values view of the logger matching the leveled
// interface of retryablehttp, so HTTP retry internals log through the
// same channel.
type Leveled struct {
	sugar *zap.SugaredLogger
}

// Leveled returns the keys-and-values view.
func (l *Logger) Leveled() *Leveled {
	return &Leveled{sugar: l.Sugar()}
}

func (l *Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

func (l *Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}
