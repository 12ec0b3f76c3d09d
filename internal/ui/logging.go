package ui

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	Debug bool
	s     *zap.SugaredLogger
}

// NewLogger returns a console logger, or a production JSON logger when
// jsonOutput is set.
func NewLogger(debug, jsonOutput bool) *Logger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	var z *zap.Logger
	if jsonOutput {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		built, err := cfg.Build()
		if err == nil {
			z = built
		}
	}

	if z == nil {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc.TimeKey = ""
		enc.CallerKey = ""
		z = zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(os.Stdout), level))
	}

	return &Logger{Debug: debug, s: z.Sugar()}
}

// NewNopLogger discards everything. Used by tests and library callers that
// do not care about output.
func NewNopLogger() *Logger {
	return &Logger{s: zap.NewNop().Sugar()}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Debug: l.Debug, s: l.s.With(args...)}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.s.Debugf(trim(format), args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.s.Infof(trim(format), args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.s.Warnf(trim(format), args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.s.Errorf(trim(format), args...)
}

func (l *Logger) Sync() {
	_ = l.s.Sync()
}

// zap terminates every entry itself.
func trim(format string) string {
	return strings.TrimRight(format, "\n")
}
