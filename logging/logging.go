// Package logging contains the structured logging setup shared by tugscan packages.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logger handed to every component that logs.
type Logger = *zap.SugaredLogger

var (
	globalMu     sync.RWMutex
	globalLogger = NewDebugLogger("startup")
)

// ReplaceGlobal replaces the global logger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLoggerConfig returns the console config used by every tugscan logger: colored capital
// levels, ISO8601 timestamps, short callers and no stacktraces.
func NewLoggerConfig(level zapcore.Level) zap.Config {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeDuration = zapcore.StringDurationEncoder
	enc.FunctionKey = zapcore.OmitKey
	return zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "console",
		EncoderConfig:     enc,
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a logger that writes Info+ entries to stdout.
func NewLogger(name string) Logger {
	return newLogger(name, zap.InfoLevel)
}

// NewDebugLogger returns a logger that writes Debug+ entries to stdout.
func NewDebugLogger(name string) Logger {
	return newLogger(name, zap.DebugLevel)
}

func newLogger(name string, level zapcore.Level) Logger {
	logger, err := NewLoggerConfig(level).Build()
	if err != nil {
		return NewNopLogger()
	}
	return logger.Sugar().Named(name)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return zap.NewNop().Sugar()
}

// Log files roll over at logFileMaxSizeMB and keep logFileMaxBackups old files.
const (
	logFileMaxSizeMB  = 50
	logFileMaxBackups = 3
)

// NewFileLogger returns a logger that writes to the console like NewLogger and also appends
// JSON entries to the file at path, rotating it by size. The returned func closes the file.
func NewFileLogger(name string, level zapcore.Level, path string) (Logger, func() error) {
	file := &lumberjack.Logger{Filename: path, MaxSize: logFileMaxSizeMB, MaxBackups: logFileMaxBackups}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(file), level)
	if console, err := NewLoggerConfig(level).Build(); err == nil {
		core = zapcore.NewTee(console.Core(), core)
	}
	return zap.New(core).Sugar().Named(name), file.Close
}
