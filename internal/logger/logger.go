// Package logger provides the shared structured logger for the scanner.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the global logger instance
	Logger *zap.Logger
	// Sugar is the sugared logger for easier usage
	Sugar *zap.SugaredLogger
)

// Init initializes the global logger. When logFile is non-empty, entries are
// additionally written to a size-rotated file so long scans keep a durable log.
func Init(verbose bool, logFile string) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level),
	}

	if logFile != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		jsonEnc := zapcore.NewJSONEncoder(encCfg)
		cores = append(cores, zapcore.NewCore(jsonEnc, zapcore.AddSync(rotated), level))
	}

	Logger = zap.New(zapcore.NewTee(cores...))
	Sugar = Logger.Sugar()
}

// Sync flushes any buffered log entries.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// WithComponent creates a logger with a component field.
func WithComponent(component string) *zap.SugaredLogger {
	if Sugar == nil {
		Init(false, "")
	}
	return Sugar.With("component", component)
}
