package logx

import (
	"context"
	"fmt"
)

// defaultLogger backs the package-level functions.
var defaultLogger = NewLogger(LoadFromEnv())

// SetDefaultLogger replaces the logger behind the package-level functions.
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

func Info(msg string) { defaultLogger.log(LevelInfo, msg, nil, nil) }
func Warn(msg string) { defaultLogger.log(LevelWarn, msg, nil, nil) }

func Debugf(format string, args ...any) {
	defaultLogger.log(LevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

func Infof(format string, args ...any) {
	defaultLogger.log(LevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

func Errorf(format string, args ...any) {
	defaultLogger.log(LevelError, fmt.Sprintf(format, args...), nil, nil)
}

// WithFields starts an entry on the default logger.
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithContext starts an entry carrying the fields stored in ctx.
func WithContext(ctx context.Context) *Entry {
	return newEntry(defaultLogger).WithContext(ctx)
}
