package logging

import (
	"fmt"
	"strings"
)

// PrintfAdapter adapts a structured Logger to the printf-style logger
// interface expected by HTTP libraries (Errorf, Warnf, Debugf). It satisfies
// resty.Logger.
type PrintfAdapter struct {
	logger Logger
}

// NewPrintfAdapter creates a printf adapter tagged with component
func NewPrintfAdapter(logger Logger, component string) *PrintfAdapter {
	if logger == nil {
		logger = NopLogger{}
	}
	return &PrintfAdapter{logger: logger.WithFields(String(KeyComponent, component))}
}

// Errorf logs at error level
func (a *PrintfAdapter) Errorf(format string, v ...interface{}) {
	a.logger.Error(trimMessage(format, v))
}

// Warnf logs at warn level
func (a *PrintfAdapter) Warnf(format string, v ...interface{}) {
	a.logger.Warn(trimMessage(format, v))
}

// Debugf logs at debug level
func (a *PrintfAdapter) Debugf(format string, v ...interface{}) {
	a.logger.Debug(trimMessage(format, v))
}

// Library log lines usually carry a "LEVEL " prefix and a trailing newline;
// both are redundant once the entry is structured.
func trimMessage(format string, v []interface{}) string {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	for _, prefix := range []string{"ERROR ", "WARN ", "DEBUG "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}

var globalLogger Logger = NopLogger{}

// SetGlobalLogger sets the logger used by components that were not given one
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	globalLogger = logger
}

// GetGlobalLogger returns the global logger instance. It discards output
// until SetGlobalLogger is called.
func GetGlobalLogger() Logger {
	return globalLogger
}

// Debug logs a debug message to the global logger
func Debug(msg string, fields ...Field) {
	globalLogger.Debug(msg, fields...)
}

// Info logs an info message to the global logger
func Info(msg string, fields ...Field) {
	globalLogger.Info(msg, fields...)
}

// Warn logs a warning message to the global logger
func Warn(msg string, fields ...Field) {
	globalLogger.Warn(msg, fields...)
}

// LogError logs an error message to the global logger
func LogError(msg string, fields ...Field) {
	globalLogger.Error(msg, fields...)
}
