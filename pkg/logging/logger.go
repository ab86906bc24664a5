// Package logging provides the structured logger used by the tracker SDK.
//
// The transport and the event subscriber never write to stdout or stderr on
// their own. Every diagnostic (retries, terminal failures, reconnects, frames
// that failed to parse) goes through a Logger supplied by the caller, and the
// default is NopLogger.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	trackererrors "github.com/ajitpratap0/tracker-sdk-go/pkg/errors"
)

// Level represents the severity of a log message
type Level int

const (
	// DebugLevel is for per-attempt and per-frame detail
	DebugLevel Level = iota - 1
	// InfoLevel is for lifecycle messages such as a stream connecting
	InfoLevel
	// WarnLevel is for recoverable failures: retries, reconnects, bad frames
	WarnLevel
	// ErrorLevel is for failures surfaced to the caller
	ErrorLevel
	// FatalLevel terminates the program after logging
	FatalLevel
)

// String returns the string representation of a log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level
func ParseLevel(name string) (Level, error) {
	switch name {
	case "debug", "DEBUG":
		return DebugLevel, nil
	case "info", "INFO", "":
		return InfoLevel, nil
	case "warn", "WARN", "warning":
		return WarnLevel, nil
	case "error", "ERROR":
		return ErrorLevel, nil
	case "fatal", "FATAL":
		return FatalLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", name)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates an error field
func ErrorField(err error) Field {
	return Field{Key: "error", Value: err}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// Time creates a time field
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logger is the interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// Fatal logs and exits the process
	Fatal(msg string, fields ...Field)

	// WithFields returns a child logger that adds fields to every entry
	WithFields(fields ...Field) Logger
	// WithContext returns a child logger carrying the context's request ID
	WithContext(ctx context.Context) Logger
	// WithError returns a child logger describing err. An *errors.APIError
	// contributes its code, status and category.
	WithError(err error) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Entry represents a log entry
type Entry struct {
	Level     Level
	Message   string
	Fields    map[string]interface{}
	Timestamp time.Time

	// Promoted from Fields so formatters can print them in the header.
	RequestID string
	Component string
	Method    string
	Path      string
}

// Formatter formats log entries
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Keys promoted to Entry header fields
const (
	KeyRequestID = "request_id"
	KeyComponent = "component"
	KeyMethod    = "method"
	KeyPath      = "path"
)

type baseLogger struct {
	mu        sync.RWMutex
	level     Level
	output    io.Writer
	formatter Formatter
	fields    map[string]interface{}
}

// New creates a structured logger writing to output. A nil output means
// stderr and a nil formatter means text.
func New(output io.Writer, formatter Formatter) Logger {
	if output == nil {
		output = os.Stderr
	}
	if formatter == nil {
		formatter = NewTextFormatter()
	}

	return &baseLogger{
		level:     InfoLevel,
		output:    output,
		formatter: formatter,
		fields:    make(map[string]interface{}),
	}
}

func (l *baseLogger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *baseLogger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *baseLogger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *baseLogger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *baseLogger) Fatal(msg string, fields ...Field) {
	l.log(FatalLevel, msg, fields)
	os.Exit(1)
}

func (l *baseLogger) WithFields(fields ...Field) Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}

	return &baseLogger{
		level:     l.level,
		output:    l.output,
		formatter: l.formatter,
		fields:    merged,
	}
}

func (l *baseLogger) WithContext(ctx context.Context) Logger {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		return l.WithFields(String(KeyRequestID, requestID))
	}
	return l.WithFields()
}

func (l *baseLogger) WithError(err error) Logger {
	return l.WithFields(errorFields(err)...)
}

func (l *baseLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *baseLogger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *baseLogger) log(level Level, msg string, fields []Field) {
	l.mu.RLock()
	if level < l.level {
		l.mu.RUnlock()
		return
	}
	entry := &Entry{
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
		Timestamp: time.Now(),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	l.mu.RUnlock()

	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}

	entry.RequestID, _ = entry.Fields[KeyRequestID].(string)
	entry.Component, _ = entry.Fields[KeyComponent].(string)
	entry.Method, _ = entry.Fields[KeyMethod].(string)
	entry.Path, _ = entry.Fields[KeyPath].(string)

	data, err := l.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: failed to format entry: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.output.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "logging: failed to write entry: %v\n", err)
	}
}

func errorFields(err error) []Field {
	if err == nil {
		return nil
	}

	fields := []Field{ErrorField(err)}
	if apiErr, ok := trackererrors.AsAPIError(err); ok {
		fields = append(fields,
			String("error_code", apiErr.Code),
			Int("error_status", apiErr.Status),
			String("error_category", string(apiErr.Category())),
		)
	}
	return fields
}

// NopLogger discards everything. It is the default for transports and
// subscribers built without a logger.
type NopLogger struct{}

// NewNopLogger returns a Logger that discards all entries
func NewNopLogger() Logger { return NopLogger{} }

func (NopLogger) Debug(string, ...Field)               {}
func (NopLogger) Info(string, ...Field)                {}
func (NopLogger) Warn(string, ...Field)                {}
func (NopLogger) Error(string, ...Field)               {}
func (NopLogger) Fatal(string, ...Field)               { os.Exit(1) }
func (n NopLogger) WithFields(...Field) Logger         { return n }
func (n NopLogger) WithContext(context.Context) Logger { return n }
func (n NopLogger) WithError(error) Logger             { return n }
func (NopLogger) SetLevel(Level)                       {}
func (NopLogger) GetLevel() Level                      { return FatalLevel + 1 }

type contextKey string

const requestIDKey contextKey = "request_id"

// ContextWithRequestID returns a context with a request ID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from a context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
