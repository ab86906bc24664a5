package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Default timestamp layouts
const (
	TextTimestampFormat = "2006-01-02 15:04:05.000"
	JSONTimestampFormat = "2006-01-02T15:04:05.000Z07:00"
)

// TextFormatter formats log entries as one human-readable line:
//
//	2024-05-01 10:00:00.000 [WARN] [req-1] transport: GET /tickets - retrying request | attempt=1 delay=200ms
type TextFormatter struct {
	// TimestampFormat is the time layout, TextTimestampFormat when empty
	TimestampFormat string
	// DisableColors disables terminal colors
	DisableColors bool
	// DisableTimestamp disables timestamp output
	DisableTimestamp bool
	// DisableSorting keeps fields in map order
	DisableSorting bool
}

// NewTextFormatter creates a text formatter with colors and timestamps
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: TextTimestampFormat}
}

// Format formats a log entry as text
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer

	if !f.DisableTimestamp {
		layout := f.TimestampFormat
		if layout == "" {
			layout = TextTimestampFormat
		}
		buf.WriteString(entry.Timestamp.Format(layout))
		buf.WriteByte(' ')
	}

	level := "[" + entry.Level.String() + "]"
	if !f.DisableColors {
		level = colorLevel(entry.Level, level)
	}
	buf.WriteString(level)
	buf.WriteByte(' ')

	writeHeader(&buf, entry)
	buf.WriteString(entry.Message)

	// Whatever the header did not show goes after the bar
	if pairs := f.formatFields(entry); pairs != "" {
		buf.WriteString(" | ")
		buf.WriteString(pairs)
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// writeHeader writes the promoted fields as "[id] component: METHOD path - "
func writeHeader(buf *bytes.Buffer, entry *Entry) {
	if entry.RequestID != "" {
		buf.WriteByte('[')
		buf.WriteString(entry.RequestID)
		buf.WriteString("] ")
	}
	if entry.Component != "" {
		buf.WriteString(entry.Component)
		buf.WriteString(": ")
	}
	if entry.Method == "" {
		return
	}
	buf.WriteString(entry.Method)
	if entry.Path != "" {
		buf.WriteByte(' ')
		buf.WriteString(entry.Path)
	}
	buf.WriteString(" - ")
}

// headerKeys lists the fields writeHeader already printed for entry
func headerKeys(entry *Entry) map[string]bool {
	shown := map[string]bool{KeyRequestID: true}
	if entry.Component != "" {
		shown[KeyComponent] = true
	}
	if entry.Method != "" {
		shown[KeyMethod] = true
		// a path without a method stays in the fields
		shown[KeyPath] = entry.Path != ""
	}
	return shown
}

// formatFields renders the remaining fields as key=value pairs
func (f *TextFormatter) formatFields(entry *Entry) string {
	shown := headerKeys(entry)

	pairs := make([]string, 0, len(entry.Fields))
	for k, v := range entry.Fields {
		if shown[k] {
			continue
		}
		pairs = append(pairs, k+"="+textValue(v))
	}

	if !f.DisableSorting {
		sort.Strings(pairs)
	}
	return strings.Join(pairs, " ")
}

func textValue(v interface{}) string {
	// only plain strings are quoted; error text prints bare
	if s, ok := v.(string); ok {
		if strings.ContainsAny(s, " \t\n") {
			return fmt.Sprintf("%q", s)
		}
		return s
	}
	return fmt.Sprint(plainValue(v))
}

// plainValue turns errors and durations into their text form. Other values
// pass through.
func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	default:
		return v
	}
}

func colorLevel(level Level, text string) string {
	const (
		red    = "\033[31m"
		yellow = "\033[33m"
		blue   = "\033[34m"
		gray   = "\033[90m"
		reset  = "\033[0m"
	)

	var color string
	switch level {
	case DebugLevel:
		color = gray
	case InfoLevel:
		color = blue
	case WarnLevel:
		color = yellow
	case ErrorLevel, FatalLevel:
		color = red
	default:
		return text
	}
	return color + text + reset
}

// JSONFormatter formats each log entry as one JSON object
type JSONFormatter struct {
	// PrettyPrint indents the output
	PrettyPrint bool
	// TimestampFormat is the time layout, JSONTimestampFormat when empty
	TimestampFormat string
	// DisableTimestamp disables timestamp output
	DisableTimestamp bool
}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{TimestampFormat: JSONTimestampFormat}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+3)

	// Fields first so they cannot shadow the core keys
	for k, v := range entry.Fields {
		data[k] = plainValue(v)
	}

	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	if !f.DisableTimestamp {
		layout := f.TimestampFormat
		if layout == "" {
			layout = JSONTimestampFormat
		}
		data["timestamp"] = entry.Timestamp.Format(layout)
	}

	var out []byte
	var err error
	if f.PrettyPrint {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}

	// One entry per line
	return append(out, '\n'), nil
}
