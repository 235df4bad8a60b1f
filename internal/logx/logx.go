// Package logx writes single-line JSON log records with a timestamp in the
// configured location and a derived level.
package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger serializes JSON records to a writer. It is safe for concurrent use.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// New returns a Logger writing to w. A nil location means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{w: w, loc: loc}
}

var std = New(os.Stdout, time.UTC)

// SetDefault replaces the package-level logger.
func SetDefault(l *Logger) { std = l }

// Default returns the package-level logger.
func Default() *Logger { return std }

// Log writes data as one JSON line. "ts" is always set; "level" defaults to
// "error" when status is "error" and "info" otherwise.
func (l *Logger) Log(data map[string]any) {
	data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"level":"error","msg":"failed to marshal log record: %s"}`, err))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}

// Info logs a successful event for a component.
func (l *Logger) Info(component, event string, fields map[string]any) {
	data := merge(fields)
	data["component"] = component
	data["event"] = event
	if _, ok := data["status"]; !ok {
		data["status"] = "success"
	}
	l.Log(data)
}

// Warn logs a recoverable problem.
func (l *Logger) Warn(component, event string, err error, fields map[string]any) {
	data := merge(fields)
	data["component"] = component
	data["event"] = event
	data["level"] = "warn"
	if err != nil {
		data["error_message"] = err.Error()
	}
	l.Log(data)
}

// Error logs a failed event with its error message.
func (l *Logger) Error(component, event string, err error, fields map[string]any) {
	data := merge(fields)
	data["component"] = component
	data["event"] = event
	data["status"] = "error"
	if err != nil {
		data["error_message"] = err.Error()
	}
	l.Log(data)
}

// Info logs through the default logger.
func Info(component, event string, fields map[string]any) { std.Info(component, event, fields) }

// Warn logs through the default logger.
func Warn(component, event string, err error, fields map[string]any) {
	std.Warn(component, event, err, fields)
}

// Error logs through the default logger.
func Error(component, event string, err error, fields map[string]any) {
	std.Error(component, event, err, fields)
}

func merge(fields map[string]any) map[string]any {
	data := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		data[k] = v
	}
	return data
}
