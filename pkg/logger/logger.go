// Package logger provides structured logging for the Sentra monitoring service.
// It supports multiple log levels, JSON formatting, and integration with
// OpenTelemetry for distributed tracing.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/sentrasec/sentra/pkg/constants"
)

// Level is the logging verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ParseLevel converts a level name to a Level, defaulting to info.
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging.
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional fields
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Float64 creates a float64 field
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Error creates an error field
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Any creates a field with any type
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// ================================================================================
// Default JSON Logger Implementation
// ================================================================================

// jsonLogger is the default implementation of the Logger interface.
type jsonLogger struct {
	level      Level
	output     io.Writer
	component  string
	baseFields []Field
}

// LogEntry represents a structured log entry.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// NewLogger creates a new Logger instance writing JSON entries to output.
func NewLogger(level Level, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}
	return &jsonLogger{
		level:  level,
		output: output,
	}
}

// NewDefaultLogger creates a logger with default settings (stdout, Info level).
func NewDefaultLogger() Logger {
	return NewLogger(LevelInfo, os.Stdout)
}

func (l *jsonLogger) Debug(ctx context.Context, message string, fields ...Field) {
	if l.level > LevelDebug {
		return
	}
	l.log(ctx, LevelDebug, message, fields...)
}

func (l *jsonLogger) Info(ctx context.Context, message string, fields ...Field) {
	if l.level > LevelInfo {
		return
	}
	l.log(ctx, LevelInfo, message, fields...)
}

func (l *jsonLogger) Warn(ctx context.Context, message string, fields ...Field) {
	if l.level > LevelWarn {
		return
	}
	l.log(ctx, LevelWarn, message, fields...)
}

func (l *jsonLogger) Error(ctx context.Context, message string, err error, fields ...Field) {
	if l.level > LevelError {
		return
	}
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.log(ctx, LevelError, message, fields...)
}

func (l *jsonLogger) Fatal(ctx context.Context, message string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Error(err))
	}
	l.log(ctx, LevelFatal, message, fields...)
	os.Exit(1)
}

// WithFields creates a new logger with additional base fields.
func (l *jsonLogger) WithFields(fields ...Field) Logger {
	newLogger := &jsonLogger{
		level:      l.level,
		output:     l.output,
		component:  l.component,
		baseFields: make([]Field, len(l.baseFields)+len(fields)),
	}
	copy(newLogger.baseFields, l.baseFields)
	copy(newLogger.baseFields[len(l.baseFields):], fields)
	return newLogger
}

// WithComponent creates a new logger with a component name.
func (l *jsonLogger) WithComponent(component string) Logger {
	newLogger := &jsonLogger{
		level:      l.level,
		output:     l.output,
		component:  component,
		baseFields: make([]Field, len(l.baseFields)),
	}
	copy(newLogger.baseFields, l.baseFields)
	return newLogger
}

// log builds and writes the JSON entry.
func (l *jsonLogger) log(ctx context.Context, level Level, message string, fields ...Field) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelToString(level),
		Component: l.component,
		Message:   message,
		Fields:    make(map[string]interface{}),
	}

	// Extract trace context from OpenTelemetry
	if ctx != nil {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			entry.TraceID = span.SpanContext().TraceID().String()
			entry.SpanID = span.SpanContext().SpanID().String()
		}

		if requestID := ctx.Value(constants.ContextKeyRequestID); requestID != nil {
			entry.Fields["request_id"] = requestID
		}
		if orgID := ctx.Value(constants.ContextKeyOrgID); orgID != nil {
			entry.Fields["org_id"] = orgID
		}
		if userID := ctx.Value(constants.ContextKeyUserID); userID != nil {
			entry.Fields["user_id"] = userID
		}
	}

	if level >= LevelError {
		entry.Caller = getCaller(3)
	}

	for _, field := range l.baseFields {
		entry.Fields[field.Key] = sanitizeValue(field.Key, field.Value)
	}
	for _, field := range fields {
		entry.Fields[field.Key] = sanitizeValue(field.Key, field.Value)
	}

	jsonData, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		// Fallback to plain text if JSON marshaling fails
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n",
			entry.Timestamp, entry.Level, message, marshalErr)
		return
	}

	fmt.Fprintln(l.output, string(jsonData))
}

// ================================================================================
// Utility Functions
// ================================================================================

func levelToString(level Level) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// getCaller returns the file and line number of the caller.
func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	parts := strings.Split(file, "/")
	if len(parts) > 0 {
		file = parts[len(parts)-1]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// sanitizeValue masks sensitive field values before they reach the log stream.
func sanitizeValue(key string, value interface{}) interface{} {
	sensitiveKeys := []string{
		"password",
		"secret",
		"token",
		"api_key",
		"authorization",
		"credential",
	}

	keyLower := strings.ToLower(key)
	for _, sensitiveKey := range sensitiveKeys {
		if strings.Contains(keyLower, sensitiveKey) {
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			return "***REDACTED***"
		}
	}
	return value
}

// maskString partially masks a string value.
func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// ================================================================================
// Audit Logging
// ================================================================================

// AuditLogger is a specialized logger for security audit events.
type AuditLogger struct {
	logger Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger.WithComponent("audit"),
	}
}

// LogAuditEvent logs an audit event.
func (a *AuditLogger) LogAuditEvent(ctx context.Context, eventType constants.AuditEventType, fields ...Field) {
	auditFields := append([]Field{
		String("event_type", string(eventType)),
		String("event_category", "audit"),
		Time("event_timestamp", time.Now().UTC()),
	}, fields...)

	a.logger.Info(ctx, "Audit event", auditFields...)
}

// LogScoreChange logs a security score mutation.
func (a *AuditLogger) LogScoreChange(ctx context.Context, profileID string, previous, current int, reason string) {
	a.LogAuditEvent(ctx, constants.AuditEventScoreChanged,
		String("profile_id", profileID),
		Int("previous_score", previous),
		Int("new_score", current),
		String("reason", reason),
	)
}

// LogThreatDetected logs the creation of a threat detection.
func (a *AuditLogger) LogThreatDetected(ctx context.Context, profileID string, level constants.RiskLevel, riskScore int) {
	a.LogAuditEvent(ctx, constants.AuditEventThreatDetected,
		String("profile_id", profileID),
		String("risk_level", string(level)),
		Int("risk_score", riskScore),
	)
}

// LogPredictionReviewed logs a terminal prediction review.
func (a *AuditLogger) LogPredictionReviewed(ctx context.Context, predictionID, reviewerID string) {
	a.LogAuditEvent(ctx, constants.AuditEventPredictionReviewed,
		String("prediction_id", predictionID),
		String("reviewer_id", reviewerID),
	)
}
