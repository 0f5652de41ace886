package monitoring

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/logger"
)

// ZapLogger adapts zap to the pkg/logger interface for production use.
// The level is atomic so a config reload can change it at runtime.
type ZapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewZapLogger creates a JSON zap logger honoring the configured level.
func NewZapLogger(cfg *config.LogConfig) (*ZapLogger, error) {
	return newZapLogger(cfg, os.Stdout)
}

func newZapLogger(cfg *config.LogConfig, sink io.Writer) (*ZapLogger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	parsed, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	level := zap.NewAtomicLevelAt(parsed)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(sink),
		level,
	)

	return &ZapLogger{
		base:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)),
		level: level,
	}, nil
}

// SetLevel changes the logging level at runtime. Unknown level names are
// ignored so a bad reloaded config cannot silence the logger.
func (l *ZapLogger) SetLevel(level string) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return
	}
	l.level.SetLevel(parsed)
}

func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {
	l.base.Debug(msg, l.convert(ctx, fields)...)
}

func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...logger.Field) {
	l.base.Info(msg, l.convert(ctx, fields)...)
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	l.base.Warn(msg, l.convert(ctx, fields)...)
}

func (l *ZapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Field) {
	zapFields := l.convert(ctx, fields)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	l.base.Error(msg, zapFields...)
}

func (l *ZapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Field) {
	zapFields := l.convert(ctx, fields)
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	l.base.Fatal(msg, zapFields...)
}

func (l *ZapLogger) WithFields(fields ...logger.Field) logger.Logger {
	return &ZapLogger{base: l.base.With(l.convert(context.Background(), fields)...), level: l.level}
}

func (l *ZapLogger) WithComponent(component string) logger.Logger {
	return &ZapLogger{base: l.base.With(zap.String("component", component)), level: l.level}
}

// convert maps logger fields and context values onto zap fields.
func (l *ZapLogger) convert(ctx context.Context, fields []logger.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+4)
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}

	if ctx == nil {
		return zapFields
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		zapFields = append(zapFields,
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	if requestID := ctx.Value(constants.ContextKeyRequestID); requestID != nil {
		zapFields = append(zapFields, zap.Any("request_id", requestID))
	}
	if orgID := ctx.Value(constants.ContextKeyOrgID); orgID != nil {
		zapFields = append(zapFields, zap.Any("org_id", orgID))
	}

	return zapFields
}
