package telemetry

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a new logger with OTEL hooks
func NewLogger(component string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stderr).
		With().
		Timestamp().
		Str("component", component).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context (for trace propagation)
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogPhaseStart logs entry into a scan phase
func (l *Logger) LogPhaseStart(ctx context.Context, phase string) {
	l.WithContext(ctx).Debug().
		Str("phase", phase).
		Msg("phase started")
}

// LogPhaseError logs a phase failure with its cause
func (l *Logger) LogPhaseError(ctx context.Context, phase string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("phase", phase).
		Msg("phase failed")
}

// LogResourceSkipped logs a resource dropped during normalization
func (l *Logger) LogResourceSkipped(ctx context.Context, resourceType string, origin string, err error) {
	l.WithContext(ctx).Warn().
		Err(err).
		Str("resource_type", resourceType).
		Str("origin", origin).
		Msg("resource skipped")
}
