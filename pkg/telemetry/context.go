package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides a unified telemetry interface combining logging, tracing, metrics, and events.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Events  *EventPublisher
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	// Initialize tracer
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	// Initialize metrics
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	// Initialize event publisher
	events, err := NewEventPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Events:  events,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown gracefully shuts down all telemetry components.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	// Shutdown in reverse order of initialization
	if err := t.Events.Shutdown(ctx); err != nil {
		return err
	}

	if err := t.Tracer.Shutdown(ctx); err != nil {
		return err
	}

	// Metrics server is not explicitly shut down here as it may need to continue
	// serving metrics until the very end of the application lifecycle

	return nil
}

// Flush forces all pending telemetry data to be exported.
func (t *Telemetry) Flush(ctx context.Context) error {
	return t.Tracer.ForceFlush(ctx)
}

// StartMetricsServer starts the metrics HTTP server if metrics are enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer()
}

// Context Helpers for common instrumentation patterns

// InstrumentedContext creates a context with telemetry, logger fields, and a trace span.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	// Start trace span
	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)

	// Create logger with operation field
	logger := tel.Logger.WithField("operation", operation)

	// Add trace context to logger if available
	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}

	return &InstrumentedContext{
		Ctx:    spanCtx,
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span != nil {
		if err != nil {
			RecordError(ic.Span, err)
		} else {
			RecordSuccess(ic.Span)
		}
		ic.Span.End()
	}
}

// published logs an event the publisher could not accept.
func (t *Telemetry) published(err error) {
	if err != nil {
		t.Logger.WithError(err).Warn("event not published")
	}
}

// classifiedError is implemented by errors that carry a metric-friendly kind.
type classifiedError interface {
	Class() string
}

// ErrorClass returns the kind of a classified error, or "unknown".
func ErrorClass(err error) string {
	var ce classifiedError
	if errors.As(err, &ce) {
		return ce.Class()
	}
	return "unknown"
}

// RecordParse instruments the parse of one file. fn returns the number of
// top-level blocks parsed.
func RecordParse(ctx context.Context, file string, fn func() (int, error)) error {
	tel := FromTelemetryContext(ctx)

	var span trace.Span
	if tel != nil {
		_, span = tel.Tracer.StartParseSpan(ctx, file)
		defer span.End()
	}

	timer := NewTimer()
	blocks, err := fn()

	if tel == nil {
		return err
	}

	duration := timer.Duration()
	if err != nil {
		class := ErrorClass(err)
		tel.Metrics.RecordParse("failure", duration)
		tel.Metrics.RecordError(class)
		span.SetAttributes(AttrErrorKind.String(class))
		RecordError(span, err)
		tel.published(tel.Events.PublishConfigError(file, class, err.Error()))
		return err
	}

	tel.Metrics.RecordParse("success", duration)
	RecordSuccess(span)
	tel.published(tel.Events.PublishConfigParsed(file, blocks, duration))
	return nil
}

// RecordConfigure instruments the configuration of one plugin instance.
func RecordConfigure(ctx context.Context, kind, typeName, componentID string, fn func() error) error {
	tel := FromTelemetryContext(ctx)

	var span trace.Span
	if tel != nil {
		_, span = tel.Tracer.StartConfigureSpan(ctx, kind, typeName)
		span.SetAttributes(AttrComponentID.String(componentID))
		defer span.End()
	}

	timer := NewTimer()
	err := fn()

	if tel == nil {
		return err
	}

	duration := timer.Duration()
	if err != nil {
		tel.Metrics.RecordComponentConfigured(kind, typeName, "failure", duration)
		tel.Metrics.RecordError(ErrorClass(err))
		RecordError(span, err)
		return err
	}

	tel.Metrics.RecordComponentConfigured(kind, typeName, "success", duration)
	RecordSuccess(span)
	tel.published(tel.Events.PublishComponentConfigured(componentID, kind, typeName))
	return nil
}

// RecordUnusedParameter counts and publishes a parameter nothing read.
func RecordUnusedParameter(ctx context.Context, file, block, key string) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return
	}

	tel.Metrics.RecordUnusedParameter(block)
	AddUnusedParameterEvent(SpanFromContext(ctx), block, key)
	tel.published(tel.Events.PublishUnusedParameter(file, block, key))
}

// RecordReload instruments a configuration reload. fn returns the number of
// configured components.
func RecordReload(ctx context.Context, file string, fn func() (int, error)) error {
	tel := FromTelemetryContext(ctx)

	var span trace.Span
	if tel != nil {
		_, span = tel.Tracer.StartReloadSpan(ctx, file)
		defer span.End()
	}

	components, err := fn()

	if tel == nil {
		return err
	}

	tel.Metrics.RecordReload(err == nil)
	if err != nil {
		RecordError(span, err)
		tel.published(tel.Events.PublishConfigError(file, ErrorClass(err), err.Error()))
		return err
	}

	tel.Metrics.SetComponentCount(float64(components))
	RecordSuccess(span)
	tel.published(tel.Events.PublishConfigReloaded(file, components))
	return nil
}
