// Package observability provides optional OpenTelemetry instrumentation
// for the pushover client. When disabled the provider degrades to no-op
// tracers and meters.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls telemetry setup for the client.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	TracingEnabled bool
	MetricsEnabled bool
	SampleRate     float64
	Enabled        bool
}

// Telemetry provides tracing and metrics around API operations.
type Telemetry struct {
	config        *Config
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider

	// Metrics
	apiCalls       metric.Int64Counter
	messagesSent   metric.Int64Counter
	messagesFailed metric.Int64Counter
	sendDuration   metric.Float64Histogram
}

// New creates a telemetry provider. A nil or disabled config returns a
// provider backed by no-op instruments.
func New(cfg *Config) (*Telemetry, error) {
	if cfg == nil {
		cfg = &Config{
			ServiceName:    "pushover",
			ServiceVersion: "1.0.0",
			Environment:    "development",
			OTLPEndpoint:   "http://localhost:4318",
			TracingEnabled: true,
			MetricsEnabled: true,
			SampleRate:     1.0,
			Enabled:        false,
		}
	}

	t := &Telemetry{config: cfg}

	if !cfg.Enabled {
		t.tracer = otel.Tracer("pushover")
		t.meter = otel.Meter("pushover")
		return t, nil
	}

	if cfg.TracingEnabled {
		if err := t.initTracing(); err != nil {
			return nil, fmt.Errorf("init tracing: %v", err)
		}
	}

	if cfg.MetricsEnabled {
		if err := t.initMetrics(); err != nil {
			return nil, fmt.Errorf("init metrics: %v", err)
		}
	}

	return t, nil
}

// initTracing initializes OpenTelemetry tracing
func (t *Telemetry) initTracing() error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(t.config.ServiceName),
			semconv.ServiceVersion(t.config.ServiceVersion),
			semconv.DeploymentEnvironment(t.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %v", err)
	}

	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(t.config.OTLPEndpoint),
			otlptracehttp.WithHeaders(t.config.OTLPHeaders),
		),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %v", err)
	}

	t.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(t.config.SampleRate)),
	)

	otel.SetTracerProvider(t.traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.tracer = otel.Tracer("pushover",
		trace.WithSchemaURL(semconv.SchemaURL),
	)

	return nil
}

// initMetrics initializes OpenTelemetry metrics
func (t *Telemetry) initMetrics() error {
	t.meter = otel.Meter("pushover",
		metric.WithSchemaURL(semconv.SchemaURL),
	)

	var err error

	t.apiCalls, err = t.meter.Int64Counter(
		"pushover_api_calls_total",
		metric.WithDescription("Total number of Pushover API calls"),
	)
	if err != nil {
		return fmt.Errorf("create api_calls counter: %v", err)
	}

	t.messagesSent, err = t.meter.Int64Counter(
		"pushover_messages_sent_total",
		metric.WithDescription("Total number of messages sent"),
	)
	if err != nil {
		return fmt.Errorf("create messages_sent counter: %v", err)
	}

	t.messagesFailed, err = t.meter.Int64Counter(
		"pushover_messages_failed_total",
		metric.WithDescription("Total number of messages failed"),
	)
	if err != nil {
		return fmt.Errorf("create messages_failed counter: %v", err)
	}

	t.sendDuration, err = t.meter.Float64Histogram(
		"pushover_send_duration_seconds",
		metric.WithDescription("Duration of message send operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create send_duration histogram: %v", err)
	}

	return nil
}

// TraceOperation creates a new span for an API operation
func (t *Telemetry) TraceOperation(ctx context.Context, operationName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	if t.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	return t.tracer.Start(ctx, operationName,
		trace.WithAttributes(attributes...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// TraceSend creates a span for a message or glance send
func (t *Telemetry) TraceSend(ctx context.Context, endpoint string, hasAttachment bool) (context.Context, trace.Span) {
	attributes := []attribute.KeyValue{
		attribute.String("pushover.endpoint", endpoint),
		attribute.Bool("pushover.attachment", hasAttachment),
		attribute.String("pushover.operation", "send"),
	}

	return t.TraceOperation(ctx, "pushover.send", attributes...)
}

// RecordCall records an API call for a given operation
func (t *Telemetry) RecordCall(ctx context.Context, operation string) {
	if t.apiCalls != nil {
		t.apiCalls.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
		))
	}
}

// RecordSent records a successful send
func (t *Telemetry) RecordSent(ctx context.Context, endpoint string, duration time.Duration) {
	if t.messagesSent != nil {
		t.messagesSent.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", "success"),
		))
	}

	if t.sendDuration != nil {
		t.sendDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", "success"),
		))
	}
}

// RecordFailed records a failed send
func (t *Telemetry) RecordFailed(ctx context.Context, endpoint string, duration time.Duration, errorType string) {
	if t.messagesFailed != nil {
		t.messagesFailed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("error_type", errorType),
		))
	}

	if t.sendDuration != nil {
		t.sendDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", "error"),
		))
	}
}

// SetSpanError sets an error on the current span
func (t *Telemetry) SetSpanError(span trace.Span, err error) {
	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess marks the span as successful
func (t *Telemetry) SetSpanSuccess(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// Shutdown gracefully shuts down the telemetry provider
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.traceProvider != nil {
		return t.traceProvider.Shutdown(ctx)
	}
	return nil
}
