package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Observability bundles the OTel meter and tracer used by the turn pipeline.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         oteltrace.Tracer
	turnCounter    otelmetric.Int64Counter
	turnDuration   otelmetric.Float64Histogram
}

// New sets up the Prometheus metric exporter and, when jaegerEndpoint is
// non-empty, a Jaeger trace exporter. Failures degrade to no-op instruments.
func New(serviceName, jaegerEndpoint string) *Observability {
	o := &Observability{}

	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
	} else {
		provider := metric.NewMeterProvider(metric.WithReader(exporter))
		otel.SetMeterProvider(provider)

		meter := provider.Meter(serviceName)
		turnCounter, _ := meter.Int64Counter(
			"turns.processed",
			otelmetric.WithDescription("Number of chat turns processed"),
		)
		turnDuration, _ := meter.Float64Histogram(
			"turns.duration",
			otelmetric.WithDescription("Turn processing duration"),
			otelmetric.WithUnit("ms"),
		)

		o.meterProvider = provider
		o.meter = meter
		o.turnCounter = turnCounter
		o.turnDuration = turnDuration
	}

	if jaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
		} else {
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exp),
				sdktrace.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceName(serviceName),
				)),
			)
			otel.SetTracerProvider(tp)
			o.tracerProvider = tp
			o.tracer = tp.Tracer(serviceName)
		}
	}

	if o.tracer == nil {
		o.tracer = otel.Tracer(serviceName)
	}

	return o
}

// StartTurnSpan opens a span covering one chat turn.
func (o *Observability) StartTurnSpan(ctx context.Context, chatID, strategy string) (context.Context, oteltrace.Span) {
	return o.tracer.Start(ctx, "chat.turn",
		oteltrace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("chat.strategy", strategy),
		))
}

// RecordTurnProcessed increments the turn counter.
func (o *Observability) RecordTurnProcessed(ctx context.Context, strategy, status string) {
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("strategy", strategy),
			attribute.String("status", status),
		))
	}
}

// RecordTurnDuration records end-to-end turn latency.
func (o *Observability) RecordTurnDuration(ctx context.Context, duration time.Duration, strategy string) {
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("strategy", strategy),
		))
	}
}

// Shutdown flushes exporters.
func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
