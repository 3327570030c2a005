package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider   *metric.MeterProvider
	meter           otelmetric.Meter
	triggerCounter  otelmetric.Int64Counter
	triggerDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	triggerCounter, _ := meter.Int64Counter(
		"triggers.processed",
		otelmetric.WithDescription("Number of trigger invocations processed"),
	)

	triggerDuration, _ := meter.Float64Histogram(
		"triggers.duration",
		otelmetric.WithDescription("Trigger processing duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:   provider,
		meter:           meter,
		triggerCounter:  triggerCounter,
		triggerDuration: triggerDuration,
	}
}

func (o *Observability) RecordTriggerProcessed(ctx context.Context, trigger, status string) {
	if o.triggerCounter != nil {
		o.triggerCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("trigger", trigger),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordTriggerDuration(ctx context.Context, trigger string, duration time.Duration) {
	if o.triggerDuration != nil {
		o.triggerDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("trigger", trigger),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
