package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// WithAttrs returns a metric.MeasurementOption from attribute key-value pairs.
func WithAttrs(attrs ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(attrs...)
}

// Meters holds pre-created OTel metric instruments for the harness.
type Meters struct {
	ProbeDuration metric.Float64Histogram
	ProbesTotal   metric.Int64Counter
	RunsTotal     metric.Int64Counter
}

// InitMetrics sets up the OTLP metric exporter when OTEL_EXPORTER_OTLP_ENDPOINT
// is set; otherwise instruments are created against the global (noop) provider.
// Returns a shutdown function that flushes pending metrics.
func InitMetrics(ctx context.Context) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		slog.Debug("telemetry: metrics disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		return func(ctx context.Context) error { return nil }, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// NewMeters creates all OTel metric instruments for the harness.
func NewMeters() (*Meters, error) {
	meter := otel.Meter("deploycheck")

	probeDuration, err := meter.Float64Histogram(
		"deploycheck.probe.duration",
		metric.WithDescription("Duration of a single probe execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	probesTotal, err := meter.Int64Counter(
		"deploycheck.probes.total",
		metric.WithDescription("Number of probes executed, by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	runsTotal, err := meter.Int64Counter(
		"deploycheck.runs.total",
		metric.WithDescription("Number of verification runs, by result"),
	)
	if err != nil {
		return nil, err
	}

	return &Meters{
		ProbeDuration: probeDuration,
		ProbesTotal:   probesTotal,
		RunsTotal:     runsTotal,
	}, nil
}
