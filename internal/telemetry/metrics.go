package telemetry

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
)

// Metrics holds the counters shared across the mesh and envelope packages.
type Metrics struct {
	RequestsProcessed    metric.Int64Counter
	RequestsDenied       metric.Int64Counter
	IsolationsTriggered  metric.Int64Counter
	EnvelopeSealed       metric.Int64Counter
	EnvelopeAuthFailures metric.Int64Counter
	SinkPublishRetries   metric.Int64Counter
}

// InitMetrics configures the global OTLP metrics exporter and returns its
// shutdown function alongside the mesh's named instruments. Exporter setup
// failures degrade to no-op instruments rather than aborting startup.
func InitMetrics(ctx context.Context, service string) (shutdown func(context.Context) error, m Metrics) {
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(service),
	))

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		endpoint = "localhost:4317"
	}

	ctxInit, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exp, err := otlpmetricgrpc.New(ctxInit,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithInsecure()),
	)
	if err != nil {
		slog.Warn("otel metrics exporter init failed", "error", err)
		return func(context.Context) error { return nil }, instruments()
	}

	reader := sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(10*time.Second))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res))
	otel.SetMeterProvider(mp)
	slog.Info("otel metrics initialized", "endpoint", endpoint)
	return mp.Shutdown, instruments()
}

func instruments() Metrics {
	meter := otel.Meter("workchain-security-core")
	requests, _ := meter.Int64Counter("workchain_mesh_requests_total")
	denied, _ := meter.Int64Counter("workchain_mesh_denied_total")
	isolations, _ := meter.Int64Counter("workchain_mesh_isolations_total")
	sealed, _ := meter.Int64Counter("workchain_envelope_sealed_total")
	authFailures, _ := meter.Int64Counter("workchain_envelope_auth_failures_total")
	retries, _ := meter.Int64Counter("workchain_sink_publish_retries_total")
	return Metrics{
		RequestsProcessed:    requests,
		RequestsDenied:       denied,
		IsolationsTriggered:  isolations,
		EnvelopeSealed:       sealed,
		EnvelopeAuthFailures: authFailures,
		SinkPublishRetries:   retries,
	}
}
