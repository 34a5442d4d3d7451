package obs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// DefaultServiceName names the storefront in traces when none is configured.
const DefaultServiceName = "storefront-toko"

// TracingConfig controls tracer provider initialisation. Exporter is "otlp"
// (default) or "none", which keeps propagation but exports nothing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Exporter       string
	SamplingRatio  float64
	Environment    string
}

func (cfg TracingConfig) withDefaults() TracingConfig {
	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	cfg.Exporter = strings.ToLower(strings.TrimSpace(cfg.Exporter))
	if cfg.Exporter == "" {
		cfg.Exporter = "otlp"
	}
	if cfg.SamplingRatio <= 0 || cfg.SamplingRatio > 1 {
		cfg.SamplingRatio = 1
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	return cfg
}

// InitTracer installs the global tracer provider and propagators and returns
// its shutdown function. Sampling follows the caller's decision when an
// incoming request already carries a trace.
func InitTracer(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	cfg = cfg.withDefaults()
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var opts []sdktrace.TracerProviderOption
	switch cfg.Exporter {
	case "otlp":
		var exporterOpts []otlptracehttp.Option
		if strings.TrimSpace(cfg.Endpoint) != "" {
			exporterOpts = append(exporterOpts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		exporter, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none":
	default:
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}

	attrs := []resource.Option{
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersionKey.String(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRatio))),
		sdktrace.WithResource(res),
	)
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// MeterProvider is the provider storefront instruments (the Redis client
// among them) report to. It is the global one, a no-op until an SDK
// provider is installed.
func MeterProvider() metric.MeterProvider {
	return otel.GetMeterProvider()
}
