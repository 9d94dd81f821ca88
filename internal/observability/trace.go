package observability

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otlptracehttp "go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitTracer builds a tracer provider ready for application instrumentation.
func InitTracer(ctx context.Context, cfg *Config) (*sdktrace.TracerProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: tracer initialization requires a config")
	}

	if !cfg.Enabled {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.NeverSample()),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(defaultPropagator())
		return tp, nil
	}

	endpoint, err := normalizeOTLPHTTPPath(cfg.ExporterEndpoint, "/v1/traces")
	if err != nil {
		return nil, fmt.Errorf("observability: invalid OTLP endpoint: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("observability: failed to create OTLP trace exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFromConfig(cfg)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(defaultPropagator())

	return tp, nil
}

func samplerFromConfig(cfg *Config) sdktrace.Sampler {
	switch cfg.TracesSampler {
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(cfg.TracesSamplerArg)
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TracesSamplerArg))
	default:
		return sdktrace.AlwaysSample()
	}
}

func defaultPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// normalizeOTLPHTTPPath ensures that the given OTLP HTTP endpoint includes the
// expected signal suffix. When the endpoint already ends with the suffix it is
// returned unchanged; existing query parameters and fragments are preserved.
func normalizeOTLPHTTPPath(endpoint string, suffix string) (string, error) {
	if strings.TrimSpace(endpoint) == "" {
		return "", fmt.Errorf("endpoint cannot be empty")
	}

	normalizedSuffix := "/" + strings.Trim(strings.TrimSpace(suffix), "/")

	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	trimmedPath := strings.TrimSuffix(parsed.Path, "/")
	switch {
	case trimmedPath == "":
		parsed.Path = normalizedSuffix
	case strings.HasSuffix(trimmedPath, normalizedSuffix):
		parsed.Path = trimmedPath
	default:
		parsed.Path = trimmedPath + normalizedSuffix
	}

	return parsed.String(), nil
}
