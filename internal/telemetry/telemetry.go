package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	serviceName     = "entrydns-updater"
	defaultEndpoint = "localhost:4317"
)

// Setup initializes OpenTelemetry based on environment configuration.
// OTEL_EXPORTER: "none" (default), "console", "otlp", or "both"
// OTEL_ENDPOINT: OTLP endpoint (default: "localhost:4317")
//
// Console spans go to stderr; stdout carries the run log.
func Setup(ctx context.Context, version string) (func(context.Context) error, error) {
	return setup(ctx, os.Getenv("OTEL_EXPORTER"), os.Getenv("OTEL_ENDPOINT"), version, os.Stderr)
}

func setup(ctx context.Context, exporterType, endpoint, version string, console io.Writer) (func(context.Context) error, error) {
	if exporterType == "" {
		exporterType = "none"
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: failed to create resource: %w", err)
	}

	var exporters []sdktrace.SpanExporter
	switch exporterType {
	case "none":
		// Spans are still created, just never exported.
	case "console", "otlp", "both":
		if exporterType != "otlp" {
			exp, err := stdouttrace.New(stdouttrace.WithWriter(console), stdouttrace.WithPrettyPrint())
			if err != nil {
				return nil, fmt.Errorf("telemetry: failed to create console exporter: %w", err)
			}
			exporters = append(exporters, exp)
		}
		if exporterType != "console" {
			exp, err := otlptracegrpc.New(ctx,
				otlptracegrpc.WithEndpoint(endpoint),
				otlptracegrpc.WithInsecure(),
			)
			if err != nil {
				return nil, fmt.Errorf("telemetry: failed to create OTLP exporter: %w", err)
			}
			exporters = append(exporters, exp)
		}
	default:
		return nil, fmt.Errorf("telemetry: unknown OTEL_EXPORTER %q (want none, console, otlp or both)", exporterType)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	for _, exp := range exporters {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exp))
	}
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
