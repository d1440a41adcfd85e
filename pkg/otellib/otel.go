package otellib

import (
	"context"
	"fmt"
	"github.com/coolviki/paywise/config"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"go.opentelemetry.io/otel/trace"
	"time"
)

// InitOtel creates the tracer provider, exporting to jaeger when enabled.
// The returned function flushes pending spans.
func InitOtel(serviceName string, env string, conf config.JaegerConfig) (trace.TracerProvider, func()) {
	if !conf.Enabled {
		return trace.NewNoopTracerProvider(), func() {}
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(conf.Endpoint)))
	if err != nil {
		panic(err)
	}

	provider := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(env),
		)),
	)

	return provider, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := provider.Shutdown(ctx); err != nil {
			fmt.Println("[ERROR] Shutdown tracer provider:", err)
		}
	}
}
