package otel

import (
	"context"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

// InitTracer exports spans to the OTLP collector at endpoint.
// Without an endpoint tracing stays on the no-op provider.
func InitTracer(ctx context.Context, logger *zap.Logger, service, endpoint string) (func(), error) {
	if endpoint == "" {
		logger.Info("tracing disabled", zap.String("service", service))
		return func() {}, nil
	}

	// экспортер
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}
	otelapi.SetErrorHandler(otelapi.ErrorHandlerFunc(func(e error) {
		logger.Warn("otel", zap.Error(e))
	}))
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(service)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp,
			sdktrace.WithMaxQueueSize(2048),
			sdktrace.WithBatchTimeout(200*time.Millisecond),
		),
		sdktrace.WithResource(res),
	)
	otelapi.SetTracerProvider(tp)
	otelapi.SetTextMapPropagator(propagation.TraceContext{})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown", zap.Error(err))
		}
	}, nil
}
