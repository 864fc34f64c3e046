package otel

import (
	"context"
	"errors"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

// Setup installs the global log, trace and meter providers when telemetry
// is enabled. The returned shutdown flushes all exporters.
func Setup(ctx context.Context, service string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if !EnableTelemetry {
		return noop, nil
	}

	resource, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithTelemetrySDK(),
		sdkresource.WithAttributes(semconv.ServiceName(service)),
	)

	if err != nil {
		return noop, err
	}

	var shutdowns []func(context.Context) error

	shutdown := func(ctx context.Context) error {
		var result error

		for _, s := range shutdowns {
			result = errors.Join(result, s(ctx))
		}

		return result
	}

	for _, setup := range []func(context.Context, *sdkresource.Resource) (func(context.Context) error, error){
		setupLogger,
		setupTracer,
		setupMeter,
	} {
		s, err := setup(ctx, resource)

		if err != nil {
			return shutdown, err
		}

		shutdowns = append(shutdowns, s)
	}

	return shutdown, nil
}
