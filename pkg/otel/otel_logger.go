package otel

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/log/global"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
)

func setupLogger(ctx context.Context, resource *sdkresource.Resource) (func(context.Context) error, error) {
	var err error
	var exporter sdklog.Exporter

	if strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")) == "grpc" || strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_PROTOCOL")) == "grpc" {
		exporter, err = otlploggrpc.New(ctx)
	} else {
		exporter, err = otlploghttp.New(ctx)
	}

	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(resource),
	)

	global.SetLoggerProvider(provider)

	return provider.Shutdown, nil
}

// NewLogger writes text records to w. With telemetry enabled every record
// is also handed to the OpenTelemetry log bridge.
func NewLogger(w io.Writer) *slog.Logger {
	var bridges []slog.Handler

	if EnableTelemetry {
		bridges = append(bridges, otelslog.NewHandler(instrumentationName))
	}

	return slog.New(newHandler(w, bridges...))
}

func newHandler(w io.Writer, bridges ...slog.Handler) slog.Handler {
	level := slog.LevelInfo

	if EnableDebug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	if len(bridges) == 0 {
		return handler
	}

	return slog.NewMultiHandler(append([]slog.Handler{handler}, bridges...)...)
}
