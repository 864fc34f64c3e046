package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrianliechti/wingman-docling/config"
	"github.com/adrianliechti/wingman-docling/pkg/otel"
	"github.com/adrianliechti/wingman-docling/pkg/sidecar"
)

const component = "docling-vlm-sidecar"

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", os.Getenv("SIDECAR_CONFIG"), "config file")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, component)

	logger := otel.NewLogger(os.Stderr).With("component", component)

	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	logger.Info("docling vlm sidecar starting")

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		logger.Error("invalid configuration", "error", err)
		sidecar.WriteFailure(os.Stdout, err)

		return 1
	}

	converter := sidecar.NewConverter(cfg.Runtime(),
		sidecar.WithLogger(logger),
		sidecar.WithMaxTokens(cfg.MaxTokens),
	)

	dispatcher := sidecar.NewDispatcher(logger, converter)

	return dispatcher.Run(ctx, os.Stdin, os.Stdout)
}
