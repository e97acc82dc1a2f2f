package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitProvider wires a Prometheus-backed MeterProvider, registers it as the
// global OTel provider via otel.SetMeterProvider, and returns its Shutdown
// function.
// The caller is responsible for exposing promExporter's /metrics handler
// (it implements http.Handler through the promhttp adapter at the server
// layer) and for calling the returned shutdown function from main.
func InitProvider(ctx context.Context) (shutdown func(context.Context) error, err error) {
	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExp))
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

// NewLogger builds the process-wide slog.Logger: JSON to stdout in
// production, text to stderr when human is true (local development).
func NewLogger(human bool) *slog.Logger {
	if human {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
