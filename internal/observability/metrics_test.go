package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"storefront/internal/config"
	"storefront/internal/logger"
)

func TestBuildMetricExporter(t *testing.T) {
	ctx := context.Background()

	exp, err := buildMetricExporter(ctx, config.OtelConfig{Endpoint: "  "})
	require.NoError(t, err)
	_, isOTLP := exp.(*otlpmetrichttp.Exporter)
	assert.False(t, isOTLP, "blank endpoint falls back to stdout")
	require.NoError(t, exp.Shutdown(ctx))

	exp, err = buildMetricExporter(ctx, config.OtelConfig{Endpoint: "localhost:4318", Insecure: true})
	require.NoError(t, err)
	assert.IsType(t, &otlpmetrichttp.Exporter{}, exp)
	require.NoError(t, exp.Shutdown(ctx))
}

func TestInitMetricsInstallsProvider(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	shutdown := InitMetrics(context.Background(), logger.NewNop(), "test", config.OtelConfig{Enabled: true})
	installed := otel.GetMeterProvider()
	assert.IsType(t, &sdkmetric.MeterProvider{}, installed)

	_ = InitMetrics(context.Background(), logger.NewNop(), "test", config.OtelConfig{})
	assert.Same(t, installed, otel.GetMeterProvider(), "init runs once")

	counter, err := otel.Meter("storefront/test").Int64Counter("storefront.test")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
	require.NoError(t, shutdown(context.Background()))
}
