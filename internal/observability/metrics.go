package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"storefront/internal/config"
	"storefront/internal/logger"
)

const metricsInterval = 30 * time.Second

var (
	metricsOnce     sync.Once
	metricsShutdown = func(context.Context) error { return nil }
)

// InitMetrics installs the global meter provider the service counters
// record into. It shares the otel switch and endpoint with tracing; when
// disabled the global no-op provider stays in place.
func InitMetrics(ctx context.Context, log *logger.Logger, env string, cfg config.OtelConfig) func(context.Context) error {
	metricsOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		name := serviceName(cfg)

		exporter, err := buildMetricExporter(ctx, cfg)
		if err != nil {
			log.Warn("otel metric exporter init failed (continuing)", "error", err)
			return
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(metricsInterval))),
			sdkmetric.WithResource(newResource(ctx, log, env, name)),
		)
		otel.SetMeterProvider(mp)
		metricsShutdown = mp.Shutdown
		log.Info("otel metrics initialized", "service", name, "endpoint", cfg.Endpoint, "interval", metricsInterval)
	})
	return metricsShutdown
}

func buildMetricExporter(ctx context.Context, cfg config.OtelConfig) (sdkmetric.Exporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint != "" {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	}
	return stdoutmetric.New()
}
