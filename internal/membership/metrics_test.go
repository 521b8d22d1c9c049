package membership_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"storefront/internal/membership"
)

func TestQuarterClosedCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	svc, store := newService(t, membership.WithMeterProvider(provider))
	for _, total := range []int64{10_000, 300_000} {
		setSpending(t, store, join(t, svc, uuid.NewString()).ID, total)
	}
	gone := join(t, svc, uuid.NewString())
	require.NoError(t, svc.Withdraw(context.Background(), gone.ID))

	for _, strategy := range strategies {
		result, err := runBatch(svc, strategy)
		require.NoError(t, err)
		require.Equal(t, 2, result.Processed)
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byStrategy := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "storefront.memberships.quarter_closed" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%T", m.Data)
			for _, dp := range sum.DataPoints {
				v, ok := dp.Attributes.Value("strategy")
				require.True(t, ok)
				byStrategy[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"dirty": 2, "bulk": 2}, byStrategy)
}
