package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/order"
)

// counterPoints collects the data points of the int64 sum named name.
func counterPoints(t *testing.T, reader sdkmetric.Reader, name string) []metricdata.DataPoint[int64] {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is %T", name, m.Data)
			return sum.DataPoints
		}
	}
	return nil
}

func TestOrderCounters(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, config.SpendingReversalClamp, order.WithMeterProvider(provider))
	svc := f.service

	dan := f.member(t, "dan")
	it := f.item(t, 5_000, 10)

	first, err := svc.PlaceOrder(ctx, place(dan.ID, order.Line{ItemID: it.ID, Quantity: 1}))
	require.NoError(t, err)

	placed := counterPoints(t, reader, "storefront.orders.placed")
	require.Len(t, placed, 1)
	assert.Equal(t, int64(1), placed[0].Value)
	assert.Empty(t, counterPoints(t, reader, "storefront.orders.cancelled"))

	second, err := svc.PlaceOrder(ctx, place(dan.ID, order.Line{ItemID: it.ID, Quantity: 2}))
	require.NoError(t, err)
	require.NoError(t, svc.CancelOrder(ctx, first, domain.Actor{Username: "dan"}))

	f.setSpending(t, dan.ID, 0)
	require.NoError(t, svc.CancelOrder(ctx, second, domain.Actor{Username: "dan"}))

	placed = counterPoints(t, reader, "storefront.orders.placed")
	require.Len(t, placed, 1)
	assert.Equal(t, int64(2), placed[0].Value)

	byClamped := map[bool]int64{}
	for _, dp := range counterPoints(t, reader, "storefront.orders.cancelled") {
		v, ok := dp.Attributes.Value(attribute.Key("spending.clamped"))
		require.True(t, ok)
		byClamped[v.AsBool()] += dp.Value
	}
	assert.Equal(t, map[bool]int64{false: 1, true: 1}, byClamped)
}

func TestFailedOrderIsNotCounted(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, config.SpendingReversalFail, order.WithMeterProvider(provider))
	svc := f.service

	eve := f.member(t, "eve")
	it := f.item(t, 5_000, 1)

	_, err := svc.PlaceOrder(ctx, place(eve.ID, order.Line{ItemID: it.ID, Quantity: 2}))
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	id, err := svc.PlaceOrder(ctx, place(eve.ID, order.Line{ItemID: it.ID, Quantity: 1}))
	require.NoError(t, err)
	f.setSpending(t, eve.ID, 0)
	require.ErrorIs(t, svc.CancelOrder(ctx, id, domain.Actor{Username: "eve"}), domain.ErrInvalidSpendingReversal)

	placed := counterPoints(t, reader, "storefront.orders.placed")
	require.Len(t, placed, 1)
	assert.Equal(t, int64(1), placed[0].Value)
	assert.Empty(t, counterPoints(t, reader, "storefront.orders.cancelled"))
}
