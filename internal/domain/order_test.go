package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func newBook(t *testing.T, price int64, stock int) domain.Item {
	t.Helper()

	it, err := domain.NewItem(domain.ItemKindBook, "JPA", domain.NewMoney(price), stock,
		map[string]string{"author": "kim", "isbn": "1234"}, time.Now())
	require.NoError(t, err)
	return it
}

func TestNewOrderItem(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		qty       int
		wantStock int
		wantError error
	}{
		{name: "partial reserve: ok", stock: 5, qty: 3, wantStock: 2},
		{name: "whole stock: ok", stock: 5, qty: 5, wantStock: 0},
		{name: "more than stock: out of stock", stock: 2, qty: 5, wantStock: 2, wantError: domain.ErrOutOfStock},
		{name: "zero quantity: invalid", stock: 2, qty: 0, wantStock: 2, wantError: domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newBook(t, 10_000, tt.stock)

			oi, err := domain.NewOrderItem(&item, tt.qty)
			assert.Equal(t, tt.wantStock, item.StockQuantity)
			if tt.wantError != nil {
				require.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, item.ID, oi.ItemID)
			assert.Equal(t, tt.qty, oi.Quantity)
			assert.Equal(t, int64(10_000*tt.qty), oi.TotalPrice().Amount())
		})
	}
}

func TestOrderItemSnapshotsPrice(t *testing.T) {
	item := newBook(t, 10_000, 5)

	oi, err := domain.NewOrderItem(&item, 1)
	require.NoError(t, err)

	item.Price = domain.NewMoney(99_999)
	assert.Equal(t, int64(10_000), oi.OrderPrice.Amount())
}

func TestNewOrder(t *testing.T) {
	now := time.Now()
	book := newBook(t, 10_000, 10)
	album := newBook(t, 3_000, 10)

	l1, err := domain.NewOrderItem(&book, 2)
	require.NoError(t, err)
	l2, err := domain.NewOrderItem(&album, 3)
	require.NoError(t, err)

	addr := domain.Address{City: "Seoul", Street: "Teheran-ro", Zipcode: "06234"}
	order, err := domain.NewOrder(uuid.New(), addr, "card", []domain.OrderItem{l1, l2}, now)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusOrder, order.Status)
	assert.Equal(t, domain.DeliveryStatusReady, order.Delivery.Status)
	assert.Equal(t, addr, order.Delivery.Address)
	assert.Equal(t, int64(2*10_000+3*3_000), order.TotalPrice().Amount())
	for _, it := range order.Items {
		assert.Equal(t, order.ID, it.OrderID)
	}

	_, err = domain.NewOrder(uuid.New(), addr, "card", nil, now)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestOrderCancel(t *testing.T) {
	now := time.Now()
	book := newBook(t, 10_000, 10)
	line, err := domain.NewOrderItem(&book, 1)
	require.NoError(t, err)

	order, err := domain.NewOrder(uuid.New(), domain.Address{}, "card", []domain.OrderItem{line}, now)
	require.NoError(t, err)

	require.NoError(t, order.Cancel(now.Add(time.Minute)))
	assert.Equal(t, domain.OrderStatusCancel, order.Status)
	assert.Equal(t, domain.DeliveryStatusReady, order.Delivery.Status)

	err = order.Cancel(now.Add(2 * time.Minute))
	require.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, now.Add(time.Minute), order.UpdatedAt)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestOrderTotalOutOfRange(t *testing.T) {
	t.Run("line total overflows: invalid, stock untouched", func(t *testing.T) {
		item := newBook(t, math.MaxInt64/2+1, 10)

		_, err := domain.NewOrderItem(&item, 2)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		assert.Equal(t, 10, item.StockQuantity)
	})

	t.Run("sum of lines overflows: invalid", func(t *testing.T) {
		lines := []domain.OrderItem{
			{ItemID: uuid.New(), OrderPrice: domain.NewMoney(math.MaxInt64 - 1), Quantity: 1},
			{ItemID: uuid.New(), OrderPrice: domain.NewMoney(2), Quantity: 1},
		}

		_, err := domain.NewOrder(uuid.New(), domain.Address{}, "card", lines, time.Now())
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("largest representable line: ok", func(t *testing.T) {
		item := newBook(t, math.MaxInt64/3, 3)

		oi, err := domain.NewOrderItem(&item, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64/3*3), oi.TotalPrice().Amount())
	})
}

func TestMoneyChecked(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		n      int
		want   int64
		wantOK bool
	}{
		{name: "small: ok", amount: 1_000, n: 7, want: 7_000, wantOK: true},
		{name: "zero quantity: ok", amount: math.MaxInt64, n: 0, want: 0, wantOK: true},
		{name: "overflow: fail", amount: math.MaxInt64, n: 2},
		{name: "negative overflow: fail", amount: math.MinInt64, n: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.NewMoney(tt.amount).MulChecked(tt.n)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Amount())
		})
	}

	_, ok := domain.NewMoney(math.MaxInt64).AddChecked(domain.NewMoney(1))
	assert.False(t, ok)
	sum, ok := domain.NewMoney(-5).AddChecked(domain.NewMoney(3))
	assert.True(t, ok)
	assert.Equal(t, int64(-2), sum.Amount())
}
