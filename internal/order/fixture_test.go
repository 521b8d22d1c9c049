package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/order"
	"storefront/internal/port"
	"storefront/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	service order.Service
}

func newFixture(t testing.TB, reversal config.SpendingReversal, opts ...order.Option) *fixture {
	t.Helper()

	store := memory.New()
	svc, err := order.NewService(store, logger.NewNop(), reversal, opts...)
	require.NoError(t, err)
	return &fixture{store: store, service: svc}
}

func (f *fixture) do(t testing.TB, fn func(ctx context.Context, r port.Repositories) error) {
	t.Helper()
	require.NoError(t, f.store.Do(context.Background(), fn))
}

func (f *fixture) member(t testing.TB, username string) domain.Member {
	t.Helper()

	m, err := domain.NewMember(username, gofakeit.Name(), domain.Address{
		City:    gofakeit.City(),
		Street:  gofakeit.Street(),
		Zipcode: gofakeit.Zip(),
	}, time.Now())
	require.NoError(t, err)
	f.do(t, func(ctx context.Context, r port.Repositories) error {
		return r.Members().Create(ctx, m)
	})
	return m
}

func (f *fixture) item(t testing.TB, price int64, stock int) domain.Item {
	t.Helper()

	it, err := domain.NewItem(domain.ItemKindAlbum, gofakeit.Word(), domain.NewMoney(price), stock,
		map[string]string{"artist": gofakeit.Name()}, time.Now())
	require.NoError(t, err)
	f.do(t, func(ctx context.Context, r port.Repositories) error {
		return r.Items().Create(ctx, it)
	})
	return it
}

func (f *fixture) stock(t testing.TB, id uuid.UUID) int {
	t.Helper()

	var it domain.Item
	f.do(t, func(ctx context.Context, r port.Repositories) (err error) {
		it, err = r.Items().Get(ctx, id)
		return err
	})
	return it.StockQuantity
}

func (f *fixture) spending(t testing.TB, memberID uuid.UUID) int64 {
	t.Helper()

	var m domain.Member
	f.do(t, func(ctx context.Context, r port.Repositories) (err error) {
		m, err = r.Members().Get(ctx, memberID)
		return err
	})
	return m.Membership.TotalSpending.Amount()
}

func (f *fixture) setSpending(t testing.TB, memberID uuid.UUID, amount int64) {
	t.Helper()

	f.do(t, func(ctx context.Context, r port.Repositories) error {
		ms, err := r.Memberships().LockByMemberID(ctx, memberID)
		if err != nil {
			return err
		}
		ms.TotalSpending = domain.NewMoney(amount)
		return r.Memberships().Save(ctx, ms)
	})
}

func (f *fixture) events(t testing.TB, aggregateID uuid.UUID) []domain.Event {
	t.Helper()

	var events []domain.Event
	f.do(t, func(ctx context.Context, r port.Repositories) (err error) {
		events, err = r.Events().Load(ctx, aggregateID)
		return err
	})
	return events
}

func place(memberID uuid.UUID, lines ...order.Line) order.PlaceOrderCommand {
	return order.PlaceOrderCommand{MemberID: memberID, Lines: lines, PaymentMethod: "CARD"}
}
