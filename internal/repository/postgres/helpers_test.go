package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"storefront/internal/domain"
	"storefront/internal/port"
	"storefront/internal/repository/postgres"
)

func startPostgres(ctx context.Context) (*tcpostgres.PostgresContainer, string, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("tcpostgres.Run: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return container, "", fmt.Errorf("container.ConnectionString: %w", err)
	}
	return container, connStr, nil
}

var moneyCmp = cmp.Comparer(func(a, b domain.Money) bool { return a.Amount() == b.Amount() })

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func randomAddress() domain.Address {
	return domain.Address{
		City:    gofakeit.City(),
		Street:  gofakeit.Street(),
		Zipcode: gofakeit.Zip(),
	}
}

func randomMember() domain.Member {
	m, err := domain.NewMember(gofakeit.Username()+"-"+uuid.NewString()[:8], gofakeit.Name(), randomAddress(), now())
	if err != nil {
		panic(err)
	}
	return m
}

func randomItem(price int64, stock int) domain.Item {
	it, err := domain.NewItem(domain.ItemKindBook, gofakeit.BookTitle(), domain.NewMoney(price), stock,
		map[string]string{"author": gofakeit.BookAuthor(), "isbn": gofakeit.Numerify("978##########")}, now())
	if err != nil {
		panic(err)
	}
	return it
}

type line struct {
	itemID uuid.UUID
	qty    int
}

// placeOrder performs the order write path directly on the repositories.
func placeOrder(ctx context.Context, uow port.UnitOfWork, memberID uuid.UUID, lines ...line) (uuid.UUID, error) {
	var orderID uuid.UUID
	err := uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		member, err := r.Members().Get(ctx, memberID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.itemID)
		}
		items, err := r.Items().LockByIDs(ctx, ids)
		if err != nil {
			return err
		}

		orderItems := make([]domain.OrderItem, 0, len(lines))
		for _, l := range lines {
			it, ok := items[l.itemID]
			if !ok {
				return domain.NotFound("item %s not found", l.itemID)
			}
			oi, err := domain.NewOrderItem(&it, l.qty)
			if err != nil {
				return err
			}
			items[l.itemID] = it
			orderItems = append(orderItems, oi)
		}

		order, err := domain.NewOrder(member.ID, member.Address, "CARD", orderItems, now())
		if err != nil {
			return err
		}
		for _, it := range items {
			if err := r.Items().Update(ctx, it); err != nil {
				return err
			}
		}
		ms, err := r.Memberships().LockByMemberID(ctx, member.ID)
		if err != nil {
			return err
		}
		ms.AddSpending(order.TotalPrice())
		if err := r.Memberships().Save(ctx, ms); err != nil {
			return err
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	return orderID, err
}

// countingDB counts the statements that return rows.
type countingDB struct {
	postgres.DBTX
	queries atomic.Int64
}

func (c *countingDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.queries.Add(1)
	return c.DBTX.QueryContext(ctx, query, args...)
}

func (c *countingDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	c.queries.Add(1)
	return c.DBTX.QueryRowContext(ctx, query, args...)
}
