package postgres

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/port"
)

const tracerName = "storefront/postgres"

type UnitOfWork struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{
		db:     db,
		tracer: otel.Tracer(tracerName),
	}
}

var _ port.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, r port.Repositories) error) error {
	ctx, span := u.tracer.Start(ctx, "postgres.unit_of_work")
	defer span.End()

	_, err := withTx(ctx, u.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, fn(ctx, &repositories{q: tx, tracer: u.tracer})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rolled back")
		return storageErr(err)
	}
	return nil
}

// repositories binds every repository to one transaction.
type repositories struct {
	q      DBTX
	tracer trace.Tracer
}

func (r *repositories) Items() port.ItemRepository             { return itemRepository{r} }
func (r *repositories) Members() port.MemberRepository         { return memberRepository{r} }
func (r *repositories) Memberships() port.MembershipRepository { return membershipRepository{r} }
func (r *repositories) Orders() port.OrderRepository           { return orderRepository{r} }
func (r *repositories) Events() port.EventRepository           { return eventRepository{r} }
