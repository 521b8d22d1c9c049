// internal/order/implementation.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/port"
)

// service implements the Service interface.
type service struct {
	uow      port.UnitOfWork
	log      *logger.Logger
	reversal config.SpendingReversal
	now      func() time.Time

	meterProvider metric.MeterProvider
	placed        metric.Int64Counter
	cancelled     metric.Int64Counter
}

type Option func(*service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithMeterProvider records the order counters into mp instead of the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *service) { s.meterProvider = mp }
}

// NewService creates a new order service instance.
func NewService(uow port.UnitOfWork, log *logger.Logger, reversal config.SpendingReversal, opts ...Option) (Service, error) {
	s := &service{
		uow:           uow,
		log:           log.With("service", "order"),
		reversal:      reversal,
		now:           time.Now,
		meterProvider: otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(s)
	}

	meter := s.meterProvider.Meter("storefront/order")
	var err error
	s.placed, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders committed"))
	if err != nil {
		return nil, fmt.Errorf("meter.Int64Counter: %w", err)
	}
	s.cancelled, err = meter.Int64Counter("storefront.orders.cancelled",
		metric.WithDescription("Orders cancelled"))
	if err != nil {
		return nil, fmt.Errorf("meter.Int64Counter: %w", err)
	}
	return s, nil
}

// PlaceOrder reserves stock for every line, snapshots prices and adds the
// order total to the member's spending, all or nothing.
func (s *service) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (uuid.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return uuid.Nil, err
	}

	var order domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		now := s.now().UTC()

		member, err := r.Members().Get(ctx, cmd.MemberID)
		if err != nil {
			return fmt.Errorf("r.Members().Get: %w", err)
		}

		ids := lo.Uniq(lo.Map(cmd.Lines, func(l Line, _ int) uuid.UUID { return l.ItemID }))
		items, err := r.Items().LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("r.Items().LockByIDs: %w", err)
		}

		lines := make([]domain.OrderItem, 0, len(cmd.Lines))
		for _, l := range cmd.Lines {
			item, ok := items[l.ItemID]
			if !ok {
				return domain.NotFound("item %s not found", l.ItemID)
			}
			line, err := domain.NewOrderItem(&item, l.Quantity)
			if err != nil {
				return err
			}
			items[l.ItemID] = item
			lines = append(lines, line)
		}

		addr := member.Address
		if cmd.Address != nil {
			addr = *cmd.Address
		}
		order, err = domain.NewOrder(member.ID, addr, cmd.PaymentMethod, lines, now)
		if err != nil {
			return err
		}

		membership, err := r.Memberships().LockByMemberID(ctx, member.ID)
		if err != nil {
			return fmt.Errorf("r.Memberships().LockByMemberID: %w", err)
		}
		membership.AddSpending(order.TotalPrice())
		membership.UpdatedAt = now

		placed, err := domain.NewEvent(order.ID, domain.AggregateOrder, domain.EventOrderPlaced, domain.OrderPlacedEvent{
			OrderID:    order.ID,
			MemberID:   member.ID,
			TotalPrice: order.TotalPrice(),
			Lines:      len(order.Items),
		})
		if err != nil {
			return fmt.Errorf("domain.NewEvent: %w", err)
		}

		for _, id := range ids {
			item := items[id]
			item.UpdatedAt = now
			if err := r.Items().Update(ctx, item); err != nil {
				return fmt.Errorf("r.Items().Update: %w", err)
			}
		}
		if err := r.Memberships().Save(ctx, membership); err != nil {
			return fmt.Errorf("r.Memberships().Save: %w", err)
		}
		if err := r.Orders().Create(ctx, order); err != nil {
			return fmt.Errorf("r.Orders().Create: %w", err)
		}
		if err := r.Events().Append(ctx, order.ID, domain.AggregateOrder, 0, placed); err != nil {
			return fmt.Errorf("r.Events().Append: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.placed.Add(ctx, 1)
	s.log.Info("order placed",
		"order_id", order.ID,
		"member_id", order.MemberID,
		"lines", len(order.Items),
		"total", order.TotalPrice().Amount(),
	)
	return order.ID, nil
}

// CancelOrder restores stock for every line and reverses the order total.
// Only the owner or an admin may cancel.
func (s *service) CancelOrder(ctx context.Context, orderID uuid.UUID, actor domain.Actor) error {
	var (
		order   domain.Order
		clamped bool
	)
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		now := s.now().UTC()

		var err error
		order, err = r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("r.Orders().LockByID: %w", err)
		}

		owner, err := r.Members().Get(ctx, order.MemberID)
		if err != nil {
			return fmt.Errorf("r.Members().Get: %w", err)
		}
		if !actor.CanActFor(owner.Username) {
			return domain.Forbidden("%q may not cancel order %s", actor.Username, order.ID)
		}

		if err := order.Cancel(now); err != nil {
			return err
		}

		ids := lo.Uniq(lo.Map(order.Items, func(l domain.OrderItem, _ int) uuid.UUID { return l.ItemID }))
		items, err := r.Items().LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("r.Items().LockByIDs: %w", err)
		}
		for _, line := range order.Items {
			item, ok := items[line.ItemID]
			if !ok {
				return domain.NotFound("item %s not found", line.ItemID)
			}
			item.Release(line.Quantity)
			items[line.ItemID] = item
		}

		membership, err := r.Memberships().LockByMemberID(ctx, order.MemberID)
		if err != nil {
			return fmt.Errorf("r.Memberships().LockByMemberID: %w", err)
		}
		total := order.TotalPrice()
		clamped = membership.SubtractSpending(total)
		if clamped && s.reversal == config.SpendingReversalFail {
			return &domain.Error{
				Code:    domain.CodeInvalidSpendingReversal,
				Message: fmt.Sprintf("cancelling order %s would drive spending of member %s below zero", order.ID, order.MemberID),
			}
		}
		membership.UpdatedAt = now

		cancelled, err := domain.NewEvent(order.ID, domain.AggregateOrder, domain.EventOrderCancelled, domain.OrderCancelledEvent{
			OrderID:          order.ID,
			MemberID:         order.MemberID,
			TotalPrice:       total,
			SpendingClamped:  clamped,
			CancelledByAdmin: actor.Admin && actor.Username != owner.Username,
		})
		if err != nil {
			return fmt.Errorf("domain.NewEvent: %w", err)
		}

		for _, id := range ids {
			item := items[id]
			item.UpdatedAt = now
			if err := r.Items().Update(ctx, item); err != nil {
				return fmt.Errorf("r.Items().Update: %w", err)
			}
		}
		if err := r.Memberships().Save(ctx, membership); err != nil {
			return fmt.Errorf("r.Memberships().Save: %w", err)
		}
		if err := r.Orders().UpdateStatus(ctx, order); err != nil {
			return fmt.Errorf("r.Orders().UpdateStatus: %w", err)
		}
		if err := r.Events().Append(ctx, order.ID, domain.AggregateOrder, 1, cancelled); err != nil {
			return fmt.Errorf("r.Events().Append: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cancelled.Add(ctx, 1, metric.WithAttributes(attribute.Bool("spending.clamped", clamped)))
	if clamped {
		s.log.Warn("spending reversal clamped to zero",
			"code", domain.CodeInvalidSpendingReversal,
			"order_id", order.ID,
			"member_id", order.MemberID,
			"total", order.TotalPrice().Amount(),
		)
	}
	s.log.Info("order cancelled", "order_id", order.ID, "by", actor.Username)
	return nil
}
