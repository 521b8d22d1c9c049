package port

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// OrderQueryRepository serves read views without loading aggregates.
type OrderQueryRepository interface {
	// FindOrder joins order, member and delivery for one order and loads its lines.
	FindOrder(ctx context.Context, id uuid.UUID) (domain.OrderView, error)
	// FindOrders joins order, member and delivery only; Lines stay empty.
	FindOrders(ctx context.Context, search domain.OrderSearch, page domain.PageRequest) ([]domain.OrderView, error)
	FindOrdersWithItems(ctx context.Context, strategy domain.FetchStrategy, page domain.PageRequest) ([]domain.OrderView, error)
	FindOrderSummaries(ctx context.Context, strategy domain.ProjectionStrategy, page domain.PageRequest) ([]domain.OrderSummary, error)
}
