// internal/query/service.go
package query

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Service serves order read views. An empty strategy selects the
// configured default.
type Service interface {
	GetOrderDetail(ctx context.Context, id uuid.UUID) (domain.OrderView, error)
	ListOrders(ctx context.Context, search domain.OrderSearch, page domain.PageRequest) ([]domain.OrderView, error)
	ListOrdersWithItems(ctx context.Context, strategy domain.FetchStrategy, page domain.PageRequest) ([]domain.OrderView, error)
	ListOrderSummaries(ctx context.Context, strategy domain.ProjectionStrategy, page domain.PageRequest) ([]domain.OrderSummary, error)
}
