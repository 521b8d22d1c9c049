// internal/query/implementation.go
package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/port"
)

var orderSortFields = []string{domain.SortByID, domain.SortByOrderedAt}

type Defaults struct {
	Fetch      domain.FetchStrategy
	Projection domain.ProjectionStrategy
}

// service implements the Service interface.
type service struct {
	repo     port.OrderQueryRepository
	defaults Defaults
}

// NewService creates a new query service instance.
func NewService(repo port.OrderQueryRepository, defaults Defaults) Service {
	if defaults.Fetch == "" {
		defaults.Fetch = domain.FetchBatched
	}
	if defaults.Projection == "" {
		defaults.Projection = domain.ProjectionGrouped
	}
	return &service{repo: repo, defaults: defaults}
}

func (s *service) GetOrderDetail(ctx context.Context, id uuid.UUID) (domain.OrderView, error) {
	v, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return domain.OrderView{}, fmt.Errorf("s.repo.FindOrder: %w", err)
	}
	return v, nil
}

func (s *service) ListOrders(ctx context.Context, search domain.OrderSearch, page domain.PageRequest) ([]domain.OrderView, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	if err := page.Validate(orderSortFields...); err != nil {
		return nil, err
	}

	views, err := s.repo.FindOrders(ctx, search, page)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindOrders: %w", err)
	}
	return views, nil
}

func (s *service) ListOrdersWithItems(ctx context.Context, strategy domain.FetchStrategy, page domain.PageRequest) ([]domain.OrderView, error) {
	if strategy == "" {
		strategy = s.defaults.Fetch
	}
	if _, err := domain.ToFetchStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if err := page.Validate(orderSortFields...); err != nil {
		return nil, err
	}

	views, err := s.repo.FindOrdersWithItems(ctx, strategy, page)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindOrdersWithItems: %w", err)
	}
	return views, nil
}

func (s *service) ListOrderSummaries(ctx context.Context, strategy domain.ProjectionStrategy, page domain.PageRequest) ([]domain.OrderSummary, error) {
	if strategy == "" {
		strategy = s.defaults.Projection
	}
	if _, err := domain.ToProjectionStrategy(string(strategy)); err != nil {
		return nil, err
	}
	if err := page.Validate(orderSortFields...); err != nil {
		return nil, err
	}

	summaries, err := s.repo.FindOrderSummaries(ctx, strategy, page)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindOrderSummaries: %w", err)
	}
	return summaries, nil
}
