// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Service defines the interface for the catalog service.
type Service interface {
	AddItem(ctx context.Context, item NewItem) (domain.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (domain.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, update ItemUpdate) (domain.Item, error)
	ListItems(ctx context.Context, page domain.PageRequest) ([]domain.Item, error)
}
