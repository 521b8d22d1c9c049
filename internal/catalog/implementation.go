// internal/catalog/implementation.go
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/logger"
	"storefront/internal/port"
)

// service implements the Service interface.
type service struct {
	uow port.UnitOfWork
	log *logger.Logger
	now func() time.Time
}

// NewService creates a new catalog service instance.
func NewService(uow port.UnitOfWork, log *logger.Logger) Service {
	return &service{
		uow: uow,
		log: log.With("service", "catalog"),
		now: time.Now,
	}
}

// AddItem creates a new item in the catalog.
func (s *service) AddItem(ctx context.Context, in NewItem) (domain.Item, error) {
	kind, err := domain.ToItemKind(in.Kind)
	if err != nil {
		return domain.Item{}, err
	}
	item, err := domain.NewItem(kind, in.Name, domain.NewMoney(in.Price), in.Stock, in.Attributes, s.now().UTC())
	if err != nil {
		return domain.Item{}, err
	}

	added, err := domain.NewEvent(item.ID, domain.AggregateItem, domain.EventItemAdded, domain.ItemAddedEvent{
		ItemID: item.ID,
		Kind:   item.Kind,
		Name:   item.Name,
		Price:  item.Price,
		Stock:  item.StockQuantity,
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("domain.NewEvent: %w", err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		if err := r.Items().Create(ctx, item); err != nil {
			return fmt.Errorf("r.Items().Create: %w", err)
		}
		if err := r.Events().Append(ctx, item.ID, domain.AggregateItem, 0, added); err != nil {
			return fmt.Errorf("r.Events().Append: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Item{}, err
	}

	s.log.Info("item added", "item_id", item.ID, "kind", item.Kind, "stock", item.StockQuantity)
	return item, nil
}

// GetItem retrieves an item by its ID.
func (s *service) GetItem(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	var item domain.Item
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) (err error) {
		item, err = r.Items().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("r.Items().Get: %w", err)
		}
		return nil
	})
	return item, err
}

// UpdateItem changes name, price or stock under the item's row lock, so
// it serializes with order placement on the same item.
func (s *service) UpdateItem(ctx context.Context, id uuid.UUID, update ItemUpdate) (domain.Item, error) {
	if err := update.Validate(); err != nil {
		return domain.Item{}, err
	}

	var item domain.Item
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) error {
		locked, err := r.Items().LockByIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return fmt.Errorf("r.Items().LockByIDs: %w", err)
		}
		var ok bool
		if item, ok = locked[id]; !ok {
			return domain.NotFound("item %s not found", id)
		}

		update.apply(&item)
		if err := item.Validate(); err != nil {
			return err
		}
		item.UpdatedAt = s.now().UTC()

		history, err := r.Events().Load(ctx, id)
		if err != nil {
			return fmt.Errorf("r.Events().Load: %w", err)
		}
		updated, err := domain.NewEvent(id, domain.AggregateItem, domain.EventItemUpdated, domain.ItemUpdatedEvent{
			ItemID: id,
			Name:   item.Name,
			Price:  item.Price,
			Stock:  item.StockQuantity,
		})
		if err != nil {
			return fmt.Errorf("domain.NewEvent: %w", err)
		}

		if err := r.Items().Update(ctx, item); err != nil {
			return fmt.Errorf("r.Items().Update: %w", err)
		}
		if err := r.Events().Append(ctx, id, domain.AggregateItem, len(history), updated); err != nil {
			return fmt.Errorf("r.Events().Append: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Item{}, err
	}

	s.log.Info("item updated", "item_id", id, "stock", item.StockQuantity, "price", item.Price.Amount())
	return item, nil
}

func (s *service) ListItems(ctx context.Context, page domain.PageRequest) ([]domain.Item, error) {
	if err := page.Validate(domain.SortByID, domain.SortByName); err != nil {
		return nil, err
	}

	var items []domain.Item
	err := s.uow.Do(ctx, func(ctx context.Context, r port.Repositories) (err error) {
		items, err = r.Items().List(ctx, page)
		if err != nil {
			return fmt.Errorf("r.Items().List: %w", err)
		}
		return nil
	})
	return items, err
}
