// internal/catalog/domain.go
package catalog

import (
	"storefront/internal/domain"
)

// NewItem describes an item to add to the catalog. Attribute keys must
// match the kind.
type NewItem struct {
	Kind       string            `json:"kind"`
	Name       string            `json:"name"`
	Price      int64             `json:"price"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// ItemUpdate changes the fields that are set.
type ItemUpdate struct {
	Name  *string `json:"name,omitempty"`
	Price *int64  `json:"price,omitempty"`
	Stock *int    `json:"stock,omitempty"`
}

func (u ItemUpdate) Validate() error {
	if u.Price != nil && *u.Price < 0 {
		return domain.InvalidArgument("price must be >= 0, got %d", *u.Price)
	}
	if u.Stock != nil && *u.Stock < 0 {
		return domain.InvalidArgument("stock must be >= 0, got %d", *u.Stock)
	}
	return nil
}

func (u ItemUpdate) apply(it *domain.Item) {
	if u.Name != nil {
		it.Name = *u.Name
	}
	if u.Price != nil {
		it.Price = domain.NewMoney(*u.Price)
	}
	if u.Stock != nil {
		it.StockQuantity = *u.Stock
	}
}
