// internal/order/service.go
package order

import (
	"context"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// Service places and cancels orders. Each call is one transaction.
type Service interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (uuid.UUID, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, actor domain.Actor) error
}

type Line struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type PlaceOrderCommand struct {
	MemberID uuid.UUID `json:"member_id"`
	Lines    []Line    `json:"lines"`
	// Address is the delivery address; nil means the member's own address.
	Address       *domain.Address `json:"address,omitempty"`
	PaymentMethod string          `json:"payment_method"`
}

func (c PlaceOrderCommand) Validate() error {
	if c.MemberID == uuid.Nil {
		return domain.InvalidArgument("member_id is required")
	}
	if len(c.Lines) == 0 {
		return domain.InvalidArgument("order has no lines")
	}
	for i, l := range c.Lines {
		if l.ItemID == uuid.Nil {
			return domain.InvalidArgument("line %d: item_id is required", i)
		}
		if l.Quantity < 1 {
			return domain.InvalidArgument("line %d: quantity must be >= 1, got %d", i, l.Quantity)
		}
	}
	return nil
}
