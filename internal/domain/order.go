package domain

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID            uuid.UUID   `json:"id"`
	MemberID      uuid.UUID   `json:"member_id"`
	Items         []OrderItem `json:"items"`
	Delivery      Delivery    `json:"delivery"`
	PaymentMethod string      `json:"payment_method"`
	Status        OrderStatus `json:"status"`
	OrderedAt     time.Time   `json:"ordered_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	ItemID     uuid.UUID `json:"item_id"`
	OrderPrice Money     `json:"order_price"`
	Quantity   int       `json:"quantity"`
}

type Delivery struct {
	Address Address        `json:"address"`
	Status  DeliveryStatus `json:"status"`
}

// NewOrderItem reserves qty units of item and snapshots its current price.
func NewOrderItem(item *Item, qty int) (OrderItem, error) {
	if _, ok := item.Price.MulChecked(qty); !ok {
		return OrderItem{}, InvalidArgument("line total %s x %d is out of range", item.Price, qty)
	}
	if err := item.Reserve(qty); err != nil {
		return OrderItem{}, err
	}
	return OrderItem{
		ID:         uuid.New(),
		ItemID:     item.ID,
		OrderPrice: item.Price,
		Quantity:   qty,
	}, nil
}

func (oi OrderItem) TotalPrice() Money {
	return oi.OrderPrice.Mul(oi.Quantity)
}

func NewOrder(memberID uuid.UUID, addr Address, paymentMethod string, items []OrderItem, now time.Time) (Order, error) {
	if len(items) == 0 {
		return Order{}, InvalidArgument("order has no items")
	}
	total := NewMoney(0)
	for _, it := range items {
		line, ok := it.OrderPrice.MulChecked(it.Quantity)
		if !ok {
			return Order{}, InvalidArgument("line total %s x %d is out of range", it.OrderPrice, it.Quantity)
		}
		if total, ok = total.AddChecked(line); !ok {
			return Order{}, InvalidArgument("order total is out of range")
		}
	}

	o := Order{
		ID:            uuid.New(),
		MemberID:      memberID,
		Delivery:      Delivery{Address: addr, Status: DeliveryStatusReady},
		PaymentMethod: paymentMethod,
		Status:        OrderStatusOrder,
		OrderedAt:     now,
		UpdatedAt:     now,
	}
	o.Items = make([]OrderItem, len(items))
	for i, it := range items {
		it.OrderID = o.ID
		o.Items[i] = it
	}
	return o, nil
}

func (o Order) TotalPrice() Money {
	total := NewMoney(0)
	for _, it := range o.Items {
		total = total.Add(it.TotalPrice())
	}
	return total
}

// Cancel moves the order to its terminal CANCEL state. Stock release and
// spending reversal are the caller's job since items and memberships live
// outside this aggregate.
func (o *Order) Cancel(now time.Time) error {
	if o.Status == OrderStatusCancel {
		return &Error{Code: CodeAlreadyCancelled, Message: "order " + o.ID.String() + " is already cancelled"}
	}
	o.Status = OrderStatusCancel
	o.UpdatedAt = now
	return nil
}

func (o Order) Clone() Order {
	c := o
	c.Items = append([]OrderItem(nil), o.Items...)
	return c
}
