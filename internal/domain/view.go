package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderSearch narrows order listings. Empty fields do not filter.
type OrderSearch struct {
	MemberName string
	Status     OrderStatus
}

func (s OrderSearch) Validate() error {
	if s.Status == "" {
		return nil
	}
	_, err := ToOrderStatus(string(s.Status))
	return err
}

// OrderView is the read model of one order with its owner and delivery,
// optionally carrying its lines.
type OrderView struct {
	OrderID        uuid.UUID       `json:"order_id"`
	MemberID       uuid.UUID       `json:"member_id"`
	Username       string          `json:"username"`
	MemberName     string          `json:"member_name"`
	Status         OrderStatus     `json:"status"`
	OrderedAt      time.Time       `json:"ordered_at"`
	Address        Address         `json:"address"`
	DeliveryStatus DeliveryStatus  `json:"delivery_status"`
	Lines          []OrderLineView `json:"lines,omitempty"`
}

func (v OrderView) TotalPrice() Money {
	total := NewMoney(0)
	for _, l := range v.Lines {
		total = total.Add(l.OrderPrice.Mul(l.Quantity))
	}
	return total
}

type OrderLineView struct {
	OrderID    uuid.UUID `json:"order_id"`
	ItemID     uuid.UUID `json:"item_id"`
	ItemName   string    `json:"item_name"`
	OrderPrice Money     `json:"order_price"`
	Quantity   int       `json:"quantity"`
}

// OrderSummary is the list projection built directly by the query.
type OrderSummary struct {
	OrderID    uuid.UUID          `json:"order_id"`
	MemberName string             `json:"member_name"`
	OrderedAt  time.Time          `json:"ordered_at"`
	Status     OrderStatus        `json:"status"`
	Address    Address            `json:"address"`
	Items      []OrderItemSummary `json:"items"`
}

type OrderItemSummary struct {
	OrderID    uuid.UUID `json:"order_id"`
	ItemName   string    `json:"item_name"`
	OrderPrice Money     `json:"order_price"`
	Quantity   int       `json:"quantity"`
}

// FetchStrategy selects how order lines are loaded next to their orders.
type FetchStrategy string

const (
	// FetchDistinct joins the collection and collapses duplicate parents in memory.
	FetchDistinct FetchStrategy = "distinct"
	// FetchBatched pages parents and loads lines with grouped follow-up queries.
	FetchBatched FetchStrategy = "batched"
)

func ToFetchStrategy(s string) (FetchStrategy, error) {
	switch FetchStrategy(s) {
	case FetchDistinct, FetchBatched:
		return FetchStrategy(s), nil
	}
	return "", InvalidArgument("invalid fetch strategy %q", s)
}

// ProjectionStrategy selects how summary children are loaded.
type ProjectionStrategy string

const (
	// ProjectionNaive issues one child query per parent.
	ProjectionNaive ProjectionStrategy = "naive"
	// ProjectionGrouped issues one child query for the whole page of parents.
	ProjectionGrouped ProjectionStrategy = "grouped"
	// ProjectionFlat issues a single flat join and groups rows in memory.
	ProjectionFlat ProjectionStrategy = "flat"
)

func ToProjectionStrategy(s string) (ProjectionStrategy, error) {
	switch ProjectionStrategy(s) {
	case ProjectionNaive, ProjectionGrouped, ProjectionFlat:
		return ProjectionStrategy(s), nil
	}
	return "", InvalidArgument("invalid projection strategy %q", s)
}
