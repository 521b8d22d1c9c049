package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is a domain event recorded in the same transaction as the state
// change it describes. Version is per aggregate and starts at 1.
type Event struct {
	ID            int64           `json:"id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	EventData     json.RawMessage `json:"event_data"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

const (
	AggregateOrder      = "order"
	AggregateMembership = "membership"
	AggregateItem       = "item"

	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventQuarterClosed  = "MembershipQuarterClosed"
	EventItemAdded      = "ItemAdded"
	EventItemUpdated    = "ItemUpdated"
)

type OrderPlacedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	MemberID   uuid.UUID `json:"member_id"`
	TotalPrice Money     `json:"total_price"`
	Lines      int       `json:"lines"`
}

type OrderCancelledEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	MemberID         uuid.UUID `json:"member_id"`
	TotalPrice       Money     `json:"total_price"`
	SpendingClamped  bool      `json:"spending_clamped"`
	CancelledByAdmin bool      `json:"cancelled_by_admin"`
}

type QuarterClosedEvent struct {
	Strategy  string `json:"strategy"`
	Processed int    `json:"processed"`
}

type ItemAddedEvent struct {
	ItemID uuid.UUID `json:"item_id"`
	Kind   ItemKind  `json:"kind"`
	Name   string    `json:"name"`
	Price  Money     `json:"price"`
	Stock  int       `json:"stock"`
}

type ItemUpdatedEvent struct {
	ItemID uuid.UUID `json:"item_id"`
	Name   string    `json:"name"`
	Price  Money     `json:"price"`
	Stock  int       `json:"stock"`
}

// NewEvent marshals data into an Event ready to append.
func NewEvent(aggregateID uuid.UUID, aggregateType, eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		EventData:     raw,
	}, nil
}
