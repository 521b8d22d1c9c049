package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/domain"
	"storefront/internal/port"
)

// queryRepository builds the read views straight from the committed state.
// Every strategy yields the same rows; only the SQL backend differs in how
// it gets there.
type queryRepository struct {
	store *Store
}

var _ port.OrderQueryRepository = (*queryRepository)(nil)

func (q *queryRepository) snapshot() *state {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	return q.store.state
}

func (q *queryRepository) FindOrder(_ context.Context, id uuid.UUID) (domain.OrderView, error) {
	st := q.snapshot()
	o, ok := st.orders[id]
	if !ok {
		return domain.OrderView{}, domain.NotFound("order %s not found", id)
	}
	return orderView(st, o, true), nil
}

func (q *queryRepository) FindOrders(_ context.Context, search domain.OrderSearch, page domain.PageRequest) ([]domain.OrderView, error) {
	return q.views(search, page, false), nil
}

func (q *queryRepository) FindOrdersWithItems(_ context.Context, _ domain.FetchStrategy, page domain.PageRequest) ([]domain.OrderView, error) {
	return q.views(domain.OrderSearch{}, page, true), nil
}

func (q *queryRepository) FindOrderSummaries(_ context.Context, _ domain.ProjectionStrategy, page domain.PageRequest) ([]domain.OrderSummary, error) {
	views := q.views(domain.OrderSearch{}, page, true)

	out := make([]domain.OrderSummary, 0, len(views))
	for _, v := range views {
		s := domain.OrderSummary{
			OrderID:    v.OrderID,
			MemberName: v.MemberName,
			OrderedAt:  v.OrderedAt,
			Status:     v.Status,
			Address:    v.Address,
			Items:      make([]domain.OrderItemSummary, 0, len(v.Lines)),
		}
		for _, l := range v.Lines {
			s.Items = append(s.Items, domain.OrderItemSummary{
				OrderID:    l.OrderID,
				ItemName:   l.ItemName,
				OrderPrice: l.OrderPrice,
				Quantity:   l.Quantity,
			})
		}
		out = append(out, s)
	}
	return out, nil
}

func (q *queryRepository) views(search domain.OrderSearch, page domain.PageRequest, withLines bool) []domain.OrderView {
	st := q.snapshot()

	views := make([]domain.OrderView, 0, len(st.orders))
	for _, o := range st.orders {
		if search.Status != "" && o.Status != search.Status {
			continue
		}
		v := orderView(st, o, withLines)
		if search.MemberName != "" && !strings.Contains(v.MemberName, search.MemberName) {
			continue
		}
		views = append(views, v)
	}

	sortBy(views, page.Sort, func(v domain.OrderView) uuid.UUID { return v.OrderID }, func(a, b domain.OrderView) int {
		if page.Sort.Field == domain.SortByOrderedAt {
			return a.OrderedAt.Compare(b.OrderedAt)
		}
		return 0
	})
	return domain.Slice(views, page)
}

func orderView(st *state, o domain.Order, withLines bool) domain.OrderView {
	m := st.members[o.MemberID]
	v := domain.OrderView{
		OrderID:        o.ID,
		MemberID:       o.MemberID,
		Username:       m.Username,
		MemberName:     m.Name,
		Status:         o.Status,
		OrderedAt:      o.OrderedAt,
		Address:        o.Delivery.Address,
		DeliveryStatus: o.Delivery.Status,
	}
	if !withLines {
		return v
	}
	v.Lines = make([]domain.OrderLineView, 0, len(o.Items))
	for _, line := range o.Items {
		v.Lines = append(v.Lines, domain.OrderLineView{
			OrderID:    o.ID,
			ItemID:     line.ItemID,
			ItemName:   st.items[line.ItemID].Name,
			OrderPrice: line.OrderPrice,
			Quantity:   line.Quantity,
		})
	}
	return v
}
