package postgres

import (
	"bytes"
	"database/sql"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"pgregory.net/rapid"

	"storefront/internal/domain"
)

// Empty pages and childless parents come back as nil or empty depending on
// the path; both render the same.
var viewOpts = []cmp.Option{
	cmp.Comparer(func(a, b domain.Money) bool { return a.Amount() == b.Amount() }),
	cmpopts.EquateEmpty(),
}

type storedOrder struct {
	view  domain.OrderView
	lines []domain.OrderLineView
}

func drawOrders(t *rapid.T) []storedOrder {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := rapid.IntRange(0, 12).Draw(t, "orders")

	orders := make([]storedOrder, 0, n)
	for i := range n {
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i)})
		o := storedOrder{view: domain.OrderView{
			OrderID:    id,
			MemberName: "member",
			Status:     domain.OrderStatusOrder,
			OrderedAt:  base.Add(time.Duration(rapid.IntRange(0, 4).Draw(t, "hour")) * time.Hour),
		}}
		for j := range rapid.IntRange(0, 3).Draw(t, "lines") {
			o.lines = append(o.lines, domain.OrderLineView{
				OrderID:    id,
				ItemID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte{byte(i), byte(j)}),
				ItemName:   rapid.StringMatching(`[a-z]{1,6}`).Draw(t, "name"),
				OrderPrice: domain.NewMoney(rapid.Int64Range(0, 100_000).Draw(t, "price")),
				Quantity:   rapid.IntRange(1, 5).Draw(t, "qty"),
			})
		}
		orders = append(orders, o)
	}
	return orders
}

// sortOrders orders parents the way orderBy does: the sort column, then
// the id in the same direction.
func sortOrders(orders []storedOrder, s domain.Sort) {
	slices.SortFunc(orders, func(a, b storedOrder) int {
		c := 0
		if s.Field == domain.SortByOrderedAt {
			c = a.view.OrderedAt.Compare(b.view.OrderedAt)
		}
		if c == 0 {
			c = bytes.Compare(a.view.OrderID[:], b.view.OrderID[:])
		}
		if s.Desc {
			c = -c
		}
		return c
	})
}

func joinedViewRows(orders []storedOrder) []joinedRow[domain.OrderView, domain.OrderLineView] {
	var rows []joinedRow[domain.OrderView, domain.OrderLineView]
	for _, o := range orders {
		if len(o.lines) == 0 {
			rows = append(rows, orderViewRow(o.view, uuid.NullUUID{}, sql.NullString{}, sql.NullInt64{}, sql.NullInt32{}))
			continue
		}
		for _, l := range o.lines {
			rows = append(rows, orderViewRow(o.view,
				uuid.NullUUID{UUID: l.ItemID, Valid: true},
				sql.NullString{String: l.ItemName, Valid: true},
				sql.NullInt64{Int64: l.OrderPrice.Amount(), Valid: true},
				sql.NullInt32{Int32: int32(l.Quantity), Valid: true}))
		}
	}
	return rows
}

// linesByOrderID returns the lines of orders sorted the way loadLines
// reads them: by order id, then line number.
func linesByOrderID(orders []storedOrder) []domain.OrderLineView {
	byID := slices.Clone(orders)
	sortOrders(byID, domain.Sort{Field: domain.SortByID})
	return lo.FlatMap(byID, func(o storedOrder, _ int) []domain.OrderLineView { return o.lines })
}

func toItemSummaries(lines []domain.OrderLineView) []domain.OrderItemSummary {
	return lo.Map(lines, func(l domain.OrderLineView, _ int) domain.OrderItemSummary {
		return domain.OrderItemSummary{OrderID: l.OrderID, ItemName: l.ItemName, OrderPrice: l.OrderPrice, Quantity: l.Quantity}
	})
}

func toSummary(o storedOrder) domain.OrderSummary {
	return domain.OrderSummary{
		OrderID:    o.view.OrderID,
		MemberName: o.view.MemberName,
		OrderedAt:  o.view.OrderedAt,
		Status:     o.view.Status,
		Address:    o.view.Address,
	}
}

func TestFetchStrategiesAssembleSamePage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orders := drawOrders(t)
		sort := domain.Sort{
			Field: rapid.SampledFrom([]string{domain.SortByID, domain.SortByOrderedAt}).Draw(t, "field"),
			Desc:  rapid.Bool().Draw(t, "desc"),
		}
		page := domain.PageRequest{
			Page: rapid.IntRange(0, 3).Draw(t, "page"),
			Size: rapid.IntRange(1, 5).Draw(t, "size"),
			Sort: sort,
		}
		batchSize := rapid.IntRange(1, 4).Draw(t, "batch")
		sortOrders(orders, sort)

		distinct := domain.Slice(collapseOrderViews(joinedViewRows(orders)), page)

		pageOrders := domain.Slice(orders, page)
		batched := lo.Map(pageOrders, func(o storedOrder, _ int) domain.OrderView { return o.view })
		var lines []domain.OrderLineView
		for _, chunk := range lo.Chunk(pageOrders, batchSize) {
			lines = append(lines, linesByOrderID(chunk)...)
		}
		attachLines(batched, lines)

		if diff := cmp.Diff(distinct, batched, viewOpts...); diff != "" {
			t.Fatalf("distinct and batched differ (-distinct +batched):\n%s", diff)
		}
		for i, v := range batched {
			if diff := cmp.Diff(pageOrders[i].lines, v.Lines, viewOpts...); diff != "" {
				t.Fatalf("lines of %s out of line order:\n%s", v.OrderID, diff)
			}
		}
	})
}

func TestProjectionStrategiesAssembleSamePage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orders := drawOrders(t)
		sort := domain.Sort{Field: domain.SortByOrderedAt, Desc: rapid.Bool().Draw(t, "desc")}
		page := domain.PageRequest{
			Page: rapid.IntRange(0, 3).Draw(t, "page"),
			Size: rapid.IntRange(1, 5).Draw(t, "size"),
			Sort: sort,
		}
		sortOrders(orders, sort)
		pageOrders := domain.Slice(orders, page)

		var flatRows []joinedRow[domain.OrderSummary, domain.OrderItemSummary]
		for _, o := range pageOrders {
			if len(o.lines) == 0 {
				flatRows = append(flatRows, summaryRow(toSummary(o), sql.NullString{}, sql.NullInt64{}, sql.NullInt32{}))
				continue
			}
			for _, it := range toItemSummaries(o.lines) {
				flatRows = append(flatRows, summaryRow(toSummary(o),
					sql.NullString{String: it.ItemName, Valid: true},
					sql.NullInt64{Int64: it.OrderPrice.Amount(), Valid: true},
					sql.NullInt32{Int32: int32(it.Quantity), Valid: true}))
			}
		}
		flat := collapseSummaries(flatRows)

		grouped := lo.Map(pageOrders, func(o storedOrder, _ int) domain.OrderSummary { return toSummary(o) })
		attachSummaryItems(grouped, toItemSummaries(linesByOrderID(pageOrders)))

		naive := lo.Map(pageOrders, func(o storedOrder, _ int) domain.OrderSummary { return toSummary(o) })
		for i := range naive {
			attachSummaryItems(naive[i:i+1], toItemSummaries(pageOrders[i].lines))
		}

		if diff := cmp.Diff(grouped, flat, viewOpts...); diff != "" {
			t.Fatalf("grouped and flat differ (-grouped +flat):\n%s", diff)
		}
		if diff := cmp.Diff(grouped, naive, viewOpts...); diff != "" {
			t.Fatalf("grouped and naive differ (-grouped +naive):\n%s", diff)
		}
	})
}
