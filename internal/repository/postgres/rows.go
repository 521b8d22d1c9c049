package postgres

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"storefront/internal/domain"
)

// joinedRow is one row of a parent-with-child join. line is nil when the
// parent has no children (LEFT JOIN).
type joinedRow[P, C any] struct {
	parent P
	line   *C
}

// collapse folds joined rows into distinct parents in first-seen order,
// appending each row's child to its parent.
func collapse[P, C any](rows []joinedRow[P, C], id func(P) uuid.UUID, attach func(*P, C)) []P {
	index := make(map[uuid.UUID]int, len(rows))
	var out []P
	for _, r := range rows {
		i, seen := index[id(r.parent)]
		if !seen {
			i = len(out)
			index[id(r.parent)] = i
			out = append(out, r.parent)
		}
		if r.line != nil {
			attach(&out[i], *r.line)
		}
	}
	return out
}

// orderViewRow pairs a scanned order with its LEFT JOINed line, if any.
func orderViewRow(v domain.OrderView, itemID uuid.NullUUID, itemName sql.NullString, price sql.NullInt64, quantity sql.NullInt32) joinedRow[domain.OrderView, domain.OrderLineView] {
	v.Lines = []domain.OrderLineView{}
	row := joinedRow[domain.OrderView, domain.OrderLineView]{parent: v}
	if itemID.Valid {
		row.line = &domain.OrderLineView{
			OrderID:    v.OrderID,
			ItemID:     itemID.UUID,
			ItemName:   itemName.String,
			OrderPrice: domain.NewMoney(price.Int64),
			Quantity:   int(quantity.Int32),
		}
	}
	return row
}

func summaryRow(s domain.OrderSummary, itemName sql.NullString, price sql.NullInt64, quantity sql.NullInt32) joinedRow[domain.OrderSummary, domain.OrderItemSummary] {
	s.Items = []domain.OrderItemSummary{}
	row := joinedRow[domain.OrderSummary, domain.OrderItemSummary]{parent: s}
	if quantity.Valid {
		row.line = &domain.OrderItemSummary{
			OrderID:    s.OrderID,
			ItemName:   itemName.String,
			OrderPrice: domain.NewMoney(price.Int64),
			Quantity:   int(quantity.Int32),
		}
	}
	return row
}

func collapseOrderViews(rows []joinedRow[domain.OrderView, domain.OrderLineView]) []domain.OrderView {
	return collapse(rows,
		func(v domain.OrderView) uuid.UUID { return v.OrderID },
		func(v *domain.OrderView, l domain.OrderLineView) { v.Lines = append(v.Lines, l) })
}

func collapseSummaries(rows []joinedRow[domain.OrderSummary, domain.OrderItemSummary]) []domain.OrderSummary {
	return collapse(rows,
		func(s domain.OrderSummary) uuid.UUID { return s.OrderID },
		func(s *domain.OrderSummary, it domain.OrderItemSummary) { s.Items = append(s.Items, it) })
}

func attachLines(views []domain.OrderView, lines []domain.OrderLineView) {
	byOrder := lo.GroupBy(lines, func(l domain.OrderLineView) uuid.UUID { return l.OrderID })
	for i := range views {
		views[i].Lines = append([]domain.OrderLineView{}, byOrder[views[i].OrderID]...)
	}
}

func attachSummaryItems(summaries []domain.OrderSummary, items []domain.OrderItemSummary) {
	byOrder := lo.GroupBy(items, func(it domain.OrderItemSummary) uuid.UUID { return it.OrderID })
	for i := range summaries {
		summaries[i].Items = append([]domain.OrderItemSummary{}, byOrder[summaries[i].OrderID]...)
	}
}
