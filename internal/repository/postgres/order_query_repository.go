package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
	"storefront/internal/port"
)

const DefaultBatchSize = 100

const orderViewColumns = `
	o.id, o.member_id, m.username, m.name, o.status, o.ordered_at,
	o.delivery_city, o.delivery_street, o.delivery_zipcode, o.delivery_status`

const orderViewFrom = `FROM orders o JOIN members m ON m.id = o.member_id`

const orderLineColumns = `oi.order_id, oi.item_id, i.name, oi.order_price, oi.quantity`

var orderSortColumns = map[string]string{
	domain.SortByID:        "o.id",
	domain.SortByOrderedAt: "o.ordered_at",
}

var pageSortColumns = map[string]string{
	domain.SortByID:        "p.id",
	domain.SortByOrderedAt: "p.ordered_at",
}

// OrderQueryRepository reads views straight from committed rows without
// building aggregates.
type OrderQueryRepository struct {
	db        DBTX
	tracer    trace.Tracer
	batchSize int
}

func NewOrderQueryRepository(db DBTX, batchSize int) *OrderQueryRepository {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &OrderQueryRepository{
		db:        db,
		tracer:    otel.Tracer(tracerName),
		batchSize: batchSize,
	}
}

var _ port.OrderQueryRepository = (*OrderQueryRepository)(nil)

func scanOrderView(row scanner) (domain.OrderView, error) {
	var (
		v              domain.OrderView
		status         string
		deliveryStatus string
	)
	err := row.Scan(
		&v.OrderID, &v.MemberID, &v.Username, &v.MemberName, &status, &v.OrderedAt,
		&v.Address.City, &v.Address.Street, &v.Address.Zipcode, &deliveryStatus,
	)
	if err != nil {
		return domain.OrderView{}, err
	}
	v.Status = domain.OrderStatus(status)
	v.DeliveryStatus = domain.DeliveryStatus(deliveryStatus)
	return v, nil
}

func (r *OrderQueryRepository) FindOrder(ctx context.Context, id uuid.UUID) (domain.OrderView, error) {
	ctx, span := r.tracer.Start(ctx, "queries.find_order",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	v, err := scanOrderView(r.db.QueryRowContext(ctx, `SELECT `+orderViewColumns+` `+orderViewFrom+` WHERE o.id = $1`, id))
	if isNoRows(err) {
		return domain.OrderView{}, domain.NotFound("order %s not found", id)
	}
	if err != nil {
		return domain.OrderView{}, storageErr(err)
	}

	lines, err := r.loadLines(ctx, []uuid.UUID{id})
	if err != nil {
		return domain.OrderView{}, err
	}
	views := []domain.OrderView{v}
	attachLines(views, lines)
	return views[0], nil
}

func (r *OrderQueryRepository) FindOrders(ctx context.Context, search domain.OrderSearch, page domain.PageRequest) ([]domain.OrderView, error) {
	ctx, span := r.tracer.Start(ctx, "queries.find_orders",
		trace.WithAttributes(
			attribute.String("page.sort", page.Sort.String()),
			attribute.String("search.status", string(search.Status)),
		))
	defer span.End()

	return r.pageOrders(ctx, search, page)
}

func (r *OrderQueryRepository) pageOrders(ctx context.Context, search domain.OrderSearch, page domain.PageRequest) ([]domain.OrderView, error) {
	order, err := orderBy(page.Sort, orderSortColumns, "o.id")
	if err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if search.Status != "" {
		args = append(args, string(search.Status))
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if search.MemberName != "" {
		args = append(args, search.MemberName)
		conds = append(conds, fmt.Sprintf("strpos(m.name, $%d) > 0", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, page.Size, page.Offset())

	query := fmt.Sprintf(`SELECT %s %s %s %s LIMIT $%d OFFSET $%d`,
		orderViewColumns, orderViewFrom, where, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var views []domain.OrderView
	for rows.Next() {
		v, err := scanOrderView(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return views, nil
}

func (r *OrderQueryRepository) FindOrdersWithItems(ctx context.Context, strategy domain.FetchStrategy, page domain.PageRequest) ([]domain.OrderView, error) {
	ctx, span := r.tracer.Start(ctx, "queries.find_orders_with_items",
		trace.WithAttributes(
			attribute.String("fetch.strategy", string(strategy)),
			attribute.String("page.sort", page.Sort.String()),
		))
	defer span.End()

	switch strategy {
	case domain.FetchDistinct:
		return r.fetchDistinct(ctx, page)
	case domain.FetchBatched:
		return r.fetchBatched(ctx, page)
	}
	return nil, domain.InvalidArgument("invalid fetch strategy %q", strategy)
}

// fetchDistinct joins the whole collection in one statement. LIMIT would
// count child rows, so the page is cut after duplicates are collapsed.
func (r *OrderQueryRepository) fetchDistinct(ctx context.Context, page domain.PageRequest) ([]domain.OrderView, error) {
	order, err := orderBy(page.Sort, orderSortColumns, "o.id")
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderViewColumns+`, oi.item_id, i.name, oi.order_price, oi.quantity
		`+orderViewFrom+`
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN items i ON i.id = oi.item_id
		`+order+`, oi.line_no`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var joined []joinedRow[domain.OrderView, domain.OrderLineView]
	for rows.Next() {
		var (
			v              domain.OrderView
			status         string
			deliveryStatus string
			itemID         uuid.NullUUID
			itemName       sql.NullString
			price          sql.NullInt64
			quantity       sql.NullInt32
		)
		err := rows.Scan(
			&v.OrderID, &v.MemberID, &v.Username, &v.MemberName, &status, &v.OrderedAt,
			&v.Address.City, &v.Address.Street, &v.Address.Zipcode, &deliveryStatus,
			&itemID, &itemName, &price, &quantity,
		)
		if err != nil {
			return nil, storageErr(err)
		}
		v.Status = domain.OrderStatus(status)
		v.DeliveryStatus = domain.DeliveryStatus(deliveryStatus)
		joined = append(joined, orderViewRow(v, itemID, itemName, price, quantity))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return domain.Slice(collapseOrderViews(joined), page), nil
}

// fetchBatched pages parents, then loads their lines in ANY($1) batches.
// It issues 1 + ceil(parents/batchSize) queries whatever the line count.
func (r *OrderQueryRepository) fetchBatched(ctx context.Context, page domain.PageRequest) ([]domain.OrderView, error) {
	views, err := r.pageOrders(ctx, domain.OrderSearch{}, page)
	if err != nil {
		return nil, err
	}

	ids := lo.Map(views, func(v domain.OrderView, _ int) uuid.UUID { return v.OrderID })
	var lines []domain.OrderLineView
	for _, chunk := range lo.Chunk(ids, r.batchSize) {
		batch, err := r.loadLines(ctx, chunk)
		if err != nil {
			return nil, err
		}
		lines = append(lines, batch...)
	}
	attachLines(views, lines)
	return views, nil
}

func (r *OrderQueryRepository) loadLines(ctx context.Context, orderIDs []uuid.UUID) ([]domain.OrderLineView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderLineColumns+`
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE oi.order_id = ANY($1::uuid[])
		ORDER BY oi.order_id, oi.line_no
	`, uuidArray(orderIDs))
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var lines []domain.OrderLineView
	for rows.Next() {
		var (
			l     domain.OrderLineView
			price int64
		)
		if err := rows.Scan(&l.OrderID, &l.ItemID, &l.ItemName, &price, &l.Quantity); err != nil {
			return nil, storageErr(err)
		}
		l.OrderPrice = domain.NewMoney(price)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return lines, nil
}

func (r *OrderQueryRepository) FindOrderSummaries(ctx context.Context, strategy domain.ProjectionStrategy, page domain.PageRequest) ([]domain.OrderSummary, error) {
	ctx, span := r.tracer.Start(ctx, "queries.find_order_summaries",
		trace.WithAttributes(
			attribute.String("projection.strategy", string(strategy)),
			attribute.String("page.sort", page.Sort.String()),
		))
	defer span.End()

	switch strategy {
	case domain.ProjectionNaive:
		return r.summariesNaive(ctx, page)
	case domain.ProjectionGrouped:
		return r.summariesGrouped(ctx, page)
	case domain.ProjectionFlat:
		return r.summariesFlat(ctx, page)
	}
	return nil, domain.InvalidArgument("invalid projection strategy %q", strategy)
}

func scanSummary(row scanner) (domain.OrderSummary, error) {
	var (
		s      domain.OrderSummary
		status string
	)
	if err := row.Scan(&s.OrderID, &s.MemberName, &s.OrderedAt, &status, &s.Address.City, &s.Address.Street, &s.Address.Zipcode); err != nil {
		return domain.OrderSummary{}, err
	}
	s.Status = domain.OrderStatus(status)
	s.Items = []domain.OrderItemSummary{}
	return s, nil
}

func (r *OrderQueryRepository) pageSummaries(ctx context.Context, page domain.PageRequest) ([]domain.OrderSummary, error) {
	order, err := orderBy(page.Sort, orderSortColumns, "o.id")
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, m.name, o.ordered_at, o.status, o.delivery_city, o.delivery_street, o.delivery_zipcode
		`+orderViewFrom+`
		`+order+`
		LIMIT $1 OFFSET $2
	`, page.Size, page.Offset())
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var summaries []domain.OrderSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return summaries, nil
}

func (r *OrderQueryRepository) loadSummaryItems(ctx context.Context, where string, arg any) ([]domain.OrderItemSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.order_id, i.name, oi.order_price, oi.quantity
		FROM order_items oi
		JOIN items i ON i.id = oi.item_id
		WHERE `+where+`
		ORDER BY oi.order_id, oi.line_no
	`, arg)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var items []domain.OrderItemSummary
	for rows.Next() {
		var (
			it    domain.OrderItemSummary
			price int64
		)
		if err := rows.Scan(&it.OrderID, &it.ItemName, &price, &it.Quantity); err != nil {
			return nil, storageErr(err)
		}
		it.OrderPrice = domain.NewMoney(price)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// summariesNaive issues one child query per parent.
func (r *OrderQueryRepository) summariesNaive(ctx context.Context, page domain.PageRequest) ([]domain.OrderSummary, error) {
	summaries, err := r.pageSummaries(ctx, page)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		items, err := r.loadSummaryItems(ctx, "oi.order_id = $1", summaries[i].OrderID)
		if err != nil {
			return nil, err
		}
		attachSummaryItems(summaries[i:i+1], items)
	}
	return summaries, nil
}

func (r *OrderQueryRepository) summariesGrouped(ctx context.Context, page domain.PageRequest) ([]domain.OrderSummary, error) {
	summaries, err := r.pageSummaries(ctx, page)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return summaries, nil
	}

	ids := lo.Map(summaries, func(s domain.OrderSummary, _ int) uuid.UUID { return s.OrderID })
	items, err := r.loadSummaryItems(ctx, "oi.order_id = ANY($1::uuid[])", uuidArray(ids))
	if err != nil {
		return nil, err
	}
	attachSummaryItems(summaries, items)
	return summaries, nil
}

// summariesFlat pages parents in a CTE and joins their children in the
// same statement.
func (r *OrderQueryRepository) summariesFlat(ctx context.Context, page domain.PageRequest) ([]domain.OrderSummary, error) {
	inner, err := orderBy(page.Sort, orderSortColumns, "o.id")
	if err != nil {
		return nil, err
	}
	outer, err := orderBy(page.Sort, pageSortColumns, "p.id")
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		WITH p AS (
			SELECT o.id, m.name, o.ordered_at, o.status, o.delivery_city, o.delivery_street, o.delivery_zipcode
			`+orderViewFrom+`
			`+inner+`
			LIMIT $1 OFFSET $2
		)
		SELECT p.id, p.name, p.ordered_at, p.status, p.delivery_city, p.delivery_street, p.delivery_zipcode,
			i.name, oi.order_price, oi.quantity
		FROM p
		LEFT JOIN order_items oi ON oi.order_id = p.id
		LEFT JOIN items i ON i.id = oi.item_id
		`+outer+`, oi.line_no
	`, page.Size, page.Offset())
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var joined []joinedRow[domain.OrderSummary, domain.OrderItemSummary]
	for rows.Next() {
		var (
			s        domain.OrderSummary
			status   string
			itemName sql.NullString
			price    sql.NullInt64
			quantity sql.NullInt32
		)
		err := rows.Scan(
			&s.OrderID, &s.MemberName, &s.OrderedAt, &status, &s.Address.City, &s.Address.Street, &s.Address.Zipcode,
			&itemName, &price, &quantity,
		)
		if err != nil {
			return nil, storageErr(err)
		}
		s.Status = domain.OrderStatus(status)
		joined = append(joined, summaryRow(s, itemName, price, quantity))
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	return collapseSummaries(joined), nil
}
