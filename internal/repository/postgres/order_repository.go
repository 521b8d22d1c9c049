package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
)

const orderColumns = `
	id, member_id, payment_method, status,
	delivery_city, delivery_street, delivery_zipcode, delivery_status,
	ordered_at, updated_at`

type orderRepository struct{ *repositories }

func scanOrder(row scanner) (domain.Order, error) {
	var (
		o              domain.Order
		status         string
		deliveryStatus string
	)
	err := row.Scan(
		&o.ID, &o.MemberID, &o.PaymentMethod, &status,
		&o.Delivery.Address.City, &o.Delivery.Address.Street, &o.Delivery.Address.Zipcode, &deliveryStatus,
		&o.OrderedAt, &o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.Delivery.Status = domain.DeliveryStatus(deliveryStatus)
	return o, nil
}

func (r orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "orders.create",
		trace.WithAttributes(
			attribute.String("order.id", order.ID.String()),
			attribute.Int("order.lines", len(order.Items)),
		))
	defer span.End()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, order.ID, order.MemberID, order.PaymentMethod, string(order.Status),
		order.Delivery.Address.City, order.Delivery.Address.Street, order.Delivery.Address.Zipcode,
		string(order.Delivery.Status), order.OrderedAt, order.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}

	if len(order.Items) == 0 {
		return nil
	}

	values := make([]string, 0, len(order.Items))
	args := make([]any, 0, len(order.Items)*6)
	for i, line := range order.Items {
		n := len(args)
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6))
		args = append(args, line.ID, order.ID, i+1, line.ItemID, line.OrderPrice.Amount(), line.Quantity)
	}
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO order_items (id, order_id, line_no, item_id, order_price, quantity)
		VALUES `+strings.Join(values, ", "), args...)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

func (r orderRepository) LockByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "orders.lock_by_id",
		trace.WithAttributes(attribute.String("order.id", id.String())))
	defer span.End()

	o, err := scanOrder(r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if isNoRows(err) {
		return domain.Order{}, domain.NotFound("order %s not found", id)
	}
	if err != nil {
		return domain.Order{}, storageErr(err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, item_id, order_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		return domain.Order{}, storageErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line  domain.OrderItem
			price int64
		)
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ItemID, &price, &line.Quantity); err != nil {
			return domain.Order{}, storageErr(err)
		}
		line.OrderPrice = domain.NewMoney(price)
		o.Items = append(o.Items, line)
	}
	if err := rows.Err(); err != nil {
		return domain.Order{}, storageErr(err)
	}
	return o, nil
}

func (r orderRepository) UpdateStatus(ctx context.Context, order domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "orders.update_status",
		trace.WithAttributes(
			attribute.String("order.id", order.ID.String()),
			attribute.String("order.status", string(order.Status)),
		))
	defer span.End()

	res, err := r.q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, delivery_status = $3, updated_at = $4
		WHERE id = $1
	`, order.ID, string(order.Status), string(order.Delivery.Status), order.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return domain.NotFound("order %s not found", order.ID)
	}
	return nil
}
