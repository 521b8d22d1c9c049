package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
)

const itemColumns = `id, kind, name, price, stock_quantity, attributes, created_at, updated_at`

var itemSortColumns = map[string]string{
	domain.SortByID:   "id",
	domain.SortByName: "name",
}

type itemRepository struct{ *repositories }

func scanItem(row scanner) (domain.Item, error) {
	var (
		it    domain.Item
		kind  string
		price int64
		attrs []byte
	)
	if err := row.Scan(&it.ID, &kind, &it.Name, &price, &it.StockQuantity, &attrs, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return domain.Item{}, err
	}
	it.Kind = domain.ItemKind(kind)
	it.Price = domain.NewMoney(price)
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &it.Attributes); err != nil {
			return domain.Item{}, fmt.Errorf("json.Unmarshal[attributes]: %w", err)
		}
	}
	if len(it.Attributes) == 0 {
		it.Attributes = nil
	}
	return it, nil
}

func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return json.Marshal(attrs)
}

func (r itemRepository) Create(ctx context.Context, item domain.Item) error {
	ctx, span := r.tracer.Start(ctx, "items.create",
		trace.WithAttributes(attribute.String("item.id", item.ID.String())))
	defer span.End()

	attrs, err := marshalAttributes(item.Attributes)
	if err != nil {
		return fmt.Errorf("marshalAttributes: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, item.ID, string(item.Kind), item.Name, item.Price.Amount(), item.StockQuantity, attrs, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

func (r itemRepository) Get(ctx context.Context, id uuid.UUID) (domain.Item, error) {
	ctx, span := r.tracer.Start(ctx, "items.get",
		trace.WithAttributes(attribute.String("item.id", id.String())))
	defer span.End()

	it, err := scanItem(r.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if isNoRows(err) {
		return domain.Item{}, domain.NotFound("item %s not found", id)
	}
	if err != nil {
		return domain.Item{}, storageErr(err)
	}
	return it, nil
}

func (r itemRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.Item, error) {
	ctx, span := r.tracer.Start(ctx, "items.list",
		trace.WithAttributes(attribute.String("page.sort", page.Sort.String())))
	defer span.End()

	order, err := orderBy(page.Sort, itemSortColumns, "id")
	if err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+itemColumns+` FROM items `+order+` LIMIT $1 OFFSET $2`,
		page.Size, page.Offset())
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

// LockByIDs locks rows in id order so concurrent multi-line orders cannot
// deadlock on each other.
func (r itemRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	ctx, span := r.tracer.Start(ctx, "items.lock_by_ids",
		trace.WithAttributes(attribute.Int("item.count", len(ids))))
	defer span.End()

	rows, err := r.q.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM items
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`, uuidArray(ids))
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.Item, len(ids))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out[it.ID] = it
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

func (r itemRepository) Update(ctx context.Context, item domain.Item) error {
	ctx, span := r.tracer.Start(ctx, "items.update",
		trace.WithAttributes(
			attribute.String("item.id", item.ID.String()),
			attribute.Int("item.stock", item.StockQuantity),
		))
	defer span.End()

	attrs, err := marshalAttributes(item.Attributes)
	if err != nil {
		return fmt.Errorf("marshalAttributes: %w", err)
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE items
		SET name = $2, price = $3, stock_quantity = $4, attributes = $5, updated_at = $6
		WHERE id = $1
	`, item.ID, item.Name, item.Price.Amount(), item.StockQuantity, attrs, item.UpdatedAt)
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return domain.NotFound("item %s not found", item.ID)
	}
	return nil
}
