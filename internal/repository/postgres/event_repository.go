package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"storefront/internal/domain"
)

var errVersionMismatch = domain.Conflict("concurrency conflict: version mismatch")

// eventRepository appends to the events table inside the caller's
// transaction, so an event commits or rolls back with the change it records.
type eventRepository struct{ *repositories }

func (r eventRepository) currentVersion(ctx context.Context, aggregateID uuid.UUID) (int, error) {
	var v int
	err := r.q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM events
		WHERE aggregate_id = $1
	`, aggregateID).Scan(&v)
	if err != nil && !isNoRows(err) {
		return 0, storageErr(err)
	}
	return v, nil
}

func (r eventRepository) Append(ctx context.Context, aggregateID uuid.UUID, aggregateType string, expectedVersion int, events ...domain.Event) error {
	ctx, span := r.tracer.Start(ctx, "events.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID.String()),
			attribute.String("aggregate.type", aggregateType),
			attribute.Int("expected.version", expectedVersion),
			attribute.Int("event.count", len(events)),
		),
	)
	defer span.End()

	current, err := r.currentVersion(ctx, aggregateID)
	if err != nil {
		return err
	}
	if current != expectedVersion {
		span.SetAttributes(
			attribute.Int("actual.version", current),
			attribute.Bool("conflict.detected", true),
		)
		return errVersionMismatch
	}

	now := time.Now().UTC()
	for i, e := range events {
		version := expectedVersion + i + 1

		var metadata any
		if e.Metadata != nil {
			raw, err := json.Marshal(e.Metadata)
			if err != nil {
				return fmt.Errorf("json.Marshal[metadata]: %w", err)
			}
			metadata = raw
		}

		var eventID int64
		err = r.q.QueryRowContext(ctx, `
			INSERT INTO events (aggregate_id, aggregate_type, event_type, event_data, metadata, version, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, aggregateID, aggregateType, e.EventType, []byte(e.EventData), metadata, version, now).Scan(&eventID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
				return errVersionMismatch
			}
			return storageErr(err)
		}

		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.Int64("event.id", eventID),
			attribute.Int("event.version", version),
			attribute.String("event.type", e.EventType),
		))
	}
	return nil
}

func (r eventRepository) Load(ctx context.Context, aggregateID uuid.UUID) ([]domain.Event, error) {
	ctx, span := r.tracer.Start(ctx, "events.load",
		trace.WithAttributes(attribute.String("aggregate.id", aggregateID.String())))
	defer span.End()

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, metadata, version, created_at
		FROM events
		WHERE aggregate_id = $1
		ORDER BY version ASC
	`, aggregateID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e        domain.Event
			data     []byte
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &data, &metadata, &e.Version, &e.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		e.EventData = json.RawMessage(data)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("json.Unmarshal[metadata]: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}
