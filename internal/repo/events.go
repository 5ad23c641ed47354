package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawkart/backend/internal/events"
)

// EventsRepo persists domain events; it satisfies events.EventStore.
type EventsRepo struct {
	Pool *pgxpool.Pool
}

func (r EventsRepo) InsertEvent(ctx context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	const q = `
INSERT INTO domain_events (topic, aggregate_id, payload)
VALUES ($1, $2, $3)
RETURNING id::text, topic, aggregate_id::text, payload, occurred_at`
	var ev events.Event
	err := r.Pool.QueryRow(ctx, q, topic, aggregateID, payload).Scan(
		&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt,
	)
	return ev, err
}

// ListRecent returns the newest events for a topic, newest first.
func (r EventsRepo) ListRecent(ctx context.Context, topic string, limit int32) ([]events.Event, error) {
	const q = `
SELECT id::text, topic, aggregate_id::text, payload, occurred_at
FROM domain_events
WHERE topic = $1
ORDER BY occurred_at DESC
LIMIT $2`
	rows, err := r.Pool.Query(ctx, q, topic, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []events.Event
	for rows.Next() {
		var ev events.Event
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
