package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// WebhookRepository records processed payment events so a redelivered
// webhook never creates a second order.
type WebhookRepository interface {
	// MarkProcessed returns false when the event was already recorded.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

type pgWebhookRepo struct{ pool *pgxpool.Pool }

func NewWebhookRepository(pool *pgxpool.Pool) WebhookRepository {
	return &pgWebhookRepo{pool: pool}
}

func (r *pgWebhookRepo) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	ct, err := r.pool.Exec(ctx,
		`INSERT INTO webhook_events (event_id, event_type, processed_at)
		 VALUES ($1, $2, NOW()) ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType,
	)
	if err != nil {
		return false, fmt.Errorf("mark webhook processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
