package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// ActivityRepository stores the append-only audit trail.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Activity, error)
}

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository builds the repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	const query = `
        INSERT INTO ticket_activity (ticket_id, action, old_value, new_value, actor)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		activity.TicketID,
		activity.Action,
		activity.OldValue,
		activity.NewValue,
		activity.Actor,
	).Scan(&activity.ID, &activity.CreatedAt)
}

func (r *activityRepository) ListByTicket(ctx context.Context, ticketID string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 5
	}
	const query = `
        SELECT id, ticket_id, action, old_value, new_value, actor, created_at
        FROM ticket_activity WHERE ticket_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, ticketID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.TicketID,
			&activity.Action,
			&activity.OldValue,
			&activity.NewValue,
			&activity.Actor,
			&activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
