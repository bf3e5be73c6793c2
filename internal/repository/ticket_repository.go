package repository

import (
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// ErrVersionConflict reports a stale-version write on a ticket that still
// exists. Callers distinguish it from pgx.ErrNoRows to map onto CONFLICT
// rather than NOT_FOUND.
var ErrVersionConflict = fmt.Errorf("ticket version conflict")

// TicketFilter scopes ticket listings to one property or a whole
// organization. Exactly one of PropertyID/OrganizationID is expected.
type TicketFilter struct {
	PropertyID     *string
	OrganizationID *string
	Statuses       []domain.TicketStatus
	AssignedTo     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the ticket using its Version as the optimistic-lock
	// token and increments it on success. Returns ErrVersionConflict when
	// the row exists at a different version, pgx.ErrNoRows when it is gone.
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// CountActiveByAssignee returns non-terminal ticket counts keyed by
	// assignee id for the given scope.
	CountActiveByAssignee(ctx context.Context, filter TicketFilter) (map[string]int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, title, description, category_id, confidence_score, is_vague,
               status, priority, assigned_to, raised_by, property_id, organization_id,
               sla_deadline, sla_breached, sla_paused, sla_paused_at, sla_paused_total_seconds,
               version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, title, description, category_id, confidence_score, is_vague,
            status, priority, assigned_to, raised_by, property_id, organization_id,
            sla_deadline, sla_breached, sla_paused, sla_paused_at, sla_paused_total_seconds)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.ConfidenceScore,
		ticket.IsVague,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.RaisedBy,
		ticket.PropertyID,
		ticket.OrganizationID,
		ticket.SLADeadline,
		ticket.SLABreached,
		ticket.SLAPaused,
		ticket.SLAPausedAt,
		int64(ticket.SLAPausedTotal/time.Second),
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category_id=$3, confidence_score=$4, is_vague=$5,
            status=$6, priority=$7, assigned_to=$8, sla_deadline=$9, sla_breached=$10,
            sla_paused=$11, sla_paused_at=$12, sla_paused_total_seconds=$13,
            version=version+1, updated_at=NOW()
        WHERE id=$14 AND version=$15`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.ConfidenceScore,
		ticket.IsVague,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.SLADeadline,
		ticket.SLABreached,
		ticket.SLAPaused,
		ticket.SLAPausedAt,
		int64(ticket.SLAPausedTotal/time.Second),
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.PropertyID != nil {
		args = append(args, *filter.PropertyID)
		clauses = append(clauses, fmt.Sprintf("property_id=$%d", len(args)))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountActiveByAssignee(ctx context.Context, filter TicketFilter) (map[string]int, error) {
	clauses := []string{"assigned_to IS NOT NULL", "status NOT IN ('resolved','closed')"}
	args := []any{}
	if filter.PropertyID != nil {
		args = append(args, *filter.PropertyID)
		clauses = append(clauses, fmt.Sprintf("property_id=$%d", len(args)))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT assigned_to, COUNT(*) FROM tickets WHERE %s GROUP BY assigned_to`,
		strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var userID string
		var count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, err
		}
		counts[userID] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var pausedSeconds int64
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.ConfidenceScore,
		&ticket.IsVague,
		&ticket.Status,
		&ticket.Priority,
		&ticket.AssignedTo,
		&ticket.RaisedBy,
		&ticket.PropertyID,
		&ticket.OrganizationID,
		&ticket.SLADeadline,
		&ticket.SLABreached,
		&ticket.SLAPaused,
		&ticket.SLAPausedAt,
		&pausedSeconds,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	ticket.SLAPausedTotal = time.Duration(pausedSeconds) * time.Second
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
