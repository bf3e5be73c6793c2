package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// MemberFilter defines query params for member listing.
type MemberFilter struct {
	PropertyID     *string
	OrganizationID *string
	Roles          []domain.Role
	Active         *bool
	Limit          int
}

// MemberRepository handles persistence for platform members.
type MemberRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByEmail(ctx context.Context, email string) (*domain.Member, error)
	List(ctx context.Context, filter MemberFilter) ([]domain.Member, error)
}

type memberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository instantiates the repository.
func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &memberRepository{pool: pool}
}

const memberColumns = `id, name, email, password_hash, role, organization_id, property_id,
               is_available, current_floor, active_flag, created_at, updated_at`

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *memberRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Member, error) {
	var member domain.Member
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&member.ID,
		&member.Name,
		&member.Email,
		&member.PasswordHash,
		&member.Role,
		&member.OrganizationID,
		&member.PropertyID,
		&member.IsAvailable,
		&member.CurrentFloor,
		&member.Active,
		&member.CreatedAt,
		&member.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) List(ctx context.Context, filter MemberFilter) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members`
	args := []any{}
	clauses := []string{}

	if filter.PropertyID != nil {
		args = append(args, *filter.PropertyID)
		clauses = append(clauses, fmt.Sprintf("property_id=$%d", len(args)))
	}
	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		clauses = append(clauses, fmt.Sprintf("organization_id=$%d", len(args)))
	}
	if len(filter.Roles) > 0 {
		placeholders := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			args = append(args, role)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("role IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY name ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Member
	for rows.Next() {
		var member domain.Member
		if err := rows.Scan(
			&member.ID,
			&member.Name,
			&member.Email,
			&member.PasswordHash,
			&member.Role,
			&member.OrganizationID,
			&member.PropertyID,
			&member.IsAvailable,
			&member.CurrentFloor,
			&member.Active,
			&member.CreatedAt,
			&member.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, member)
	}
	return result, rows.Err()
}
