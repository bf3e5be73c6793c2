package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facilityhub/ticket-service/internal/domain"
)

// CategoryRepository handles persistence for per-property ticket categories.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	ListByProperty(ctx context.Context, propertyID string) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository instantiates the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, property_id, code, name, keywords, created_at
        FROM ticket_categories WHERE id=$1`
	var category domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.PropertyID,
		&category.Code,
		&category.Name,
		&category.Keywords,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) ListByProperty(ctx context.Context, propertyID string) ([]domain.Category, error) {
	const query = `
        SELECT id, property_id, code, name, keywords, created_at
        FROM ticket_categories WHERE property_id=$1 ORDER BY code ASC`
	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.PropertyID,
			&category.Code,
			&category.Name,
			&category.Keywords,
			&category.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
