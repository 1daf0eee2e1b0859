package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type categoryRepository struct {
	BaseRepository
}

func NewCategoryRepository(base BaseRepository) repository.CategoryRepository {
	return &categoryRepository{base}
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	query := `SELECT id, name, slug, created_at FROM categories WHERE slug = $1`

	var category model.Category
	if err := r.db.GetContext(ctx, &category, query, slug); err != nil {
		return nil, fmt.Errorf("failed to get category: %w", translateError(err))
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	query := `INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = r.now()

	_, err := r.db.ExecContext(ctx, query, category.ID, category.Name, category.Slug, category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", translateError(err))
	}
	return nil
}

func (r *categoryRepository) LinkClinic(ctx context.Context, clinicID, categoryID uuid.UUID) error {
	query := `
		INSERT INTO clinic_categories (clinic_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT (clinic_id, category_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, clinicID, categoryID); err != nil {
		return fmt.Errorf("failed to link clinic category: %w", translateError(err))
	}
	return nil
}
