package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type clinicRepository struct {
	BaseRepository
}

func NewClinicRepository(base BaseRepository) repository.ClinicRepository {
	return &clinicRepository{base}
}

const clinicColumns = `
	id, name, COALESCE(slug, '') AS slug, summary, country, province, city,
	district, address, map_url, latitude, longitude, payments, amenities,
	status, moderation_status, moderation_note, is_published,
	first_published_at, created_at, updated_at`

func (r *clinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (
			id, name, slug, summary, country, province, city, district, address,
			map_url, latitude, longitude, payments, amenities, status,
			moderation_status, is_published, first_published_at, created_at, updated_at
		) VALUES (
			:id, :name, :slug, :summary, :country, :province, :city, :district, :address,
			:map_url, :latitude, :longitude, :payments, :amenities, :status,
			:moderation_status, :is_published, :first_published_at, :created_at, :updated_at
		)
	`
	if clinic.ID == uuid.Nil {
		clinic.ID = uuid.New()
	}
	clinic.CreatedAt = r.now()
	clinic.UpdatedAt = clinic.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, clinic); err != nil {
		return fmt.Errorf("failed to create clinic: %w", translateError(err))
	}
	return nil
}

func (r *clinicRepository) UpsertHeader(ctx context.Context, clinic *model.Clinic) error {
	query := `
		INSERT INTO clinics (
			id, name, slug, summary, country, province, city, district, address,
			map_url, latitude, longitude, payments, amenities, status,
			moderation_status, is_published, created_at, updated_at
		) VALUES (
			:id, :name, :slug, :summary, :country, :province, :city, :district, :address,
			:map_url, :latitude, :longitude, :payments, :amenities, :status,
			:moderation_status, :is_published, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			summary = EXCLUDED.summary,
			country = EXCLUDED.country,
			province = EXCLUDED.province,
			city = EXCLUDED.city,
			district = EXCLUDED.district,
			address = EXCLUDED.address,
			map_url = EXCLUDED.map_url,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			payments = EXCLUDED.payments,
			amenities = EXCLUDED.amenities,
			updated_at = EXCLUDED.updated_at
	`
	clinic.CreatedAt = r.now()
	clinic.UpdatedAt = clinic.CreatedAt
	if clinic.Status == "" {
		clinic.Status = model.VisibilityDraft
	}
	if clinic.ModerationStatus == "" {
		clinic.ModerationStatus = model.ModerationPending
	}

	if _, err := r.db.NamedExecContext(ctx, query, clinic); err != nil {
		return fmt.Errorf("failed to upsert clinic header: %w", translateError(err))
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE id = $1`

	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, id); err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", translateError(err))
	}
	return &clinic, nil
}

func (r *clinicRepository) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	query := `SELECT ` + clinicColumns + ` FROM clinics WHERE slug = $1`

	var clinic model.Clinic
	if err := r.db.GetContext(ctx, &clinic, query, slug); err != nil {
		return nil, fmt.Errorf("failed to get clinic by slug: %w", translateError(err))
	}
	return &clinic, nil
}

func (r *clinicRepository) UpdateModeration(ctx context.Context, id uuid.UUID, update *model.ModerationUpdate) error {
	query := `
		UPDATE clinics
		SET status = $1,
			moderation_status = $2,
			is_published = $3,
			moderation_note = $4,
			first_published_at = CASE WHEN $5 THEN COALESCE(first_published_at, $6) ELSE first_published_at END,
			updated_at = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		update.Status,
		update.ModerationStatus,
		update.IsPublished,
		update.Note,
		update.MarkPublished,
		r.now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinic moderation: %w", translateError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("failed to update clinic moderation: %w", err)
	}
	return nil
}

func (r *clinicRepository) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	query := `
		SELECT ` + clinicColumns + `
		FROM clinics
		WHERE (COALESCE($1, '') = '' OR moderation_status = $1)
		ORDER BY created_at DESC
	`
	status := ""
	if filter != nil {
		status = string(filter.ModerationStatus)
	}

	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query, status); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", translateError(err))
	}
	return clinics, nil
}
