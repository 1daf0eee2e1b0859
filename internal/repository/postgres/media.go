package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type mediaRepository struct {
	BaseRepository
}

func NewMediaRepository(base BaseRepository) repository.MediaRepository {
	return &mediaRepository{base}
}

func (r *mediaRepository) ListImageURLs(ctx context.Context, clinicID uuid.UUID) ([]string, error) {
	query := `SELECT url FROM clinic_images WHERE clinic_id = $1 ORDER BY sort_order`

	var urls []string
	if err := r.db.SelectContext(ctx, &urls, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list clinic images: %w", translateError(err))
	}
	return urls, nil
}

func (r *mediaRepository) CreateImages(ctx context.Context, images []*model.ClinicImage) error {
	query := `
		INSERT INTO clinic_images (id, clinic_id, url, title, sort_order)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, img := range images {
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		if _, err := r.db.ExecContext(ctx, query, img.ID, img.ClinicID, img.URL, img.Title, img.SortOrder); err != nil {
			return fmt.Errorf("failed to create clinic image: %w", translateError(err))
		}
	}
	return nil
}

func (r *mediaRepository) ListStaffNames(ctx context.Context, clinicID uuid.UUID) ([]string, error) {
	query := `SELECT name FROM staff WHERE clinic_id = $1`

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", translateError(err))
	}
	return names, nil
}

func (r *mediaRepository) CreateStaff(ctx context.Context, staff []*model.Staff) error {
	query := `
		INSERT INTO staff (id, clinic_id, name, title, specialty, photo_url, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, s := range staff {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		_, err := r.db.ExecContext(ctx, query, s.ID, s.ClinicID, s.Name, s.Title, s.Specialty, s.PhotoURL, s.Bio)
		if err != nil {
			return fmt.Errorf("failed to create staff: %w", translateError(err))
		}
	}
	return nil
}
