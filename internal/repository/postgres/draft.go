package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type draftRepository struct {
	BaseRepository
}

func NewDraftRepository(base BaseRepository) repository.DraftRepository {
	return &draftRepository{base}
}

func (r *draftRepository) Get(ctx context.Context, clinicID uuid.UUID) (*model.Draft, error) {
	query := `
		SELECT
			clinic_id, basic_info, services, doctors, facilities, hours,
			gallery, location, pricing, status, created_at, updated_at
		FROM clinic_drafts
		WHERE clinic_id = $1
	`
	var draft model.Draft
	if err := r.db.GetContext(ctx, &draft, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", translateError(err))
	}
	return &draft, nil
}

func (r *draftRepository) Create(ctx context.Context, clinicID uuid.UUID, status model.DraftStatus) error {
	query := `
		INSERT INTO clinic_drafts (clinic_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (clinic_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, clinicID, status, r.now()); err != nil {
		return fmt.Errorf("failed to create draft: %w", translateError(err))
	}
	return nil
}

// UpsertSection writes a single section column. The column name comes from
// the closed model.Sections list, never from user input directly.
func (r *draftRepository) UpsertSection(ctx context.Context, clinicID uuid.UUID, section model.Section, payload model.JSONB) error {
	column, err := model.ParseSection(string(section))
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO clinic_drafts (clinic_id, %[1]s, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (clinic_id) DO UPDATE SET
			%[1]s = EXCLUDED.%[1]s,
			updated_at = EXCLUDED.updated_at
	`, column)

	if _, err := r.db.ExecContext(ctx, query, clinicID, payload, model.DraftEditing, r.now()); err != nil {
		return fmt.Errorf("failed to save draft section %s: %w", column, translateError(err))
	}
	return nil
}

func (r *draftRepository) UpsertWhole(ctx context.Context, clinicID uuid.UUID, content *model.DraftContent) error {
	query := `
		INSERT INTO clinic_drafts (
			clinic_id, basic_info, services, doctors, facilities, hours,
			gallery, location, pricing, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::text, 'editing'), $11, $11
		)
		ON CONFLICT (clinic_id) DO UPDATE SET
			basic_info = EXCLUDED.basic_info,
			services = EXCLUDED.services,
			doctors = EXCLUDED.doctors,
			facilities = EXCLUDED.facilities,
			hours = EXCLUDED.hours,
			gallery = EXCLUDED.gallery,
			location = EXCLUDED.location,
			pricing = EXCLUDED.pricing,
			status = COALESCE($10::text, clinic_drafts.status),
			updated_at = EXCLUDED.updated_at
	`
	var status *string
	if content.Status != nil {
		s := string(*content.Status)
		status = &s
	}

	_, err := r.db.ExecContext(ctx, query,
		clinicID,
		content.BasicInfo,
		content.Services,
		content.Doctors,
		content.Facilities,
		content.Hours,
		content.Gallery,
		content.Location,
		content.Pricing,
		status,
		r.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", translateError(err))
	}
	return nil
}

func (r *draftRepository) UpdateStatus(ctx context.Context, clinicID uuid.UUID, status model.DraftStatus) error {
	query := `UPDATE clinic_drafts SET status = $1, updated_at = $2 WHERE clinic_id = $3`

	result, err := r.db.ExecContext(ctx, query, status, r.now(), clinicID)
	if err != nil {
		return fmt.Errorf("failed to update draft status: %w", translateError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("failed to update draft status: %w", err)
	}
	return nil
}
