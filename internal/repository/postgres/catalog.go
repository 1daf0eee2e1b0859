package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

type catalogRepository struct {
	BaseRepository
}

func NewCatalogRepository(base BaseRepository) repository.CatalogRepository {
	return &catalogRepository{base}
}

// UpsertService returns the id of the catalog row named service.Name,
// creating it when missing. A non-empty description replaces the stored one.
func (r *catalogRepository) UpsertService(ctx context.Context, service *model.Service) (uuid.UUID, error) {
	query := `
		INSERT INTO services (id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET
			description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE services.description END
		RETURNING id
	`
	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query, uuid.New(), service.Name, service.Description); err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert service: %w", translateError(err))
	}
	service.ID = id
	return id, nil
}

func (r *catalogRepository) UpsertClinicService(ctx context.Context, link *model.ClinicService) error {
	query := `
		INSERT INTO clinic_services (clinic_id, service_id, price, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (clinic_id, service_id) DO UPDATE SET
			price = EXCLUDED.price,
			currency = EXCLUDED.currency
	`
	if _, err := r.db.ExecContext(ctx, query, link.ClinicID, link.ServiceID, link.Price, link.Currency); err != nil {
		return fmt.Errorf("failed to upsert clinic service: %w", translateError(err))
	}
	return nil
}

func (r *catalogRepository) UpsertAccreditation(ctx context.Context, accreditation *model.Accreditation) (uuid.UUID, error) {
	query := `
		INSERT INTO accreditations (id, name, logo_url, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			logo_url = CASE WHEN EXCLUDED.logo_url <> '' THEN EXCLUDED.logo_url ELSE accreditations.logo_url END,
			description = CASE WHEN EXCLUDED.description <> '' THEN EXCLUDED.description ELSE accreditations.description END
		RETURNING id
	`
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, query,
		uuid.New(),
		accreditation.Name,
		accreditation.LogoURL,
		accreditation.Description,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert accreditation: %w", translateError(err))
	}
	accreditation.ID = id
	return id, nil
}

func (r *catalogRepository) LinkAccreditation(ctx context.Context, clinicID, accreditationID uuid.UUID) error {
	query := `
		INSERT INTO clinic_accreditations (clinic_id, accreditation_id)
		VALUES ($1, $2)
		ON CONFLICT (clinic_id, accreditation_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, clinicID, accreditationID); err != nil {
		return fmt.Errorf("failed to link clinic accreditation: %w", translateError(err))
	}
	return nil
}
