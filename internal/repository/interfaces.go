package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	// ClinicRepository handles the published clinic header
	ClinicRepository interface {
		// Create inserts a new clinic. A taken slug fails with a ConflictError
		// on ConstraintClinicSlug.
		Create(ctx context.Context, clinic *model.Clinic) error
		// UpsertHeader inserts the clinic or updates its profile columns by id.
		// Moderation columns are only written on insert.
		UpsertHeader(ctx context.Context, clinic *model.Clinic) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
		GetBySlug(ctx context.Context, slug string) (*model.Clinic, error)
		UpdateModeration(ctx context.Context, id uuid.UUID, update *model.ModerationUpdate) error
		List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error)
	}

	// DraftRepository handles the per-clinic draft row
	DraftRepository interface {
		Get(ctx context.Context, clinicID uuid.UUID) (*model.Draft, error)
		// Create inserts an empty draft; an existing row is left as is.
		Create(ctx context.Context, clinicID uuid.UUID, status model.DraftStatus) error
		UpsertSection(ctx context.Context, clinicID uuid.UUID, section model.Section, payload model.JSONB) error
		UpsertWhole(ctx context.Context, clinicID uuid.UUID, content *model.DraftContent) error
		UpdateStatus(ctx context.Context, clinicID uuid.UUID, status model.DraftStatus) error
	}

	CategoryRepository interface {
		GetBySlug(ctx context.Context, slug string) (*model.Category, error)
		// Create fails with a ConflictError on ConstraintCategorySlug when the
		// slug is taken.
		Create(ctx context.Context, category *model.Category) error
		LinkClinic(ctx context.Context, clinicID, categoryID uuid.UUID) error
	}

	// CatalogRepository handles the shared service and accreditation catalogs
	CatalogRepository interface {
		UpsertService(ctx context.Context, service *model.Service) (uuid.UUID, error)
		UpsertClinicService(ctx context.Context, link *model.ClinicService) error
		UpsertAccreditation(ctx context.Context, accreditation *model.Accreditation) (uuid.UUID, error)
		LinkAccreditation(ctx context.Context, clinicID, accreditationID uuid.UUID) error
	}

	// MediaRepository handles append-only clinic images and staff
	MediaRepository interface {
		ListImageURLs(ctx context.Context, clinicID uuid.UUID) ([]string, error)
		CreateImages(ctx context.Context, images []*model.ClinicImage) error
		ListStaffNames(ctx context.Context, clinicID uuid.UUID) ([]string, error)
		CreateStaff(ctx context.Context, staff []*model.Staff) error
	}

	HoursRepository interface {
		UpsertHours(ctx context.Context, hours []model.ClinicHours) error
		ListHours(ctx context.Context, clinicID uuid.UUID) ([]model.ClinicHours, error)
	}
)
