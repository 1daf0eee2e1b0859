package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type ClinicServicer interface {
	Import(ctx context.Context, req *model.ClinicImportRequest) (*model.CommitResult, error)
	GetPublicProfile(ctx context.Context, slug string) (*model.ClinicProfile, error)
}

type Committer interface {
	Commit(ctx context.Context, clinicID uuid.UUID, sub *model.Submission) (*model.CommitResult, error)
}

type Service struct {
	clinics   repository.ClinicRepository
	hours     repository.HoursRepository
	committer Committer
	validator validator.Validator
	logger    zerolog.Logger
}

func NewService(clinics repository.ClinicRepository, hours repository.HoursRepository, committer Committer, v validator.Validator, logger zerolog.Logger) *Service {
	return &Service{
		clinics:   clinics,
		hours:     hours,
		committer: committer,
		validator: v,
		logger:    logger.With().Str("component", "clinic").Logger(),
	}
}

// Import validates a bulk import document and commits it as a new clinic.
// Nothing is written when validation fails. Data-layer failures are reported
// to the caller as bad requests carrying the underlying message.
func (s *Service) Import(ctx context.Context, req *model.ClinicImportRequest) (*model.CommitResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.BadRequest("invalid clinic import", err)
	}

	result, err := s.committer.Commit(ctx, uuid.Nil, req.Submission())
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	s.logger.Info().
		Str("clinic_id", result.ClinicID.String()).
		Str("status", string(req.Status)).
		Bool("reused", result.Reused).
		Msg("Clinic imported")
	return result, nil
}

// GetPublicProfile returns a published clinic with its weekly hours.
func (s *Service) GetPublicProfile(ctx context.Context, slug string) (*model.ClinicProfile, error) {
	clinic, err := s.clinics.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("clinic", err)
		}
		return nil, err
	}
	if !clinic.IsPublished {
		return nil, apperrors.NotFound("clinic", nil)
	}

	hours, err := s.hours.ListHours(ctx, clinic.ID)
	if err != nil {
		return nil, err
	}
	if hours == nil {
		hours = []model.ClinicHours{}
	}
	return &model.ClinicProfile{Clinic: clinic, Hours: hours}, nil
}
