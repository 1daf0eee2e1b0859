package moderation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Event types published after each transition.
const (
	EventClinicSubmitted = "clinic.submitted"
	EventClinicUpdated   = "clinic.updated"
	EventClinicApproved  = "clinic.approved"
	EventClinicRejected  = "clinic.rejected"
)

type ModerationServicer interface {
	Submit(ctx context.Context, clinicID uuid.UUID) (*SubmitResult, error)
	Approve(ctx context.Context, clinicID uuid.UUID) (*model.Clinic, error)
	Reject(ctx context.Context, clinicID uuid.UUID, reason string) (*model.Clinic, error)
	List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error)
}

type SubmissionBuilder interface {
	BuildSubmission(d *model.Draft) (*model.Submission, error)
}

type Committer interface {
	Commit(ctx context.Context, clinicID uuid.UUID, sub *model.Submission) (*model.CommitResult, error)
}

// SubmitResult is returned to the owner after a submission.
type SubmitResult struct {
	ClinicID     uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	WasPublished bool      `json:"was_published"`
}

// ClinicEvent is the payload of every moderation event.
type ClinicEvent struct {
	ClinicID uuid.UUID `json:"clinic_id"`
	Name     string    `json:"name,omitempty"`
	Slug     string    `json:"slug,omitempty"`
	State    State     `json:"state"`
	Reason   string    `json:"reason,omitempty"`
}

type Service struct {
	clinics   repository.ClinicRepository
	drafts    repository.DraftRepository
	builder   SubmissionBuilder
	committer Committer
	publisher messaging.Publisher
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	clinics repository.ClinicRepository,
	drafts repository.DraftRepository,
	builder SubmissionBuilder,
	committer Committer,
	publisher messaging.Publisher,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &Service{
		clinics:   clinics,
		drafts:    drafts,
		builder:   builder,
		committer: committer,
		publisher: publisher,
		logger:    logger.With().Str("component", "moderation").Logger(),
		metrics:   m,
	}
}

// Submit commits the owner's draft. A clinic that has never been published
// goes to review; a published clinic is updated in place and its draft
// returns to editing.
func (s *Service) Submit(ctx context.Context, clinicID uuid.UUID) (*SubmitResult, error) {
	d, err := s.drafts.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("draft", err)
		}
		return nil, err
	}
	sub, err := s.builder.BuildSubmission(d)
	if err != nil {
		return nil, err
	}

	clinic, err := s.lookup(ctx, clinicID)
	if err != nil {
		return nil, err
	}
	from := StateOf(clinic)
	to, err := Next(from, EventSubmit)
	if err != nil {
		return nil, apperrors.Conflict(err.Error(), err)
	}

	result, err := s.committer.Commit(ctx, clinicID, sub)
	if err != nil {
		return nil, err
	}

	eventType := EventClinicUpdated
	draftStatus := model.DraftEditing
	if to == StatePending {
		eventType = EventClinicSubmitted
		draftStatus = model.DraftPending
		err := s.clinics.UpdateModeration(ctx, clinicID, &model.ModerationUpdate{
			Status:           model.VisibilityDraft,
			ModerationStatus: model.ModerationPending,
			IsPublished:      false,
		})
		if err != nil {
			return nil, err
		}
	}
	if err := s.drafts.UpdateStatus(ctx, clinicID, draftStatus); err != nil {
		return nil, err
	}

	s.transitioned(ctx, EventSubmit, from, to, eventType, ClinicEvent{
		ClinicID: clinicID,
		Name:     sub.Name,
		Slug:     result.Slug,
		State:    to,
	})
	return &SubmitResult{ClinicID: result.ClinicID, Slug: result.Slug, WasPublished: from == StatePublished}, nil
}

// Approve publishes a clinic waiting for review.
func (s *Service) Approve(ctx context.Context, clinicID uuid.UUID) (*model.Clinic, error) {
	clinic, from, to, err := s.prepare(ctx, clinicID, EventApprove)
	if err != nil {
		return nil, err
	}

	err = s.clinics.UpdateModeration(ctx, clinicID, &model.ModerationUpdate{
		Status:           model.VisibilityPublished,
		ModerationStatus: model.ModerationApproved,
		IsPublished:      true,
		MarkPublished:    true,
	})
	if err != nil {
		return nil, err
	}
	if err := s.resetDraft(ctx, clinicID); err != nil {
		return nil, err
	}

	s.transitioned(ctx, EventApprove, from, to, EventClinicApproved, ClinicEvent{
		ClinicID: clinicID,
		Name:     clinic.Name,
		Slug:     clinic.Slug,
		State:    to,
	})
	return s.clinics.Get(ctx, clinicID)
}

// Reject sends a clinic back to its owner. The reason is kept on the clinic
// until the next moderation decision.
func (s *Service) Reject(ctx context.Context, clinicID uuid.UUID, reason string) (*model.Clinic, error) {
	clinic, from, to, err := s.prepare(ctx, clinicID, EventReject)
	if err != nil {
		return nil, err
	}

	var note *string
	if reason = strings.TrimSpace(reason); reason != "" {
		note = &reason
	}
	err = s.clinics.UpdateModeration(ctx, clinicID, &model.ModerationUpdate{
		Status:           model.VisibilityDraft,
		ModerationStatus: model.ModerationRejected,
		IsPublished:      false,
		Note:             note,
	})
	if err != nil {
		return nil, err
	}
	if err := s.resetDraft(ctx, clinicID); err != nil {
		return nil, err
	}

	s.transitioned(ctx, EventReject, from, to, EventClinicRejected, ClinicEvent{
		ClinicID: clinicID,
		Name:     clinic.Name,
		Slug:     clinic.Slug,
		State:    to,
		Reason:   reason,
	})
	return s.clinics.Get(ctx, clinicID)
}

// List returns clinics for the moderation queue.
func (s *Service) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	return s.clinics.List(ctx, filter)
}

func (s *Service) lookup(ctx context.Context, clinicID uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.clinics.Get(ctx, clinicID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return clinic, err
}

func (s *Service) prepare(ctx context.Context, clinicID uuid.UUID, ev Event) (*model.Clinic, State, State, error) {
	clinic, err := s.lookup(ctx, clinicID)
	if err != nil {
		return nil, "", "", err
	}
	if clinic == nil {
		return nil, "", "", apperrors.NotFound("clinic", repository.ErrNotFound)
	}
	from := StateOf(clinic)
	to, err := Next(from, ev)
	if err != nil {
		return nil, "", "", apperrors.Conflict(err.Error(), err)
	}
	return clinic, from, to, nil
}

// resetDraft reopens the owner's draft. Imported clinics may have none.
func (s *Service) resetDraft(ctx context.Context, clinicID uuid.UUID) error {
	err := s.drafts.UpdateStatus(ctx, clinicID, model.DraftEditing)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}

func (s *Service) transitioned(ctx context.Context, ev Event, from, to State, eventType string, payload ClinicEvent) {
	s.logger.Info().
		Str("clinic_id", payload.ClinicID.String()).
		Str("event", string(ev)).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("Moderation transition")
	if s.metrics != nil {
		s.metrics.Transitions.WithLabelValues(string(ev), string(to)).Inc()
	}
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn().Err(err).
			Str("clinic_id", payload.ClinicID.String()).
			Str("event_type", eventType).
			Msg("Failed to publish moderation event")
	}
}
