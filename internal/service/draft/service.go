package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type DraftServicer interface {
	GetOrCreate(ctx context.Context, clinicID uuid.UUID) (*model.Draft, error)
	SaveSection(ctx context.Context, clinicID uuid.UUID, section string, payload json.RawMessage) error
	SaveWhole(ctx context.Context, clinicID uuid.UUID, content *model.DraftContent) error
	BuildSubmission(d *model.Draft) (*model.Submission, error)
}

type Service struct {
	drafts    repository.DraftRepository
	validator validator.Validator
	logger    zerolog.Logger
}

func NewService(drafts repository.DraftRepository, v validator.Validator, logger zerolog.Logger) *Service {
	return &Service{
		drafts:    drafts,
		validator: v,
		logger:    logger.With().Str("component", "draft").Logger(),
	}
}

// GetOrCreate returns the clinic's draft, creating an empty one on first use.
func (s *Service) GetOrCreate(ctx context.Context, clinicID uuid.UUID) (*model.Draft, error) {
	d, err := s.drafts.Get(ctx, clinicID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.drafts.Create(ctx, clinicID, model.DraftEditing); err != nil {
		return nil, err
	}
	s.logger.Info().Str("clinic_id", clinicID.String()).Msg("Draft created")
	return s.drafts.Get(ctx, clinicID)
}

// SaveSection replaces one section. Other sections are left as stored.
func (s *Service) SaveSection(ctx context.Context, clinicID uuid.UUID, section string, payload json.RawMessage) error {
	sec, err := model.ParseSection(section)
	if err != nil {
		return apperrors.BadRequest(err.Error(), nil)
	}
	doc, err := document(sec, payload)
	if err != nil {
		return err
	}
	return s.drafts.UpsertSection(ctx, clinicID, sec, doc)
}

// SaveWhole replaces every section at once. A nil status keeps the stored one.
func (s *Service) SaveWhole(ctx context.Context, clinicID uuid.UUID, content *model.DraftContent) error {
	for _, sec := range model.Sections {
		payload := content.Get(sec)
		if payload.IsNull() {
			content.Set(sec, nil)
			continue
		}
		doc, err := document(sec, json.RawMessage(payload))
		if err != nil {
			return err
		}
		content.Set(sec, doc)
	}
	if content.Status != nil && *content.Status != model.DraftEditing && *content.Status != model.DraftPending {
		return apperrors.BadRequest(fmt.Sprintf("invalid draft status %q", *content.Status), nil)
	}
	return s.drafts.UpsertWhole(ctx, clinicID, content)
}

func document(sec model.Section, payload json.RawMessage) (model.JSONB, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || !json.Valid(payload) {
		return nil, apperrors.BadRequest(fmt.Sprintf("section %s must be a JSON document", sec), nil)
	}
	return model.JSONB(payload), nil
}

// BuildSubmission decodes the draft sections into a typed submission and
// validates it. Decoding and validation failures are bad requests.
func (s *Service) BuildSubmission(d *model.Draft) (*model.Submission, error) {
	var (
		basic      model.BasicInfoSection
		location   model.LocationSection
		facilities model.FacilitiesSection
		sub        model.Submission
	)

	if err := decode(model.SectionBasicInfo, d.BasicInfo, &basic); err != nil {
		return nil, err
	}
	if err := decode(model.SectionLocation, d.Location, &location); err != nil {
		return nil, err
	}
	if err := decode(model.SectionFacilities, d.Facilities, &facilities); err != nil {
		return nil, err
	}
	if err := decode(model.SectionServices, d.Services, &sub.Services); err != nil {
		return nil, err
	}
	if err := decode(model.SectionDoctors, d.Doctors, &sub.Doctors); err != nil {
		return nil, err
	}
	if err := decode(model.SectionGallery, d.Gallery, &sub.Images); err != nil {
		return nil, err
	}
	if err := decode(model.SectionHours, d.Hours, &sub.Hours); err != nil {
		return nil, err
	}
	payments, err := pricingPayments(d.Pricing)
	if err != nil {
		return nil, err
	}

	sub.Name = basic.Name
	sub.Summary = basic.Summary
	if sub.Summary == "" {
		sub.Summary = basic.Description
	}
	sub.Category = basic.Category

	sub.Country = location.Country
	sub.Province = location.Province
	if sub.Province == "" {
		sub.Province = location.Region
	}
	sub.City = location.City
	sub.District = location.District
	sub.Address = location.Address
	sub.MapURL = location.MapURL
	sub.Latitude = location.Latitude
	sub.Longitude = location.Longitude

	sub.Amenities = facilities.Amenities.Normalized()
	sub.Accreditations = facilities.Accreditations
	sub.Payments = model.NormalizePayments(payments)

	if err := s.validator.Validate(&sub); err != nil {
		return nil, apperrors.BadRequest("draft is incomplete", err)
	}
	return &sub, nil
}

func decode(sec model.Section, raw model.JSONB, dst interface{}) error {
	if raw.IsNull() {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.BadRequest(fmt.Sprintf("section %s is malformed", sec), err)
	}
	return nil
}

// pricingPayments accepts {"payments": [...]} or a bare payments array.
func pricingPayments(raw model.JSONB) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if raw.IsNull() || len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		return json.RawMessage(trimmed), nil
	}
	var pricing model.PricingSection
	if err := decode(model.SectionPricing, raw, &pricing); err != nil {
		return nil, err
	}
	return pricing.Payments, nil
}
