// Package memory is an in-process implementation of the repository
// interfaces. It enforces the same unique constraints as the postgres schema,
// reporting violations as *repository.ConflictError with the constraint name.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

var errUniqueViolation = errors.New("duplicate key value violates unique constraint")

type linkKey struct {
	clinicID uuid.UUID
	otherID  uuid.UUID
}

type hoursKey struct {
	clinicID uuid.UUID
	weekday  int
}

// Store holds every table. Repositories obtained from it share state.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	clinics      map[uuid.UUID]model.Clinic
	clinicSlugs  map[string]uuid.UUID
	drafts       map[uuid.UUID]model.Draft
	categories   map[string]model.Category
	clinicCats   map[linkKey]struct{}
	services     map[string]model.Service
	clinicSvcs   map[linkKey]model.ClinicService
	accreds      map[string]model.Accreditation
	clinicAccred map[linkKey]struct{}
	images       []model.ClinicImage
	staff        []model.Staff
	hours        map[hoursKey]model.ClinicHours

	failures map[string]error
}

func New() *Store {
	return &Store{
		now:          time.Now,
		clinics:      make(map[uuid.UUID]model.Clinic),
		clinicSlugs:  make(map[string]uuid.UUID),
		drafts:       make(map[uuid.UUID]model.Draft),
		categories:   make(map[string]model.Category),
		clinicCats:   make(map[linkKey]struct{}),
		services:     make(map[string]model.Service),
		clinicSvcs:   make(map[linkKey]model.ClinicService),
		accreds:      make(map[string]model.Accreditation),
		clinicAccred: make(map[linkKey]struct{}),
		hours:        make(map[hoursKey]model.ClinicHours),
		failures:     make(map[string]error),
	}
}

// FailOn makes the named repository method return err until cleared with a
// nil err. Names are "<Repo>.<Method>", e.g. "Media.CreateStaff".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) fail(op string) error {
	return s.failures[op]
}

func (s *Store) Clinics() repository.ClinicRepository      { return &clinicRepo{s} }
func (s *Store) Drafts() repository.DraftRepository        { return &draftRepo{s} }
func (s *Store) Categories() repository.CategoryRepository { return &categoryRepo{s} }
func (s *Store) Catalog() repository.CatalogRepository     { return &catalogRepo{s} }
func (s *Store) Media() repository.MediaRepository         { return &mediaRepo{s} }
func (s *Store) Hours() repository.HoursRepository         { return &hoursRepo{s} }

// Inspection helpers for tests.

func (s *Store) ClinicCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clinics)
}

func (s *Store) Images(clinicID uuid.UUID) []model.ClinicImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ClinicImage
	for _, img := range s.images {
		if img.ClinicID == clinicID {
			out = append(out, img)
		}
	}
	return out
}

func (s *Store) Staff(clinicID uuid.UUID) []model.Staff {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Staff
	for _, st := range s.staff {
		if st.ClinicID == clinicID {
			out = append(out, st)
		}
	}
	return out
}

func (s *Store) ClinicServices(clinicID uuid.UUID) []model.ClinicService {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ClinicService
	for k, link := range s.clinicSvcs {
		if k.clinicID == clinicID {
			out = append(out, link)
		}
	}
	return out
}

func (s *Store) ClinicCategories(clinicID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for k := range s.clinicCats {
		if k.clinicID == clinicID {
			out = append(out, k.otherID)
		}
	}
	return out
}

func (s *Store) ClinicAccreditations(clinicID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []uuid.UUID
	for k := range s.clinicAccred {
		if k.clinicID == clinicID {
			out = append(out, k.otherID)
		}
	}
	return out
}

func (s *Store) CategoryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.categories)
}

func conflict(constraint string) error {
	return &repository.ConflictError{Constraint: constraint, Err: errUniqueViolation}
}

type clinicRepo struct{ s *Store }

func (r *clinicRepo) Create(ctx context.Context, clinic *model.Clinic) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Clinics.Create"); err != nil {
		return err
	}

	if clinic.ID == uuid.Nil {
		clinic.ID = uuid.New()
	}
	if _, ok := s.clinics[clinic.ID]; ok {
		return conflict("clinics_pkey")
	}
	if _, ok := s.clinicSlugs[clinic.Slug]; ok && clinic.Slug != "" {
		return conflict(repository.ConstraintClinicSlug)
	}
	clinic.CreatedAt = s.now()
	clinic.UpdatedAt = clinic.CreatedAt

	s.clinics[clinic.ID] = *clinic
	if clinic.Slug != "" {
		s.clinicSlugs[clinic.Slug] = clinic.ID
	}
	return nil
}

func (r *clinicRepo) UpsertHeader(ctx context.Context, clinic *model.Clinic) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Clinics.UpsertHeader"); err != nil {
		return err
	}

	if owner, ok := s.clinicSlugs[clinic.Slug]; ok && clinic.Slug != "" && owner != clinic.ID {
		return conflict(repository.ConstraintClinicSlug)
	}

	now := s.now()
	existing, ok := s.clinics[clinic.ID]
	if !ok {
		if clinic.Status == "" {
			clinic.Status = model.VisibilityDraft
		}
		if clinic.ModerationStatus == "" {
			clinic.ModerationStatus = model.ModerationPending
		}
		clinic.CreatedAt = now
		clinic.UpdatedAt = now
		clinic.FirstPublishedAt = nil
		clinic.ModerationNote = nil
		s.clinics[clinic.ID] = *clinic
	} else {
		delete(s.clinicSlugs, existing.Slug)
		updated := existing
		updated.Name = clinic.Name
		updated.Slug = clinic.Slug
		updated.Summary = clinic.Summary
		updated.Country = clinic.Country
		updated.Province = clinic.Province
		updated.City = clinic.City
		updated.District = clinic.District
		updated.Address = clinic.Address
		updated.MapURL = clinic.MapURL
		updated.Latitude = clinic.Latitude
		updated.Longitude = clinic.Longitude
		updated.Payments = clinic.Payments
		updated.Amenities = clinic.Amenities
		updated.UpdatedAt = now
		s.clinics[clinic.ID] = updated
	}
	if clinic.Slug != "" {
		s.clinicSlugs[clinic.Slug] = clinic.ID
	}
	return nil
}

func (r *clinicRepo) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Clinics.Get"); err != nil {
		return nil, err
	}

	clinic, ok := s.clinics[id]
	if !ok {
		return nil, fmt.Errorf("failed to get clinic: %w", repository.ErrNotFound)
	}
	return &clinic, nil
}

func (r *clinicRepo) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Clinics.GetBySlug"); err != nil {
		return nil, err
	}

	id, ok := s.clinicSlugs[slug]
	if !ok {
		return nil, fmt.Errorf("failed to get clinic by slug: %w", repository.ErrNotFound)
	}
	clinic := s.clinics[id]
	return &clinic, nil
}

func (r *clinicRepo) UpdateModeration(ctx context.Context, id uuid.UUID, update *model.ModerationUpdate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Clinics.UpdateModeration"); err != nil {
		return err
	}

	clinic, ok := s.clinics[id]
	if !ok {
		return fmt.Errorf("failed to update clinic moderation: %w", repository.ErrNotFound)
	}
	now := s.now()
	clinic.Status = update.Status
	clinic.ModerationStatus = update.ModerationStatus
	clinic.IsPublished = update.IsPublished
	clinic.ModerationNote = update.Note
	if update.MarkPublished && clinic.FirstPublishedAt == nil {
		clinic.FirstPublishedAt = &now
	}
	clinic.UpdatedAt = now
	s.clinics[id] = clinic
	return nil
}

func (r *clinicRepo) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Clinics.List"); err != nil {
		return nil, err
	}

	var out []*model.Clinic
	for _, c := range s.clinics {
		if filter != nil && filter.ModerationStatus != "" && c.ModerationStatus != filter.ModerationStatus {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type draftRepo struct{ s *Store }

func (r *draftRepo) Get(ctx context.Context, clinicID uuid.UUID) (*model.Draft, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Drafts.Get"); err != nil {
		return nil, err
	}

	draft, ok := s.drafts[clinicID]
	if !ok {
		return nil, fmt.Errorf("failed to get draft: %w", repository.ErrNotFound)
	}
	return &draft, nil
}

func (r *draftRepo) Create(ctx context.Context, clinicID uuid.UUID, status model.DraftStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Drafts.Create"); err != nil {
		return err
	}

	if _, ok := s.drafts[clinicID]; ok {
		return nil
	}
	now := s.now()
	s.drafts[clinicID] = model.Draft{ClinicID: clinicID, Status: status, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (r *draftRepo) UpsertSection(ctx context.Context, clinicID uuid.UUID, section model.Section, payload model.JSONB) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Drafts.UpsertSection"); err != nil {
		return err
	}

	sec, err := model.ParseSection(string(section))
	if err != nil {
		return err
	}
	now := s.now()
	draft, ok := s.drafts[clinicID]
	if !ok {
		draft = model.Draft{ClinicID: clinicID, Status: model.DraftEditing, CreatedAt: now}
	}
	draft.Set(sec, append(model.JSONB(nil), payload...))
	draft.UpdatedAt = now
	s.drafts[clinicID] = draft
	return nil
}

func (r *draftRepo) UpsertWhole(ctx context.Context, clinicID uuid.UUID, content *model.DraftContent) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Drafts.UpsertWhole"); err != nil {
		return err
	}

	now := s.now()
	draft, ok := s.drafts[clinicID]
	if !ok {
		draft = model.Draft{ClinicID: clinicID, Status: model.DraftEditing, CreatedAt: now}
	}
	draft.DraftSections = content.DraftSections
	if content.Status != nil {
		draft.Status = *content.Status
	}
	draft.UpdatedAt = now
	s.drafts[clinicID] = draft
	return nil
}

func (r *draftRepo) UpdateStatus(ctx context.Context, clinicID uuid.UUID, status model.DraftStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Drafts.UpdateStatus"); err != nil {
		return err
	}

	draft, ok := s.drafts[clinicID]
	if !ok {
		return fmt.Errorf("failed to update draft status: %w", repository.ErrNotFound)
	}
	draft.Status = status
	draft.UpdatedAt = s.now()
	s.drafts[clinicID] = draft
	return nil
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Categories.GetBySlug"); err != nil {
		return nil, err
	}

	category, ok := s.categories[slug]
	if !ok {
		return nil, fmt.Errorf("failed to get category: %w", repository.ErrNotFound)
	}
	return &category, nil
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Categories.Create"); err != nil {
		return err
	}

	if _, ok := s.categories[category.Slug]; ok {
		return conflict(repository.ConstraintCategorySlug)
	}
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = s.now()
	s.categories[category.Slug] = *category
	return nil
}

func (r *categoryRepo) LinkClinic(ctx context.Context, clinicID, categoryID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Categories.LinkClinic"); err != nil {
		return err
	}

	s.clinicCats[linkKey{clinicID, categoryID}] = struct{}{}
	return nil
}

type catalogRepo struct{ s *Store }

func (r *catalogRepo) UpsertService(ctx context.Context, service *model.Service) (uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Catalog.UpsertService"); err != nil {
		return uuid.Nil, err
	}

	existing, ok := s.services[service.Name]
	if !ok {
		existing = model.Service{ID: uuid.New(), Name: service.Name}
	}
	if service.Description != "" {
		existing.Description = service.Description
	}
	s.services[service.Name] = existing
	service.ID = existing.ID
	return existing.ID, nil
}

func (r *catalogRepo) UpsertClinicService(ctx context.Context, link *model.ClinicService) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Catalog.UpsertClinicService"); err != nil {
		return err
	}

	s.clinicSvcs[linkKey{link.ClinicID, link.ServiceID}] = *link
	return nil
}

func (r *catalogRepo) UpsertAccreditation(ctx context.Context, accreditation *model.Accreditation) (uuid.UUID, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Catalog.UpsertAccreditation"); err != nil {
		return uuid.Nil, err
	}

	existing, ok := s.accreds[accreditation.Name]
	if !ok {
		existing = model.Accreditation{ID: uuid.New(), Name: accreditation.Name}
	}
	if accreditation.LogoURL != "" {
		existing.LogoURL = accreditation.LogoURL
	}
	if accreditation.Description != "" {
		existing.Description = accreditation.Description
	}
	s.accreds[accreditation.Name] = existing
	accreditation.ID = existing.ID
	return existing.ID, nil
}

func (r *catalogRepo) LinkAccreditation(ctx context.Context, clinicID, accreditationID uuid.UUID) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Catalog.LinkAccreditation"); err != nil {
		return err
	}

	s.clinicAccred[linkKey{clinicID, accreditationID}] = struct{}{}
	return nil
}

type mediaRepo struct{ s *Store }

func (r *mediaRepo) ListImageURLs(ctx context.Context, clinicID uuid.UUID) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Media.ListImageURLs"); err != nil {
		return nil, err
	}

	var urls []string
	for _, img := range s.images {
		if img.ClinicID == clinicID {
			urls = append(urls, img.URL)
		}
	}
	return urls, nil
}

func (r *mediaRepo) CreateImages(ctx context.Context, images []*model.ClinicImage) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Media.CreateImages"); err != nil {
		return err
	}

	for _, img := range images {
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		s.images = append(s.images, *img)
	}
	return nil
}

func (r *mediaRepo) ListStaffNames(ctx context.Context, clinicID uuid.UUID) ([]string, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Media.ListStaffNames"); err != nil {
		return nil, err
	}

	var names []string
	for _, st := range s.staff {
		if st.ClinicID == clinicID {
			names = append(names, st.Name)
		}
	}
	return names, nil
}

func (r *mediaRepo) CreateStaff(ctx context.Context, staff []*model.Staff) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Media.CreateStaff"); err != nil {
		return err
	}

	for _, st := range staff {
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		}
		s.staff = append(s.staff, *st)
	}
	return nil
}

type hoursRepo struct{ s *Store }

func (r *hoursRepo) UpsertHours(ctx context.Context, hours []model.ClinicHours) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Hours.UpsertHours"); err != nil {
		return err
	}

	seen := make(map[hoursKey]bool, len(hours))
	for _, h := range hours {
		key := hoursKey{h.ClinicID, h.Weekday}
		if seen[key] {
			// postgres refuses to update the same row twice in one statement
			return fmt.Errorf("failed to upsert clinic hours: weekday %d repeated", h.Weekday)
		}
		seen[key] = true
	}
	for _, h := range hours {
		s.hours[hoursKey{h.ClinicID, h.Weekday}] = h
	}
	return nil
}

func (r *hoursRepo) ListHours(ctx context.Context, clinicID uuid.UUID) ([]model.ClinicHours, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Hours.ListHours"); err != nil {
		return nil, err
	}

	var out []model.ClinicHours
	for k, h := range s.hours {
		if k.clinicID == clinicID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weekday < out[j].Weekday })
	return out, nil
}
