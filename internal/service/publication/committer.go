package publication

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/identifier"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/schedule"
)

// Commit steps, in execution order.
const (
	StepHeader         = "header"
	StepCategory       = "category"
	StepImages         = "images"
	StepStaff          = "staff"
	StepServices       = "services"
	StepHours          = "hours"
	StepAccreditations = "accreditations"
)

type Repositories struct {
	Clinics    repository.ClinicRepository
	Categories repository.CategoryRepository
	Catalog    repository.CatalogRepository
	Media      repository.MediaRepository
	Hours      repository.HoursRepository
}

// Committer writes a submission across the clinic tables. Every step is
// idempotent and there is no transaction spanning steps: a failed commit
// leaves earlier steps in place and is recovered by committing again.
type Committer struct {
	repos    Repositories
	resolver *identifier.Resolver
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewCommitter(repos Repositories, resolver *identifier.Resolver, logger zerolog.Logger, m *metrics.Metrics) *Committer {
	return &Committer{
		repos:    repos,
		resolver: resolver,
		logger:   logger.With().Str("component", "publication").Logger(),
		metrics:  m,
		now:      time.Now,
	}
}

// Commit writes sub. A nil clinicID selects the bulk import path, which
// creates the clinic (or reuses the one already holding its slug); otherwise
// the clinic with that id is inserted or updated.
func (c *Committer) Commit(ctx context.Context, clinicID uuid.UUID, sub *model.Submission) (*model.CommitResult, error) {
	source := "owner"
	if clinicID == uuid.Nil {
		source = "import"
	}

	result, err := c.commit(ctx, clinicID, sub)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else if result.Reused {
		outcome = "reused"
	}
	if c.metrics != nil {
		c.metrics.Commits.WithLabelValues(source, outcome).Inc()
	}
	return result, err
}

func (c *Committer) commit(ctx context.Context, clinicID uuid.UUID, sub *model.Submission) (*model.CommitResult, error) {
	var result *model.CommitResult
	err := c.step(StepHeader, clinicID, func() (err error) {
		result, err = c.writeHeader(ctx, clinicID, sub)
		return err
	})
	if err != nil {
		return nil, err
	}
	id := result.ClinicID

	steps := []struct {
		name string
		fn   func() error
	}{
		{StepCategory, func() error { return c.linkCategory(ctx, id, sub.Category) }},
		{StepImages, func() error { return c.addImages(ctx, id, sub.Images) }},
		{StepStaff, func() error { return c.addStaff(ctx, id, sub.Doctors) }},
		{StepServices, func() error { return c.upsertServices(ctx, id, sub.Services) }},
		{StepHours, func() error { return c.upsertHours(ctx, id, sub.Hours) }},
		{StepAccreditations, func() error { return c.linkAccreditations(ctx, id, sub.Accreditations) }},
	}
	for _, s := range steps {
		if err := c.step(s.name, id, s.fn); err != nil {
			return nil, err
		}
	}

	c.logger.Info().
		Str("clinic_id", id.String()).
		Str("slug", result.Slug).
		Bool("reused", result.Reused).
		Msg("Submission committed")
	return result, nil
}

func (c *Committer) step(name string, clinicID uuid.UUID, fn func() error) error {
	start := time.Now()
	err := fn()
	if c.metrics != nil {
		c.metrics.CommitSteps.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.logger.Error().Err(err).
			Str("clinic_id", clinicID.String()).
			Str("step", name).
			Msg("Commit step failed")
	}
	return err
}

func (c *Committer) writeHeader(ctx context.Context, clinicID uuid.UUID, sub *model.Submission) (*model.CommitResult, error) {
	slug := c.resolver.Slug(sub.Name)
	if slug == "" {
		return nil, apperrors.BadRequest(fmt.Sprintf("clinic name %q has no characters usable in a slug", sub.Name), nil)
	}

	clinic := &model.Clinic{
		Name:      sub.Name,
		Slug:      slug,
		Summary:   sub.Summary,
		Country:   sub.Country,
		Province:  sub.Province,
		City:      sub.City,
		District:  sub.District,
		Address:   sub.Address,
		MapURL:    sub.MapURL,
		Latitude:  sub.Latitude,
		Longitude: sub.Longitude,
		Payments:  sub.Payments,
		Amenities: sub.Amenities.Normalized(),
	}

	if clinicID == uuid.Nil {
		return c.createHeader(ctx, clinic, sub.Visibility)
	}

	clinic.ID = clinicID
	err := c.repos.Clinics.UpsertHeader(ctx, clinic)
	if err == nil {
		return &model.CommitResult{ClinicID: clinicID, Slug: slug}, nil
	}
	if !repository.IsConflict(err, repository.ConstraintClinicSlug) {
		return nil, err
	}
	c.countConflict(repository.ConstraintClinicSlug)

	holder, err := c.repos.Clinics.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to read clinic after slug conflict: %w", err)
	}
	if holder.ID == clinicID {
		return &model.CommitResult{ClinicID: clinicID, Slug: slug}, nil
	}

	clinic.Slug = disambiguate(slug, clinicID)
	c.logger.Warn().
		Str("clinic_id", clinicID.String()).
		Str("slug", slug).
		Str("holder_id", holder.ID.String()).
		Str("new_slug", clinic.Slug).
		Msg("Slug taken by another clinic")
	if err := c.repos.Clinics.UpsertHeader(ctx, clinic); err != nil {
		return nil, err
	}
	return &model.CommitResult{ClinicID: clinicID, Slug: clinic.Slug}, nil
}

func (c *Committer) createHeader(ctx context.Context, clinic *model.Clinic, visibility *model.ImportStatus) (*model.CommitResult, error) {
	status := model.ImportPending
	if visibility != nil {
		status = *visibility
	}
	status.Apply(clinic)
	if clinic.IsPublished {
		now := c.now()
		clinic.FirstPublishedAt = &now
	}

	err := c.repos.Clinics.Create(ctx, clinic)
	if err == nil {
		return &model.CommitResult{ClinicID: clinic.ID, Slug: clinic.Slug}, nil
	}
	if !repository.IsConflict(err, repository.ConstraintClinicSlug) {
		return nil, err
	}
	c.countConflict(repository.ConstraintClinicSlug)

	existing, err := c.repos.Clinics.GetBySlug(ctx, clinic.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to read clinic after slug conflict: %w", err)
	}
	c.logger.Info().
		Str("clinic_id", existing.ID.String()).
		Str("slug", existing.Slug).
		Msg("Clinic already exists, reusing")
	return &model.CommitResult{ClinicID: existing.ID, Slug: existing.Slug, Reused: true}, nil
}

// disambiguate appends the first block of the clinic id, so repeated
// commits of the same clinic land on the same slug.
func disambiguate(slug string, clinicID uuid.UUID) string {
	return slug + "-" + strings.SplitN(clinicID.String(), "-", 2)[0]
}

func (c *Committer) countConflict(constraint string) {
	if c.metrics != nil {
		c.metrics.Conflicts.WithLabelValues(constraint).Inc()
	}
}

func (c *Committer) linkCategory(ctx context.Context, clinicID uuid.UUID, category string) error {
	if c.resolver.Slug(category) == "" {
		return nil
	}
	categoryID, err := c.resolver.ResolveCategory(ctx, category)
	if err != nil {
		return err
	}
	return c.repos.Categories.LinkClinic(ctx, clinicID, categoryID)
}

func (c *Committer) addImages(ctx context.Context, clinicID uuid.UUID, items []model.ImageItem) error {
	if len(items) == 0 {
		return nil
	}
	urls, err := c.repos.Media.ListImageURLs(ctx, clinicID)
	if err != nil {
		return err
	}
	seen := toSet(urls)

	var images []*model.ClinicImage
	for _, item := range items {
		if seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		images = append(images, &model.ClinicImage{
			ClinicID:  clinicID,
			URL:       item.URL,
			Title:     item.Title,
			SortOrder: len(urls) + len(images),
		})
	}
	if len(images) == 0 {
		return nil
	}
	return c.repos.Media.CreateImages(ctx, images)
}

func (c *Committer) addStaff(ctx context.Context, clinicID uuid.UUID, doctors []model.DoctorItem) error {
	if len(doctors) == 0 {
		return nil
	}
	names, err := c.repos.Media.ListStaffNames(ctx, clinicID)
	if err != nil {
		return err
	}
	seen := toSet(names)

	var staff []*model.Staff
	for _, d := range doctors {
		if seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		staff = append(staff, &model.Staff{
			ClinicID:  clinicID,
			Name:      d.Name,
			Title:     d.Title,
			Specialty: d.Specialty,
			PhotoURL:  d.Photo,
			Bio:       d.Bio,
		})
	}
	if len(staff) == 0 {
		return nil
	}
	return c.repos.Media.CreateStaff(ctx, staff)
}

func (c *Committer) upsertServices(ctx context.Context, clinicID uuid.UUID, items []model.ServiceItem) error {
	for _, item := range items {
		serviceID, err := c.repos.Catalog.UpsertService(ctx, &model.Service{
			Name:        item.Name,
			Description: item.Description,
		})
		if err != nil {
			return err
		}
		err = c.repos.Catalog.UpsertClinicService(ctx, &model.ClinicService{
			ClinicID:  clinicID,
			ServiceID: serviceID,
			Price:     item.Price,
			Currency:  item.Currency,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Committer) upsertHours(ctx context.Context, clinicID uuid.UUID, entries []model.HoursEntry) error {
	if len(entries) == 0 {
		return nil
	}

	in := make([]schedule.Entry, 0, len(entries))
	for _, e := range entries {
		if len(schedule.ParseWeekdayToken(e.Day)) == 0 {
			c.logger.Debug().Str("clinic_id", clinicID.String()).Str("day", e.Day).Msg("Ignoring unrecognized weekday")
			if c.metrics != nil {
				c.metrics.HoursDropped.Inc()
			}
		}
		in = append(in, schedule.Entry{Day: e.Day, Time: e.Time})
	}

	rows := schedule.Normalize(in)
	if len(rows) == 0 {
		return nil
	}
	hours := make([]model.ClinicHours, 0, len(rows))
	for _, row := range rows {
		hours = append(hours, model.ClinicHours{
			ClinicID:  clinicID,
			Weekday:   row.Weekday,
			OpenTime:  clockString(row.Open),
			CloseTime: clockString(row.Close),
			IsClosed:  row.IsClosed,
		})
	}
	return c.repos.Hours.UpsertHours(ctx, hours)
}

func clockString(c *schedule.Clock) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func (c *Committer) linkAccreditations(ctx context.Context, clinicID uuid.UUID, items []model.AccreditationItem) error {
	for _, item := range items {
		accreditationID, err := c.repos.Catalog.UpsertAccreditation(ctx, &model.Accreditation{
			Name:        item.Name,
			LogoURL:     item.LogoURL,
			Description: item.Description,
		})
		if err != nil {
			return err
		}
		if err := c.repos.Catalog.LinkAccreditation(ctx, clinicID, accreditationID); err != nil {
			return err
		}
	}
	return nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
