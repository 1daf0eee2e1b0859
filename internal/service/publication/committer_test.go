package publication

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/identifier"
)

func newCommitter(store *memory.Store) *Committer {
	resolver := identifier.NewResolver(store.Categories(), time.Hour, time.Hour, zerolog.Nop(), nil)
	return NewCommitter(Repositories{
		Clinics:    store.Clinics(),
		Categories: store.Categories(),
		Catalog:    store.Catalog(),
		Media:      store.Media(),
		Hours:      store.Hours(),
	}, resolver, zerolog.Nop(), nil)
}

func price(v float64) *float64 { return &v }

func sampleSubmission() *model.Submission {
	published := model.ImportPublished
	return &model.Submission{
		Name:       "Antalya Dental Center",
		Summary:    "Implants and veneers",
		Category:   "Dental",
		Country:    "Turkey",
		City:       "Antalya",
		Address:    "Lara Cd. 12",
		Payments:   model.Payments{{Method: "Visa"}},
		Visibility: &published,
		Services: []model.ServiceItem{
			{Name: "Implant", Price: price(450), Currency: "EUR"},
		},
		Images: []model.ImageItem{
			{URL: "https://cdn.example.com/a.jpg"},
			{URL: "https://cdn.example.com/b.jpg", Title: "Lobby"},
		},
		Doctors: []model.DoctorItem{
			{Name: "Dr. Ayşe Kaya", Specialty: "Implantology"},
		},
		Hours: []model.HoursEntry{
			{Day: "Mon-Fri", Time: "9:00 am - 6:00 pm"},
			{Day: "Sunday", Time: "Closed"},
		},
		Accreditations: []model.AccreditationItem{{Name: "JCI"}},
	}
}

func TestCommitImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := newCommitter(store)

	first, err := c.Commit(ctx, uuid.Nil, sampleSubmission())
	require.NoError(t, err)
	assert.Equal(t, "antalya-dental-center", first.Slug)
	assert.False(t, first.Reused)

	second, err := c.Commit(ctx, uuid.Nil, sampleSubmission())
	require.NoError(t, err)
	assert.Equal(t, first.ClinicID, second.ClinicID)
	assert.True(t, second.Reused)

	assert.Equal(t, 1, store.ClinicCount())
	assert.Len(t, store.Images(first.ClinicID), 2)
	assert.Len(t, store.Staff(first.ClinicID), 1)
	assert.Len(t, store.ClinicServices(first.ClinicID), 1)
	assert.Len(t, store.ClinicCategories(first.ClinicID), 1)
	assert.Len(t, store.ClinicAccreditations(first.ClinicID), 1)
	assert.Equal(t, 1, store.CategoryCount())

	clinic, err := store.Clinics().Get(ctx, first.ClinicID)
	require.NoError(t, err)
	assert.True(t, clinic.IsPublished)
	assert.Equal(t, model.ModerationApproved, clinic.ModerationStatus)
	assert.True(t, clinic.EverPublished())
}

func TestCommitWeekdayRangeAndClosedSunday(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	result, err := newCommitter(store).Commit(ctx, uuid.Nil, sampleSubmission())
	require.NoError(t, err)

	hours, err := store.Hours().ListHours(ctx, result.ClinicID)
	require.NoError(t, err)
	require.Len(t, hours, 6)

	for _, h := range hours[:5] {
		require.NotNil(t, h.OpenTime)
		require.NotNil(t, h.CloseTime)
		assert.Equal(t, "09:00:00", *h.OpenTime)
		assert.Equal(t, "18:00:00", *h.CloseTime)
		assert.False(t, h.IsClosed)
	}
	sunday := hours[5]
	assert.Equal(t, 7, sunday.Weekday)
	assert.True(t, sunday.IsClosed)
	assert.Nil(t, sunday.OpenTime)
	assert.Nil(t, sunday.CloseTime)
}

func TestCommitHoursLaterEntryWinsAndUnknownDaysDropped(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sub := sampleSubmission()
	sub.Hours = []model.HoursEntry{
		{Day: "Mon-Wed", Time: "10 - 14"},
		{Day: "Tuesday", Time: "Closed"},
		{Day: "Someday", Time: "9-5"},
		{Day: "Fri-Mon", Time: "9-5"},
	}

	result, err := newCommitter(store).Commit(ctx, uuid.Nil, sub)
	require.NoError(t, err)

	hours, err := store.Hours().ListHours(ctx, result.ClinicID)
	require.NoError(t, err)
	require.Len(t, hours, 3)
	assert.Equal(t, 1, hours[0].Weekday)
	assert.Equal(t, "10:00:00", *hours[0].OpenTime)
	assert.Equal(t, 2, hours[1].Weekday)
	assert.True(t, hours[1].IsClosed)
	assert.Equal(t, 3, hours[2].Weekday)
}

func TestCommitAbortsWithoutRollback(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := newCommitter(store)
	boom := errors.New("staff table locked")
	store.FailOn("Media.CreateStaff", boom)

	_, err := c.Commit(ctx, uuid.Nil, sampleSubmission())
	require.ErrorIs(t, err, boom)

	existing, err := store.Clinics().GetBySlug(ctx, "antalya-dental-center")
	require.NoError(t, err)
	assert.Len(t, store.Images(existing.ID), 2)
	assert.Empty(t, store.Staff(existing.ID))
	assert.Empty(t, store.ClinicServices(existing.ID))

	store.FailOn("Media.CreateStaff", nil)
	result, err := c.Commit(ctx, uuid.Nil, sampleSubmission())
	require.NoError(t, err)
	assert.Equal(t, existing.ID, result.ClinicID)
	assert.Len(t, store.Images(existing.ID), 2)
	assert.Len(t, store.Staff(existing.ID), 1)
	assert.Len(t, store.ClinicServices(existing.ID), 1)
}

func TestCommitDoesNotMaskUnrelatedConflict(t *testing.T) {
	store := memory.New()
	store.FailOn("Clinics.Create", &repository.ConflictError{Constraint: "clinics_pkey", Err: errors.New("dup")})

	_, err := newCommitter(store).Commit(context.Background(), uuid.Nil, sampleSubmission())
	require.Error(t, err)
	assert.True(t, repository.IsConflict(err, "clinics_pkey"))
	assert.Equal(t, 0, store.ClinicCount())
}

func TestCommitOwnerPathDisambiguatesTakenSlug(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := newCommitter(store)

	imported, err := c.Commit(ctx, uuid.Nil, sampleSubmission())
	require.NoError(t, err)

	ownerID := uuid.New()
	sub := sampleSubmission()
	sub.Visibility = nil
	first, err := c.Commit(ctx, ownerID, sub)
	require.NoError(t, err)
	assert.Equal(t, ownerID, first.ClinicID)
	assert.NotEqual(t, imported.ClinicID, first.ClinicID)
	assert.True(t, strings.HasPrefix(first.Slug, "antalya-dental-center-"))

	again, err := c.Commit(ctx, ownerID, sub)
	require.NoError(t, err)
	assert.Equal(t, first.Slug, again.Slug)
	assert.Equal(t, 2, store.ClinicCount())
}

func TestCommitOwnerPathLeavesModerationAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	c := newCommitter(store)
	ownerID := uuid.New()

	sub := sampleSubmission()
	sub.Visibility = nil
	_, err := c.Commit(ctx, ownerID, sub)
	require.NoError(t, err)

	clinic, err := store.Clinics().Get(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, model.ModerationPending, clinic.ModerationStatus)
	assert.False(t, clinic.IsPublished)

	require.NoError(t, store.Clinics().UpdateModeration(ctx, ownerID, &model.ModerationUpdate{
		Status:           model.VisibilityPublished,
		ModerationStatus: model.ModerationApproved,
		IsPublished:      true,
		MarkPublished:    true,
	}))

	sub.Summary = "Updated summary"
	_, err = c.Commit(ctx, ownerID, sub)
	require.NoError(t, err)

	clinic, err = store.Clinics().Get(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "Updated summary", clinic.Summary)
	assert.True(t, clinic.IsPublished)
	assert.Equal(t, model.ModerationApproved, clinic.ModerationStatus)
}

func TestCommitRejectsUnsluggableName(t *testing.T) {
	sub := sampleSubmission()
	sub.Name = "!!!"
	_, err := newCommitter(memory.New()).Commit(context.Background(), uuid.Nil, sub)
	assert.Error(t, err)
}
