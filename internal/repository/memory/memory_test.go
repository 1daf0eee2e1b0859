package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

func TestClinicSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()
	clinics := store.Clinics()

	require.NoError(t, clinics.Create(ctx, &model.Clinic{Name: "A", Slug: "a"}))
	err := clinics.Create(ctx, &model.Clinic{Name: "A", Slug: "a"})
	assert.True(t, repository.IsConflict(err, repository.ConstraintClinicSlug))

	other := &model.Clinic{Base: model.Base{ID: uuid.New()}, Name: "A", Slug: "a"}
	err = clinics.UpsertHeader(ctx, other)
	assert.True(t, repository.IsConflict(err, repository.ConstraintClinicSlug))
	assert.Equal(t, 1, store.ClinicCount())
}

func TestUpsertHeaderKeepsModerationColumns(t *testing.T) {
	ctx := context.Background()
	clinics := New().Clinics()
	id := uuid.New()

	require.NoError(t, clinics.UpsertHeader(ctx, &model.Clinic{Base: model.Base{ID: id}, Name: "A", Slug: "a"}))
	require.NoError(t, clinics.UpdateModeration(ctx, id, &model.ModerationUpdate{
		Status:           model.VisibilityPublished,
		ModerationStatus: model.ModerationApproved,
		IsPublished:      true,
		MarkPublished:    true,
	}))
	require.NoError(t, clinics.UpsertHeader(ctx, &model.Clinic{Base: model.Base{ID: id}, Name: "B", Slug: "b"}))

	got, err := clinics.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
	assert.True(t, got.IsPublished)
	assert.True(t, got.EverPublished())

	_, err = clinics.GetBySlug(ctx, "a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpsertHoursRejectsRepeatedWeekday(t *testing.T) {
	id := uuid.New()
	err := New().Hours().UpsertHours(context.Background(), []model.ClinicHours{
		{ClinicID: id, Weekday: 1},
		{ClinicID: id, Weekday: 1, IsClosed: true},
	})
	assert.Error(t, err)
}
