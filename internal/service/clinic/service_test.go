package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/internal/service/identifier"
	"github.com/jwalitptl/clinic-api/internal/service/publication"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func newService(store *memory.Store) *Service {
	resolver := identifier.NewResolver(store.Categories(), time.Hour, time.Hour, zerolog.Nop(), nil)
	committer := publication.NewCommitter(publication.Repositories{
		Clinics:    store.Clinics(),
		Categories: store.Categories(),
		Catalog:    store.Catalog(),
		Media:      store.Media(),
		Hours:      store.Hours(),
	}, resolver, zerolog.Nop(), nil)
	return NewService(store.Clinics(), store.Hours(), committer, validator.New(), zerolog.Nop())
}

func importRequest(status model.ImportStatus) *model.ClinicImportRequest {
	return &model.ClinicImportRequest{
		Name:     "Bodrum Aesthetics",
		Summary:  "Cosmetic surgery by the sea",
		Category: "Cosmetic Surgery",
		Status:   status,
		Country:  "Turkey",
		Region:   "Aegean",
		City:     "Bodrum",
		Address:  "Neyzen Tevfik Cd. 5",
		Hours: []model.HoursEntry{
			{Day: "Mon-Fri", Time: "9:00 am - 6:00 pm"},
			{Day: "Sunday", Time: "Closed"},
		},
	}
}

func TestImportAndReadProfile(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	result, err := svc.Import(ctx, importRequest(model.ImportPublished))
	require.NoError(t, err)

	profile, err := svc.GetPublicProfile(ctx, result.Slug)
	require.NoError(t, err)
	assert.Equal(t, result.ClinicID, profile.ID)
	assert.Equal(t, "Aegean", profile.Province)
	assert.Equal(t, []string{}, profile.Amenities.Premises)
	assert.Len(t, profile.Hours, 6)
}

func TestImportValidationWritesNothing(t *testing.T) {
	store := memory.New()
	req := importRequest(model.ImportStatus("Draft"))
	req.Address = ""

	_, err := newService(store).Import(context.Background(), req)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)

	var verrs validator.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Equal(t, 0, store.ClinicCount())
}

func TestImportDataLayerFailureIsBadRequest(t *testing.T) {
	store := memory.New()
	boom := errors.New("relation clinic_hours does not exist")
	store.FailOn("Hours.UpsertHours", boom)

	_, err := newService(store).Import(context.Background(), importRequest(model.ImportPending))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Contains(t, appErr.Error(), boom.Error())
}

func TestHiddenAndPendingClinicsAreNotPublic(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)

	for _, status := range []model.ImportStatus{model.ImportHidden, model.ImportPending} {
		req := importRequest(status)
		req.Name = "Clinic " + string(status)
		result, err := svc.Import(ctx, req)
		require.NoError(t, err)

		_, err = svc.GetPublicProfile(ctx, result.Slug)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	}
}
