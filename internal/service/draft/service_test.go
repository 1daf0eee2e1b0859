package draft

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func newService(store *memory.Store) *Service {
	return NewService(store.Drafts(), validator.New(), zerolog.Nop())
}

func isBadRequest(t *testing.T, err error) {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())
	clinicID := uuid.New()

	d, err := svc.GetOrCreate(ctx, clinicID)
	require.NoError(t, err)
	assert.Equal(t, clinicID, d.ClinicID)
	assert.Equal(t, model.DraftEditing, d.Status)
	assert.True(t, d.BasicInfo.IsNull())

	require.NoError(t, svc.SaveSection(ctx, clinicID, "basic_info", json.RawMessage(`{"name":"A"}`)))
	again, err := svc.GetOrCreate(ctx, clinicID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A"}`, string(again.BasicInfo))
}

func TestGetOrCreatePropagatesReadErrors(t *testing.T) {
	store := memory.New()
	boom := errors.New("timeout")
	store.FailOn("Drafts.Get", boom)

	_, err := newService(store).GetOrCreate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, boom)
}

func TestSaveSectionIsolation(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())
	clinicID := uuid.New()

	require.NoError(t, svc.SaveSection(ctx, clinicID, "basic_info", json.RawMessage(`{"name":"Smile Clinic"}`)))
	require.NoError(t, svc.SaveSection(ctx, clinicID, "hours", json.RawMessage(`[{"day":"Mon","time":"9-17"}]`)))
	require.NoError(t, svc.SaveSection(ctx, clinicID, "hours", json.RawMessage(`[{"day":"Tue","time":"Closed"}]`)))

	d, err := svc.GetOrCreate(ctx, clinicID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Smile Clinic"}`, string(d.BasicInfo))
	assert.JSONEq(t, `[{"day":"Tue","time":"Closed"}]`, string(d.Hours))
	assert.True(t, d.Services.IsNull())
	assert.True(t, d.Pricing.IsNull())
}

func TestSaveSectionRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newService(memory.New())

	isBadRequest(t, svc.SaveSection(ctx, uuid.New(), "billing", json.RawMessage(`{}`)))
	isBadRequest(t, svc.SaveSection(ctx, uuid.New(), "hours", json.RawMessage(`{not json`)))
	isBadRequest(t, svc.SaveSection(ctx, uuid.New(), "hours", nil))
}

func TestSaveWholeKeepsStatusWhenOmitted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newService(store)
	clinicID := uuid.New()

	_, err := svc.GetOrCreate(ctx, clinicID)
	require.NoError(t, err)
	require.NoError(t, store.Drafts().UpdateStatus(ctx, clinicID, model.DraftPending))

	content := &model.DraftContent{}
	content.Location = model.JSONB(`{"city":"Antalya"}`)
	require.NoError(t, svc.SaveWhole(ctx, clinicID, content))

	d, err := svc.GetOrCreate(ctx, clinicID)
	require.NoError(t, err)
	assert.Equal(t, model.DraftPending, d.Status)
	assert.JSONEq(t, `{"city":"Antalya"}`, string(d.Location))

	bad := model.DraftStatus("archived")
	isBadRequest(t, svc.SaveWhole(ctx, clinicID, &model.DraftContent{Status: &bad}))
}

func TestBuildSubmission(t *testing.T) {
	d := &model.Draft{ClinicID: uuid.New()}
	d.BasicInfo = model.JSONB(`{"name":"Istanbul Smile","description":"Full-service dental","category":"Dental"}`)
	d.Location = model.JSONB(`{"country":"Turkey","region":"Marmara","city":"Istanbul","latitude":41.0}`)
	d.Facilities = model.JSONB(`{"premises":["Parking"],"accreditations":[{"name":"JCI"}]}`)
	d.Pricing = model.JSONB(`{"payments":["Visa",{"method":"Cash"},"",42,{"method":""}]}`)
	d.Services = model.JSONB(`[{"name":"Implant","price":450,"currency":"EUR"}]`)
	d.Hours = model.JSONB(`[{"day":"Mon-Fri","time":"09:00 - 18:00"}]`)

	sub, err := newService(memory.New()).BuildSubmission(d)
	require.NoError(t, err)

	assert.Equal(t, "Istanbul Smile", sub.Name)
	assert.Equal(t, "Full-service dental", sub.Summary)
	assert.Equal(t, "Dental", sub.Category)
	assert.Equal(t, "Marmara", sub.Province)
	assert.Equal(t, model.Payments{{Method: "Visa"}, {Method: "Cash"}}, sub.Payments)
	assert.Equal(t, []string{"Parking"}, sub.Amenities.Premises)
	assert.Equal(t, []string{}, sub.Amenities.LanguagesSpoken)
	require.Len(t, sub.Accreditations, 1)
	require.Len(t, sub.Services, 1)
	assert.Equal(t, 450.0, *sub.Services[0].Price)
	assert.Nil(t, sub.Visibility)
}

func TestBuildSubmissionBarePaymentsArray(t *testing.T) {
	d := &model.Draft{}
	d.BasicInfo = model.JSONB(`{"name":"A"}`)
	d.Pricing = model.JSONB(`["Mastercard"]`)

	sub, err := newService(memory.New()).BuildSubmission(d)
	require.NoError(t, err)
	assert.Equal(t, model.Payments{{Method: "Mastercard"}}, sub.Payments)
}

func TestBuildSubmissionRejectsIncompleteDraft(t *testing.T) {
	svc := newService(memory.New())

	_, err := svc.BuildSubmission(&model.Draft{})
	isBadRequest(t, err)

	d := &model.Draft{}
	d.BasicInfo = model.JSONB(`{"name":"A"}`)
	d.Services = model.JSONB(`{"name":"not a list"}`)
	_, err = svc.BuildSubmission(d)
	isBadRequest(t, err)
}
