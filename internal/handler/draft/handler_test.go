package draft

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	draftService "github.com/jwalitptl/clinic-api/internal/service/draft"
	"github.com/jwalitptl/clinic-api/internal/service/moderation"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type stubSubmitter struct {
	result *moderation.SubmitResult
}

func (s stubSubmitter) Submit(context.Context, uuid.UUID) (*moderation.SubmitResult, error) {
	return s.result, nil
}

func newEngine(t *testing.T, clinicID uuid.UUID, submitter Submitter) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	svc := draftService.NewService(store.Drafts(), validator.New(), zerolog.Nop())

	r := gin.New()
	group := r.Group("")
	if clinicID != uuid.Nil {
		group.Use(func(c *gin.Context) {
			c.Set(middleware.ContextClinicID, clinicID)
			c.Next()
		})
	}
	NewHandler(svc, submitter).RegisterRoutes(group)
	return r, store
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestSectionsAreSavedIndependently(t *testing.T) {
	clinicID := uuid.New()
	r, store := newEngine(t, clinicID, stubSubmitter{})

	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/drafts/me/sections/hours", `[{"day":"Monday","time":"9-5"}]`).Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPut, "/drafts/me/sections/gallery", `[{"url":"https://a.example.com/1.jpg"}]`).Code)

	d, err := store.Drafts().Get(context.Background(), clinicID)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"day":"Monday","time":"9-5"}]`, string(d.Hours))
	assert.JSONEq(t, `[{"url":"https://a.example.com/1.jpg"}]`, string(d.Gallery))

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/drafts/me/sections/hours", `{not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPut, "/drafts/me", `{"status":"archived"}`).Code)
}

func TestSubmitResponseShape(t *testing.T) {
	clinicID := uuid.New()
	r, _ := newEngine(t, clinicID, stubSubmitter{result: &moderation.SubmitResult{
		ClinicID:     clinicID,
		Slug:         "harbor-clinic",
		WasPublished: true,
	}})

	w := do(r, http.MethodPost, "/drafts/me/submit", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, clinicID.String(), body["id"])
	assert.Equal(t, true, body["was_published"])
}

func TestMissingClinicIdentity(t *testing.T) {
	r, _ := newEngine(t, uuid.Nil, stubSubmitter{})
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/drafts/me", "").Code)
}
