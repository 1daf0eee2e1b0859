package draft

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	draftService "github.com/jwalitptl/clinic-api/internal/service/draft"
	"github.com/jwalitptl/clinic-api/internal/service/moderation"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Submitter interface {
	Submit(ctx context.Context, clinicID uuid.UUID) (*moderation.SubmitResult, error)
}

// Handler serves the owner's own draft. The clinic comes from the token.
type Handler struct {
	service   draftService.DraftServicer
	submitter Submitter
}

func NewHandler(service draftService.DraftServicer, submitter Submitter) *Handler {
	return &Handler{service: service, submitter: submitter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	drafts := r.Group("/drafts/me")
	{
		drafts.GET("", h.GetDraft)
		drafts.PUT("", h.SaveDraft)
		drafts.PUT("/sections/:section", h.SaveSection)
		drafts.POST("/submit", h.Submit)
	}
}

type submitResponse struct {
	OK           bool      `json:"ok"`
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	WasPublished bool      `json:"was_published"`
}

func (h *Handler) GetDraft(c *gin.Context) {
	clinicID, ok := h.clinic(c)
	if !ok {
		return
	}

	d, err := h.service.GetOrCreate(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) SaveSection(c *gin.Context) {
	clinicID, ok := h.clinic(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("failed to read request body", err))
		return
	}

	if err := h.service.SaveSection(c.Request.Context(), clinicID, c.Param("section"), json.RawMessage(body)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{OK: true})
}

func (h *Handler) SaveDraft(c *gin.Context) {
	clinicID, ok := h.clinic(c)
	if !ok {
		return
	}

	var content model.DraftContent
	if err := c.ShouldBindJSON(&content); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid draft body", err))
		return
	}

	if err := h.service.SaveWhole(c.Request.Context(), clinicID, &content); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, httputil.Response{OK: true})
}

func (h *Handler) Submit(c *gin.Context) {
	clinicID, ok := h.clinic(c)
	if !ok {
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, submitResponse{
		OK:           true,
		ID:           result.ClinicID,
		Slug:         result.Slug,
		WasPublished: result.WasPublished,
	})
}

func (h *Handler) clinic(c *gin.Context) (uuid.UUID, bool) {
	clinicID, ok := middleware.ClinicID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(errors.New("clinic identity missing from token")))
		return uuid.Nil, false
	}
	return clinicID, true
}
