package moderation

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	moderationService "github.com/jwalitptl/clinic-api/internal/service/moderation"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

// Handler serves the admin moderation queue.
type Handler struct {
	service moderationService.ModerationServicer
}

func NewHandler(service moderationService.ModerationServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinics := r.Group("/clinics")
	{
		clinics.GET("", h.ListClinics)
		clinics.POST("/:id/approve", h.Approve)
		clinics.POST("/:id/reject", h.Reject)
	}
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) ListClinics(c *gin.Context) {
	var filter model.ClinicFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid moderation_status", err))
		return
	}

	clinics, err := h.service.List(c.Request.Context(), &filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if clinics == nil {
		clinics = []*model.Clinic{}
	}
	httputil.RespondWithSuccess(c, clinics)
}

func (h *Handler) Approve(c *gin.Context) {
	clinicID, ok := parseID(c)
	if !ok {
		return
	}

	clinic, err := h.service.Approve(c.Request.Context(), clinicID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) Reject(c *gin.Context) {
	clinicID, ok := parseID(c)
	if !ok {
		return
	}

	// The body is optional.
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid reject body", err))
		return
	}

	clinic, err := h.service.Reject(c.Request.Context(), clinicID, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid clinic ID", err))
		return uuid.Nil, false
	}
	return id, true
}
