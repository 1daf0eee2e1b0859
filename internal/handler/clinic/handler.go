package clinic

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	clinicService "github.com/jwalitptl/clinic-api/internal/service/clinic"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

var errTrailingData = errors.New("unexpected data after import document")

type Handler struct {
	service clinicService.ClinicServicer
}

func NewHandler(service clinicService.ClinicServicer) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes mounts the bulk import. The group must already
// require the admin role.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup, extra ...gin.HandlerFunc) {
	r.POST("/clinics/import", append(extra, h.ImportClinic)...)
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup, extra ...gin.HandlerFunc) {
	r.GET("/clinics/:slug", append(extra, h.GetPublicProfile)...)
}

type importResponse struct {
	OK bool      `json:"ok"`
	ID uuid.UUID `json:"id"`
}

func (h *Handler) ImportClinic(c *gin.Context) {
	req, err := decodeImport(c)
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid import document", err))
		return
	}

	result, err := h.service.Import(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, importResponse{OK: true, ID: result.ClinicID})
}

func (h *Handler) GetPublicProfile(c *gin.Context) {
	profile, err := h.service.GetPublicProfile(c.Request.Context(), c.Param("slug"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, profile)
}

// decodeImport rejects unknown fields and trailing documents.
func decodeImport(c *gin.Context) (*model.ClinicImportRequest, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(c.Request.Body); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(&buf)
	dec.DisallowUnknownFields()

	var req model.ClinicImportRequest
	if err := dec.Decode(&req); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return &req, nil
}
