package mapping

import (
	"io"
	"net/http"

	"leadsync_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"
	errInvalidFormID  = "invalid form ID"
	maxStructureBytes = 2 << 20
)

// Handler serves the admin mapping routes.
type Handler struct {
	service *Service
}

// NewHandler creates a new mapping handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet returns a form's mapping.
// GET /api/v1/admin/forms/:formId/mapping
func (h *Handler) HandleGet(c *gin.Context) {
	formID, ok := parseFormID(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), formID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandlePut replaces a form's mapping.
// PUT /api/v1/admin/forms/:formId/mapping
func (h *Handler) HandlePut(c *gin.Context) {
	formID, ok := parseFormID(c)
	if !ok {
		return
	}
	var req PutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	view, err := h.service.Put(c.Request.Context(), formID, req, httpkit.GetIdentity(c).Subject)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandleExtractFields turns a form structure document into selectable field references.
// POST /api/v1/admin/forms/fields
func (h *Handler) HandleExtractFields(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxStructureBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	fields, err := ExtractFields(body)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if fields == nil {
		fields = []FieldOption{}
	}
	httpkit.OK(c, gin.H{"fields": fields})
}

func parseFormID(c *gin.Context) (int64, bool) {
	return httpkit.PositiveIDParam(c, "formId", errInvalidFormID)
}
