package annotations

import (
	"leadsync_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the admin annotation routes.
type Handler struct {
	service *Service
}

// NewHandler creates a new annotations handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleList returns the annotations of one form entry.
// GET /api/v1/admin/forms/:formId/entries/:entryId/annotations
func (h *Handler) HandleList(c *gin.Context) {
	formID, ok := httpkit.PositiveIDParam(c, "formId", "invalid form ID")
	if !ok {
		return
	}
	entryID, ok := httpkit.PositiveIDParam(c, "entryId", "invalid entry ID")
	if !ok {
		return
	}
	items, err := h.service.ListForEntry(c.Request.Context(), formID, entryID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}
