package settings

import (
	"net/http"

	"leadsync_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Handler serves the admin settings routes.
type Handler struct {
	service *Service
}

// NewHandler creates a new settings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleGet returns the sync settings.
// GET /api/v1/admin/settings
func (h *Handler) HandleGet(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}

// HandlePut replaces the sync settings.
// PUT /api/v1/admin/settings
func (h *Handler) HandlePut(c *gin.Context) {
	var req PutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	view, err := h.service.Put(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, view)
}
