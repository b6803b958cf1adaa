package webhook

import (
	"io"
	"net/http"

	"leadsync_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest  = "invalid request body"
	errInvalidFormID   = "invalid form ID"
	errInvalidEntryID  = "invalid entry ID"
	maxSubmissionBytes = 1 << 20
)

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// QueuedResponse is returned when the submission went to the background queue.
type QueuedResponse struct {
	Queued bool   `json:"queued"`
	TaskID string `json:"task_id"`
}

// HandleFormSubmission syncs one form entry to the CRM.
// POST /api/v1/webhook/forms/:formId/entries/:entryId
// Authenticated via X-Webhook-API-Key header (set by middleware).
func (h *Handler) HandleFormSubmission(c *gin.Context) {
	formID, ok := httpkit.PositiveIDParam(c, "formId", errInvalidFormID)
	if !ok {
		return
	}
	entryID, ok := httpkit.PositiveIDParam(c, "entryId", errInvalidEntryID)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSubmissionBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if len(raw) > maxSubmissionBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "submission too large", nil)
		return
	}

	result, err := h.service.Dispatch(c.Request.Context(), formID, entryID, raw)
	if httpkit.HandleError(c, err) {
		return
	}
	if result.Queued {
		httpkit.Accepted(c, QueuedResponse{Queued: true, TaskID: result.TaskID})
		return
	}
	httpkit.OK(c, result.Outcome)
}
