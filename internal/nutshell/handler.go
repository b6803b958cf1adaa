package nutshell

import (
	"context"
	"net/http"

	"leadsync_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Directory is the read surface the admin lookups need.
type Directory interface {
	Users(ctx context.Context) ([]User, error)
	RefreshUsers(ctx context.Context) ([]User, error)
	Stagesets(ctx context.Context) ([]Stageset, error)
	RefreshStagesets(ctx context.Context) ([]Stageset, error)
	Sources(ctx context.Context) ([]Source, error)
	LeadCustomFields(ctx context.Context) ([]CustomField, error)
	RefreshLeadCustomFields(ctx context.Context) ([]CustomField, error)
	TestConnection(ctx context.Context) error
}

// Handler serves the admin CRM lookup routes used to build mapping screens.
type Handler struct {
	dir Directory
}

// NewHandler creates a new CRM lookup handler.
func NewHandler(dir Directory) *Handler {
	return &Handler{dir: dir}
}

func wantsRefresh(c *gin.Context) bool {
	return c.Query("refresh") == "1" || c.Query("refresh") == "true"
}

// HandleUsers lists potential lead owners.
// GET /api/v1/admin/crm/users
func (h *Handler) HandleUsers(c *gin.Context) {
	load := h.dir.Users
	if wantsRefresh(c) {
		load = h.dir.RefreshUsers
	}
	users, err := load(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	if users == nil {
		users = []User{}
	}
	httpkit.OK(c, gin.H{"users": users})
}

// HandleStagesets lists pipelines.
// GET /api/v1/admin/crm/stagesets
func (h *Handler) HandleStagesets(c *gin.Context) {
	load := h.dir.Stagesets
	if wantsRefresh(c) {
		load = h.dir.RefreshStagesets
	}
	sets, err := load(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	if sets == nil {
		sets = []Stageset{}
	}
	httpkit.OK(c, gin.H{"stagesets": sets})
}

// HandleSources lists lead sources.
// GET /api/v1/admin/crm/sources
func (h *Handler) HandleSources(c *gin.Context) {
	sources, err := h.dir.Sources(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	if sources == nil {
		sources = []Source{}
	}
	httpkit.OK(c, gin.H{"sources": sources})
}

// HandleCustomFields lists the lead custom field catalog.
// GET /api/v1/admin/crm/custom-fields
func (h *Handler) HandleCustomFields(c *gin.Context) {
	load := h.dir.LeadCustomFields
	if wantsRefresh(c) {
		load = h.dir.RefreshLeadCustomFields
	}
	fields, err := load(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	if fields == nil {
		fields = []CustomField{}
	}
	httpkit.OK(c, gin.H{"customFields": fields})
}

// HandleTestConnection verifies the configured credentials.
// POST /api/v1/admin/crm/test-connection
func (h *Handler) HandleTestConnection(c *gin.Context) {
	if err := h.dir.TestConnection(c.Request.Context()); err != nil {
		httpkit.JSON(c, http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}
	httpkit.OK(c, gin.H{"success": true, "message": "Connection successful"})
}
