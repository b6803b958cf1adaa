package nutshell

import (
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/platform/cache"
	"leadsync_backend/platform/logger"
)

// Module is the CRM bounded context module implementing http.Module.
type Module struct {
	client  *Client
	handler *Handler
}

// NewModule creates the client and its admin lookup routes.
func NewModule(opts Options, loader *cache.Loader, log *logger.Logger) *Module {
	client := New(opts, loader, log)
	return &Module{client: client, handler: NewHandler(client)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "nutshell"
}

// Client exposes the CRM client for the sync pipeline.
func (m *Module) Client() *Client {
	return m.client
}

// RegisterRoutes mounts admin CRM lookup routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	crm := ctx.Admin.Group("/crm")
	crm.GET("/users", m.handler.HandleUsers)
	crm.GET("/stagesets", m.handler.HandleStagesets)
	crm.GET("/sources", m.handler.HandleSources)
	crm.GET("/custom-fields", m.handler.HandleCustomFields)
	crm.POST("/test-connection", m.handler.HandleTestConnection)
}

var _ apphttp.Module = (*Module)(nil)
