package settings

import (
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the settings repository, service and handler.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	service := NewService(NewRepository(pool), val, log)
	return &Module{handler: NewHandler(service), service: service}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service exposes form inclusion and exclusion patterns to other modules.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the admin settings routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/settings", m.handler.HandleGet)
	ctx.Admin.PUT("/settings", m.handler.HandlePut)
}

var _ apphttp.Module = (*Module)(nil)
