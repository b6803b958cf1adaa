package annotations

import (
	"leadsync_backend/internal/events"
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the annotations bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the annotations repository, service and handler.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	service := NewService(NewRepository(pool), log)
	return &Module{handler: NewHandler(service), service: service}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "annotations"
}

// RegisterHandlers subscribes the module to submission events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SubmissionAnnotated{}.EventName(), m.service)
	bus.Subscribe(events.SubmissionArchived{}.EventName(), m.service)
}

// RegisterRoutes mounts the admin annotation route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.GET("/forms/:formId/entries/:entryId/annotations", m.handler.HandleList)
}

var _ apphttp.Module = (*Module)(nil)
