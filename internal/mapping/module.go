package mapping

import (
	"time"

	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/platform/cache"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the mapping bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	store   *CachedStore
	repo    *Repository
}

// NewModule wires the repository, cache and admin handler.
func NewModule(pool *pgxpool.Pool, loader *cache.Loader, ttl time.Duration, inclusion FormInclusion, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	store := NewCachedStore(repo, loader, ttl)
	service := NewService(store, inclusion, val, log)
	return &Module{
		handler: NewHandler(service),
		service: service,
		store:   store,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "mapping"
}

// Store exposes the cached mapping store for the sync pipeline.
func (m *Module) Store() *CachedStore {
	return m.store
}

// Service exposes validated mapping writes for the operator CLI.
func (m *Module) Service() *Service {
	return m.service
}

// Repository exposes bulk access for the operator CLI.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts admin mapping routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	forms := ctx.Admin.Group("/forms")
	forms.GET("/:formId/mapping", m.handler.HandleGet)
	forms.PUT("/:formId/mapping", m.handler.HandlePut)
	forms.POST("/fields", m.handler.HandleExtractFields)
}

var _ apphttp.Module = (*Module)(nil)
