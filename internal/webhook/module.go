package webhook

import (
	apphttp "leadsync_backend/internal/http"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/httpkit"
	"leadsync_backend/platform/logger"

	"golang.org/x/time/rate"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	keys    *KeySet
	limiter *httpkit.IPRateLimiter
	log     *logger.Logger
}

// NewModule wires the webhook service. enqueuer may be nil for inline processing.
func NewModule(cfg config.WebhookConfig, processor Processor, enqueuer Enqueuer, log *logger.Logger) *Module {
	keys := NewKeySet(cfg.GetWebhookAPIKeys())
	if keys.Len() == 0 {
		log.Warn("webhook: no API keys configured, all submissions will be rejected")
	}

	limit, burst := rate.Limit(cfg.GetWebhookRateLimit()), cfg.GetWebhookRateBurst()
	if limit <= 0 {
		limit = 5
	}
	if burst < 1 {
		burst = 20
	}

	return &Module{
		handler: NewHandler(NewService(processor, enqueuer, log)),
		keys:    keys,
		limiter: httpkit.NewIPRateLimiter(limit, burst, log),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public webhook route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.Use(m.limiter.RateLimit(), RequireAPIKey(m.keys, m.log))
	group.POST("/forms/:formId/entries/:entryId", m.handler.HandleFormSubmission)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
