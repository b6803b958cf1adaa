// Package http is the contract between the router and the modules that
// mount routes on it.
package http

import (
	"context"

	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context with HTTP routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount its routes on.
type RouterContext struct {
	// V1 is /api/v1 without auth. Webhook routes bring their own.
	V1 *gin.RouterGroup
	// Admin is /api/v1/admin behind an admin-role bearer token.
	Admin *gin.RouterGroup
}

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs /api/health. *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the router needs, assembled by cmd/api.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker // optional
	Modules []Module
}
