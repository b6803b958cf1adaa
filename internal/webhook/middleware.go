package webhook

import (
	"net/http"
	"strings"

	"leadsync_backend/platform/httpkit"
	"leadsync_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// HeaderAPIKey carries the webhook key.
const HeaderAPIKey = "X-Webhook-API-Key"

// RequireAPIKey admits requests whose X-Webhook-API-Key is in keys. Rejected
// attempts are logged with the client IP, never with the presented key.
func RequireAPIKey(keys *KeySet, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		switch {
		case presented == "":
			httpkit.Error(c, http.StatusUnauthorized, "missing API key", nil)
		case !keys.Valid(presented):
			log.WithContext(c.Request.Context()).Warn("webhook: invalid API key", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			httpkit.Error(c, http.StatusUnauthorized, "invalid API key", nil)
		default:
			c.Next()
		}
	}
}
