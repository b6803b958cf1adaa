package httpkit

import (
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"leadsync_backend/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin grants access to mapping, settings and CRM lookup routes.
const RoleAdmin = "admin"

const (
	ctxIdentityKey  = "identity"
	tokenTypeAccess = "access"
)

var errInvalidToken = errors.New("invalid token")

// Identity is the authenticated operator behind an admin request.
type Identity struct {
	Subject string
	Roles   []string
}

func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// IsAuthenticated reports whether AuthRequired ran and accepted a token.
func (i Identity) IsAuthenticated() bool {
	return i.Subject != ""
}

// GetIdentity returns the operator stored by AuthRequired, or the zero value.
func GetIdentity(c *gin.Context) Identity {
	if v, ok := c.Get(ctxIdentityKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}

type accessClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
	Type  string   `json:"type"`
}

// IssueAccessToken signs an operator token accepted by AuthRequired.
func IssueAccessToken(cfg config.TokenIssuerConfig, subject string, roles []string, now time.Time) (string, error) {
	ttl := cfg.GetAdminTokenTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
		Type:  tokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.GetJWTAccessSecret()))
}

// AuthRequired accepts HS256 bearer tokens minted by IssueAccessToken.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "missing token"})
			return
		}
		identity, err := parseAccessToken(raw, cfg.GetJWTAccessSecret())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: errInvalidToken.Error()})
			return
		}
		c.Set(ctxIdentityKey, identity)
		c.Next()
	}
}

// RequireRole rejects authenticated operators lacking role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetIdentity(c).HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	raw, found := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	return raw, found && raw != ""
}

func parseAccessToken(raw, secret string) (Identity, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Identity{}, errInvalidToken
	}
	if claims.Type != tokenTypeAccess || strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, errInvalidToken
	}
	return Identity{Subject: claims.Subject, Roles: claims.Roles}, nil
}
