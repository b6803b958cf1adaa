package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadsync_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

type testJWTConfig struct{}

func (testJWTConfig) GetJWTAccessSecret() string      { return "test-secret" }
func (testJWTConfig) GetAdminTokenTTL() time.Duration { return time.Hour }

func newAdminRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthRequired(testJWTConfig{}), RequireRole(RoleAdmin), func(c *gin.Context) {
		OK(c, gin.H{"subject": GetIdentity(c).Subject})
	})
	return r
}

func TestAuthRequiredAcceptsIssuedAdminToken(t *testing.T) {
	token, err := IssueAccessToken(testJWTConfig{}, "ops@acme.test", []string{RoleAdmin}, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejectsMissingAndUnprivilegedTokens(t *testing.T) {
	router := newAdminRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, _ := IssueAccessToken(testJWTConfig{}, "viewer@acme.test", []string{"viewer"}, time.Now())
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin role, got %d", rec.Code)
	}
}

func TestAuthRequiredRejectsExpiredToken(t *testing.T) {
	token, _ := IssueAccessToken(testJWTConfig{}, "ops@acme.test", []string{RoleAdmin}, time.Now().Add(-2*time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAdminRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestIPRateLimiterSweepsIdleClients(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(1, 1, nil)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("expected first request to pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("expected burst of one to reject the second request")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("expected other clients to have their own bucket")
	}

	now = now.Add(limiterIdleTTL + time.Minute)
	limiter.Allow("10.0.0.3")
	if len(limiter.clients) != 1 {
		t.Fatalf("expected idle clients to be swept, have %d", len(limiter.clients))
	}
}

func TestHandleErrorMasksInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		HandleError(c, apperr.Internal("db password leaked in message"))
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("internal message leaked: %s", rec.Body.String())
	}
}
