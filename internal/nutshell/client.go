// Package nutshell is the REST client for the Nutshell CRM.
package nutshell

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/cache"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://app.nutshell.com/rest/"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// Response is the outcome of one API call. Success is false for input
// validation failures, transport errors, non-2xx statuses and undecodable
// bodies; Message then carries the reason or the raw error body.
type Response struct {
	Success bool            `json:"success"`
	Code    int             `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Err converts an unsuccessful response into an upstream error.
func (r Response) Err(op string) error {
	if r.Success {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = "request failed"
	}
	if r.Code == 0 && (msg == errInvalidEndpoint || msg == errInvalidMethod) {
		return apperr.Validation(msg).WithOp(op)
	}
	return apperr.Upstream(fmt.Sprintf("nutshell: %s", msg)).WithOp(op).WithDetails(r)
}

const (
	errInvalidEndpoint = "Invalid endpoint path"
	errInvalidMethod   = "Invalid HTTP method"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Username   string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64
	RateBurst  int
	UsersTTL   time.Duration
	HTTPClient *http.Client
}

// OptionsFromConfig reads client options from the application config.
func OptionsFromConfig(cfg config.NutshellConfig, usersTTL time.Duration) Options {
	return Options{
		BaseURL:   cfg.GetNutshellBaseURL(),
		Username:  cfg.GetNutshellUsername(),
		APIKey:    cfg.GetNutshellAPIKey(),
		Timeout:   cfg.GetNutshellTimeout(),
		RateLimit: cfg.GetNutshellRateLimit(),
		RateBurst: cfg.GetNutshellRateBurst(),
		UsersTTL:  usersTTL,
	}
}

// Client talks to the Nutshell REST API. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	apiKey     string
	usersTTL   time.Duration
	limiter    *rate.Limiter
	cache      *cache.Loader
	log        *logger.Logger
}

// New creates a client. loader backs the users, stagesets and custom field
// caches.
func New(opts Options, loader *cache.Loader, log *logger.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}
	usersTTL := opts.UsersTTL
	if usersTTL <= 0 {
		usersTTL = 24 * time.Hour
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		username:   opts.Username,
		apiKey:     opts.APIKey,
		usersTTL:   usersTTL,
		limiter:    rate.NewLimiter(limit, burst),
		cache:      loader,
		log:        log,
	}
}

// Do performs one API call. body is JSON-encoded and sent only for POST and
// PATCH. The endpoint is relative to the base URL.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}) Response {
	method = strings.ToUpper(strings.TrimSpace(method))
	if strings.Contains(endpoint, "../") || strings.Contains(endpoint, "./") {
		c.log.Warn("nutshell: rejected endpoint", "endpoint", endpoint)
		return Response{Message: errInvalidEndpoint}
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete:
	default:
		c.log.Warn("nutshell: rejected method", "method", method)
		return Response{Message: errInvalidMethod}
	}

	var reader io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPatch) {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Response{Message: "encode request: " + err.Error()}
		}
		if len(encoded) > 0 && string(encoded) != "null" && string(encoded) != "{}" && string(encoded) != "[]" {
			reader = bytes.NewReader(encoded)
			c.log.Debug("nutshell: request", "method", method, "endpoint", endpoint, "body", redactJSON(encoded))
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Response{Message: "rate limiter: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+strings.TrimLeft(endpoint, "/"), reader)
	if err != nil {
		return Response{Message: "create request: " + err.Error()}
	}
	req.SetBasicAuth(c.username, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		c.log.CRMRequest(method, endpoint, 0, latency, err)
		return Response{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.log.CRMRequest(method, endpoint, resp.StatusCode, latency, err)
		return Response{Code: resp.StatusCode, Message: "read response: " + err.Error()}
	}
	c.log.CRMRequest(method, endpoint, resp.StatusCode, latency, nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("nutshell: error response", "endpoint", endpoint, "status", resp.StatusCode, "body", redactJSON(raw))
		return Response{Code: resp.StatusCode, Message: string(raw)}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Response{Success: true, Code: resp.StatusCode}
	}
	if !json.Valid(raw) {
		return Response{Code: resp.StatusCode, Message: "decode response: invalid JSON"}
	}
	c.log.Debug("nutshell: response", "endpoint", endpoint, "status", resp.StatusCode, "body", redactJSON(raw))
	return Response{Success: true, Code: resp.StatusCode, Data: raw}
}

// TestConnection checks credentials with a users listing.
func (c *Client) TestConnection(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, "users", nil).Err("nutshell.TestConnection")
}

func decodeData(resp Response, op string, v interface{}) error {
	if err := resp.Err(op); err != nil {
		return err
	}
	if len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, v); err != nil {
		return apperr.Wrap(apperr.KindUpstream, "nutshell: unexpected response shape", err).WithOp(op)
	}
	return nil
}
