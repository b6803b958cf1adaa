package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadsync_backend/internal/leadsync"
	"leadsync_backend/internal/scheduler"
	"leadsync_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type stubProcessor struct {
	events []leadsync.Event
}

func (p *stubProcessor) ProcessSubmission(_ context.Context, ev leadsync.Event) (leadsync.Outcome, error) {
	p.events = append(p.events, ev)
	return leadsync.Outcome{Success: true, LeadID: "5-leads"}, nil
}

type stubEnqueuer struct {
	payloads []scheduler.SyncSubmissionPayload
	err      error
}

func (e *stubEnqueuer) EnqueueSubmission(_ context.Context, p scheduler.SyncSubmissionPayload) (string, error) {
	e.payloads = append(e.payloads, p)
	return "task-1", e.err
}

func newRouter(processor Processor, enqueuer Enqueuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(NewService(processor, enqueuer, logger.Discard()))
	group := r.Group("/api/v1/webhook")
	group.Use(RequireAPIKey(NewKeySet([]string{"secret-key", HashKey("other-key")}), logger.Discard()))
	group.POST("/forms/:formId/entries/:entryId", h.HandleFormSubmission)
	return r
}

func post(r http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(HeaderAPIKey, key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsMissingAndWrongKeys(t *testing.T) {
	processor := &stubProcessor{}
	r := newRouter(processor, nil)

	if rec := post(r, "/api/v1/webhook/forms/1/entries/2", "", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	if rec := post(r, "/api/v1/webhook/forms/1/entries/2", "nope", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", rec.Code)
	}
	if len(processor.events) != 0 {
		t.Fatal("unauthenticated requests must not reach the pipeline")
	}
}

func TestWebhookProcessesInline(t *testing.T) {
	processor := &stubProcessor{}
	r := newRouter(processor, nil)

	rec := post(r, "/api/v1/webhook/forms/3/entries/8", "other-key", `{"email": "a@b.test"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out leadsync.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.LeadID != "5-leads" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(processor.events) != 1 || processor.events[0].FormID != 3 || processor.events[0].EntryID != 8 {
		t.Fatalf("unexpected events %+v", processor.events)
	}
}

func TestWebhookQueuesWhenSchedulerIsConfigured(t *testing.T) {
	processor := &stubProcessor{}
	enqueuer := &stubEnqueuer{}
	r := newRouter(processor, enqueuer)

	rec := post(r, "/api/v1/webhook/forms/3/entries/8", "secret-key", `{"email": "a@b.test"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(processor.events) != 0 || len(enqueuer.payloads) != 1 {
		t.Fatal("expected the submission to be queued, not processed inline")
	}
	if string(enqueuer.payloads[0].Fields) != `{"email": "a@b.test"}` {
		t.Fatalf("raw body not preserved: %s", enqueuer.payloads[0].Fields)
	}

	enqueuer.err = errors.New("redis down")
	if rec := post(r, "/api/v1/webhook/forms/3/entries/9", "secret-key", `{}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when queueing fails, got %d", rec.Code)
	}
}

func TestWebhookValidatesPathAndBody(t *testing.T) {
	r := newRouter(&stubProcessor{}, nil)

	if rec := post(r, "/api/v1/webhook/forms/abc/entries/2", "secret-key", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad form id, got %d", rec.Code)
	}
	if rec := post(r, "/api/v1/webhook/forms/1/entries/2", "secret-key", `[1,2]`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-object body, got %d", rec.Code)
	}
}
