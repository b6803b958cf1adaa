package leadsync

import (
	"context"
	"errors"
	"testing"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

type recordingArchive struct {
	calls int
	err   error
}

func (a *recordingArchive) Archive(context.Context, int64, int64, []byte) error {
	a.calls++
	return a.err
}

func newService(crm *fakeCRM, settings *fakeSettings, sink *recordingSink, archive Archiver) *Service {
	mappings := &fakeMappings{configs: map[int64]mapping.Config{7: contactMapping}}
	return NewService(mappings, settings, newOrchestrator(crm), sink, archive, logger.Discard())
}

func TestProcessSubmissionSkipsExcludedForms(t *testing.T) {
	crm := &fakeCRM{}
	sink := &recordingSink{}
	archive := &recordingArchive{}
	svc := newService(crm, &fakeSettings{excluded: map[int64]bool{7: true}}, sink, archive)

	out, err := svc.ProcessSubmission(context.Background(), Event{FormID: 7, EntryID: 1, Fields: record(t, `{"email": "a@b.test"}`), Raw: []byte(`{}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success || !out.Excluded || out.Message != MsgFormExcluded {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if crm.writes() != 0 || len(sink.annotations) != 0 || archive.calls != 0 {
		t.Fatal("excluded form must not touch the CRM, annotations or archive")
	}
}

func TestProcessSubmissionAnnotatesOutcome(t *testing.T) {
	crm := &fakeCRM{contactID: "8-contacts", lead: nutshell.CreatedLead{ID: "15-leads", Number: 15}}
	sink := &recordingSink{}
	archive := &recordingArchive{err: errors.New("bucket offline")}
	svc := newService(crm, &fakeSettings{}, sink, archive)

	out, err := svc.ProcessSubmission(context.Background(), Event{
		FormID:  7,
		EntryID: 3,
		Fields:  record(t, `{"names": {"first_name": "Jane", "last_name": "Doe"}, "email": "jane@acme.test"}`),
		Raw:     []byte(`{"email":"jane@acme.test"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success || out.LeadID != "15-leads" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if archive.calls != 1 {
		t.Fatalf("expected the raw body to be archived once, got %d", archive.calls)
	}
	if len(sink.annotations) != 1 {
		t.Fatalf("expected one annotation, got %d", len(sink.annotations))
	}
	a := sink.annotations[0]
	if a.FormID != 7 || a.EntryID != 3 || a.Status != StatusSuccess {
		t.Fatalf("unexpected annotation %+v", a)
	}
}

func TestProcessSubmissionValidatesEvent(t *testing.T) {
	svc := newService(&fakeCRM{}, &fakeSettings{}, &recordingSink{}, nil)

	_, err := svc.ProcessSubmission(context.Background(), Event{FormID: 0, EntryID: 1, Fields: record(t, `{}`)})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.ProcessSubmission(context.Background(), Event{FormID: 1, EntryID: 1})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing fields, got %v", err)
	}
}

func TestProcessSubmissionSettingsFailureIsInternal(t *testing.T) {
	svc := newService(&fakeCRM{}, &fakeSettings{err: errors.New("db down")}, &recordingSink{}, nil)

	_, err := svc.ProcessSubmission(context.Background(), Event{FormID: 7, EntryID: 1, Fields: record(t, `{}`)})
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
