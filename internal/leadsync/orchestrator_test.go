package leadsync

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"

	"github.com/google/go-cmp/cmp"
)

func newOrchestrator(crm *fakeCRM) *Orchestrator {
	log := logger.Discard()
	return NewOrchestrator(crm,
		NewOwnerPolicy(crm, validator.New(), log),
		NewPipelinePolicy(crm, "1-stagesets", log),
		"https://app.nutshell.com/lead/",
		log)
}

func record(t *testing.T, raw string) *submission.Record {
	t.Helper()
	rec, err := submission.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return submission.Sanitize(rec)
}

var contactMapping = mapping.Config{
	ContactFirstName: "names.first_name",
	ContactLastName:  "names.last_name",
	ContactEmail:     "email",
	CustomFields:     map[string]mapping.CustomFieldSource{},
}

func TestProcessCreatesContactThenLinksLead(t *testing.T) {
	crm := &fakeCRM{
		contactID: "8-contacts",
		lead:      nutshell.CreatedLead{ID: "1042-leads", Number: 1042, Raw: json.RawMessage(`{"leads":[]}`)},
	}
	rec := record(t, `{"names": {"first_name": "Jane", "last_name": "Doe"}, "email": "jane@acme.test"}`)

	out := newOrchestrator(crm).Process(context.Background(), Input{FormID: 1, EntryID: 2, Record: rec, Mapping: contactMapping})

	if !out.Success || out.LeadID != "1042-leads" || out.ContactID != "8-contacts" {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.LeadURL != "https://app.nutshell.com/lead/1042" {
		t.Fatalf("unexpected lead url %q", out.LeadURL)
	}

	wantContacts := []contactCall{{Contact: nutshell.ContactPayload{
		Name:   "Jane Doe",
		Emails: []nutshell.Email{{Name: "personal", Value: "jane@acme.test", IsPrimary: true}},
	}}}
	if diff := cmp.Diff(wantContacts, crm.contacts); diff != "" {
		t.Fatalf("contact calls mismatch (-want +got):\n%s", diff)
	}
	if len(crm.leads) != 1 {
		t.Fatalf("expected one create_lead call, got %d", len(crm.leads))
	}
	if diff := cmp.Diff([]string{"8-contacts"}, crm.leads[0].Links.Contacts); diff != "" {
		t.Fatalf("lead contacts mismatch (-want +got):\n%s", diff)
	}
	if crm.leads[0].Description != "Lead from Jane Doe" {
		t.Fatalf("unexpected description %q", crm.leads[0].Description)
	}
	if len(crm.accounts) != 0 {
		t.Fatal("no account mapping means no account call")
	}
	if diff := cmp.Diff([][2]string{{"1042-leads", "1-stagesets"}}, crm.stageSets); diff != "" {
		t.Fatalf("stageset calls mismatch (-want +got):\n%s", diff)
	}
	if out.OwnerSource != OwnerNone {
		t.Fatalf("expected no owner, got %q", out.OwnerSource)
	}
}

func TestProcessFlagsUnknownPhoneCountryCode(t *testing.T) {
	crm := &fakeCRM{contactID: "8-contacts", lead: nutshell.CreatedLead{ID: "7-leads", Number: 7}}
	cfg := contactMapping
	cfg.ContactPhone = "phone"
	rec := record(t, `{"names": {"first_name": "Jane"}, "email": "jane@acme.test", "phone": "+999 212 555 0123"}`)

	out := newOrchestrator(crm).Process(context.Background(), Input{FormID: 1, EntryID: 2, Record: rec, Mapping: cfg})

	if !out.Success || out.PhoneWarning != "unknown country code +999" {
		t.Fatalf("expected successful lead with phone warning, got %+v", out)
	}
	if len(crm.contacts) != 1 || len(crm.contacts[0].Contact.Phones) != 1 || crm.contacts[0].Contact.Phones[0].Value.E164 != "+9992125550123" {
		t.Fatalf("expected the phone to be sent anyway, got %+v", crm.contacts)
	}
	if !strings.Contains(BuildAnnotation(1, 2, out, "").Description, "- Phone Warning: unknown country code +999") {
		t.Fatal("expected the warning in the annotation")
	}

	valid := record(t, `{"names": {"first_name": "Jane"}, "email": "jane@acme.test", "phone": "+44 7400 123456"}`)
	if out := newOrchestrator(&fakeCRM{lead: nutshell.CreatedLead{ID: "8-leads"}}).Process(context.Background(), Input{Record: valid, Mapping: cfg}); out.PhoneWarning != "" {
		t.Fatalf("unexpected warning %q", out.PhoneWarning)
	}
}

func TestProcessExcludedEmailMakesNoCRMWrites(t *testing.T) {
	crm := &fakeCRM{contactID: "8-contacts", lead: nutshell.CreatedLead{ID: "1-leads"}}
	rec := record(t, `{"names": {"first_name": "Spam", "last_name": "Bot"}, "email": "test@spam.example"}`)

	out := newOrchestrator(crm).Process(context.Background(), Input{
		Record:            rec,
		Mapping:           contactMapping,
		ExclusionPatterns: "[invalid\nspam\\.example$",
	})

	if !out.Success || !out.Excluded || out.Message != MsgExcludedByEmail {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if crm.writes() != 0 {
		t.Fatalf("expected no CRM writes, got %d", crm.writes())
	}
}

func TestProcessLeadFailureStopsDownstreamSteps(t *testing.T) {
	crm := &fakeCRM{contactID: "8-contacts", leadErr: errUpstream}
	rec := record(t, `{"names": {"first_name": "Jane"}, "email": "jane@acme.test", "message": "hi"}`)
	cfg := contactMapping
	cfg.Note = mapping.NoteFromField{Field: "message"}

	out := newOrchestrator(crm).Process(context.Background(), Input{Record: rec, Mapping: cfg})

	if out.Success || out.Message != MsgCreateLeadFailed {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.ContactID != "8-contacts" {
		t.Fatal("contact id must survive a lead failure")
	}
	var resp nutshell.Response
	if err := json.Unmarshal(out.RawResponse, &resp); err != nil || resp.Code != 500 {
		t.Fatalf("expected failing response in outcome, got %s (%v)", out.RawResponse, err)
	}
	if len(crm.stageSets) != 0 || len(crm.notes) != 0 {
		t.Fatal("pipeline and note must not run after lead failure")
	}
}

func TestProcessRecoversFromPanics(t *testing.T) {
	crm := &fakeCRM{panicOn: "account"}
	rec := record(t, `{"company": "Acme"}`)

	out := newOrchestrator(crm).Process(context.Background(), Input{Record: rec, Mapping: mapping.Config{AccountName: "company"}})

	if out.Success || !strings.Contains(out.Message, "account backend exploded") {
		t.Fatalf("expected recovered failure, got %+v", out)
	}
}

func TestProcessNoteCarriesAgentAttributionAndPipelineLabel(t *testing.T) {
	crm := &fakeCRM{
		users:     map[string]string{"agent@acme.test": "5-users"},
		stagesets: []nutshell.Stageset{{ID: "3-stagesets", Name: "Residential"}},
		lead:      nutshell.CreatedLead{ID: "77-leads", HTMLURL: "https://app.nutshell.com/lead/77"},
	}
	rec := record(t, `{"agent_email": "agent@acme.test", "agent_name": "Sam", "pipeline": "Residential", "names": {"first_name": "Jane"}}`)
	cfg := mapping.Config{
		Note:     mapping.NoteTemplate{Template: "Pipeline {{pipeline}} for {{names.first_name}}"},
		Stageset: mapping.StagesetFromField{Field: "pipeline"},
	}

	out := newOrchestrator(crm).Process(context.Background(), Input{Record: rec, Mapping: cfg})

	if out.OwnerID != "5-users" || out.OwnerSource != OwnerFromAgentEmail || out.AgentName != "Sam" {
		t.Fatalf("unexpected owner %+v", out)
	}
	if out.StagesetID != "3-stagesets" || out.PipelineLabel != "Residential" {
		t.Fatalf("unexpected pipeline %+v", out)
	}
	want := [][2]string{{"77-leads", "Lead submitted via Sam's contact form.\n\nPipeline Residential for Jane"}}
	if diff := cmp.Diff(want, crm.notes); diff != "" {
		t.Fatalf("notes mismatch (-want +got):\n%s", diff)
	}
	if crm.leads[0].Links.Owner != "5-users" {
		t.Fatalf("lead owner not linked: %+v", crm.leads[0].Links)
	}
}
