package fieldmap

import (
	"testing"
	"time"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/submission"

	"github.com/google/go-cmp/cmp"
)

func mustRecord(t *testing.T, raw string) *submission.Record {
	t.Helper()
	rec, err := submission.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse record: %v", err)
	}
	return rec
}

const janeDoe = `{
	"names": {"first_name": "Jane", "last_name": "Doe"},
	"email": "jane@acme.test",
	"phone": "+44 7911 123456",
	"company": "Acme",
	"services": ["Solar", "Roofing"],
	"budget": "5k, 10k",
	"address": {"meta": {"zip": "90210"}},
	"agent": "owner@acme.test"
}`

func TestResolveReferenceForms(t *testing.T) {
	rec := mustRecord(t, janeDoe)
	cases := []struct {
		ref  string
		want string
	}{
		{"email", "jane@acme.test"},
		{"names[first_name]", "Jane"},
		{"names.last_name", "Doe"},
		{"names.middle_name", ""},
		{"missing.last_name", ""},
		{"last_name", "Doe"},
		{"zip", "90210"},
		{"services", "Solar, Roofing"},
		{"names.first_name.x", ""},
		{"email; drop", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ResolveString(rec, tc.ref); got != tc.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tc.ref, got, tc.want)
		}
	}
}

func TestResolveSearchIsDepthBounded(t *testing.T) {
	rec := mustRecord(t, `{"a": {"b": {"c": {"d": {"deep": "x"}}}}}`)
	if got := ResolveString(rec, "deep"); got != "" {
		t.Fatalf("expected search to stop before depth 4, got %q", got)
	}
	rec = mustRecord(t, `{"a": {"b": {"c": {"deep": "x"}}}}`)
	if got := ResolveString(rec, "deep"); got != "x" {
		t.Fatalf("expected direct child shortcut to find value, got %q", got)
	}
}

func TestRenderSubstitutesAllOccurrencesInOnePass(t *testing.T) {
	rec := mustRecord(t, `{"names": {"first_name": "Jane"}, "services": ["Solar", "<b>Roof</b>"], "trick": "{{names.first_name}}"}`)

	got := Render("Hi {{names.first_name}}, {{names.first_name}} wants {{services}}.\n{{bad token}} {{trick}} {{unknown}}", rec)
	want := "Hi Jane, Jane wants Solar, Roof.\n{{bad token}} {{names.first_name}} "
	if got != want {
		t.Fatalf("Render mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestExtractContactAndAccount(t *testing.T) {
	rec := mustRecord(t, janeDoe)
	cfg := mapping.Config{
		ContactFirstName: "names.first_name",
		ContactLastName:  "names.last_name",
		ContactEmail:     "email",
		ContactPhone:     "phone",
		AccountName:      "company",
	}

	contact := ExtractContact(rec, cfg)
	if contact.Name != "Jane Doe" {
		t.Fatalf("unexpected name %q", contact.Name)
	}
	wantEmails := []nutshell.Email{{Name: "personal", Value: "jane@acme.test", IsPrimary: true}}
	if diff := cmp.Diff(wantEmails, contact.Emails); diff != "" {
		t.Fatalf("emails mismatch (-want +got):\n%s", diff)
	}
	if len(contact.Phones) != 1 || contact.Phones[0].Value.E164 != "+447911123456" || contact.Phones[0].Value.NumberFormatted != "791-112-3456" {
		t.Fatalf("unexpected phones %+v", contact.Phones)
	}

	if got := ExtractAccount(rec, cfg); got.Name != "Acme" {
		t.Fatalf("unexpected account %q", got.Name)
	}
	cfg.AccountName = mapping.NamesGroup
	if got := ExtractAccount(rec, cfg); got.Name != "Jane Doe" {
		t.Fatalf("expected names group account, got %q", got.Name)
	}
}

func TestExtractContactLastNameOnly(t *testing.T) {
	rec := mustRecord(t, janeDoe)
	contact := ExtractContact(rec, mapping.Config{ContactLastName: "names.last_name"})
	if contact.Name != "Doe" || len(contact.Emails) != 0 {
		t.Fatalf("unexpected contact %+v", contact)
	}
}

func TestAssembleLead(t *testing.T) {
	rec := mustRecord(t, janeDoe)
	cfg := mapping.Config{
		Description: mapping.NamesGroup,
		CustomFields: map[string]mapping.CustomFieldSource{
			"10": mapping.CustomFieldFromField{Field: "budget"},
			"11": mapping.CustomFieldFromField{Field: "budget"},
			"12": mapping.CustomFieldFixed{Values: []string{"Web"}},
			"13": mapping.CustomFieldFromField{Field: "nothing"},
		},
		SourceID: "4-sources",
	}

	lead := AssembleLead(rec, cfg, LeadOptions{MultiValueFields: map[string]bool{"11": true}})
	want := nutshell.LeadPayload{
		Description: "Jane Doe",
		Links:       nutshell.LeadLinks{Sources: []string{"4-sources"}},
		CustomFields: map[string]nutshell.FieldValue{
			"10": nutshell.TextValue("5k, 10k"),
			"11": nutshell.ListValue("5k", "10k"),
			"12": nutshell.ListValue("Web"),
		},
	}
	if diff := cmp.Diff(want, lead); diff != "" {
		t.Fatalf("lead mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptionFallbacks(t *testing.T) {
	now := time.Unix(1700000000, 0)

	rec := mustRecord(t, janeDoe)
	if got := Description(rec, mapping.Config{Description: "missing"}, now); got != "Lead from Jane Doe" {
		t.Fatalf("unexpected name fallback %q", got)
	}
	rec = mustRecord(t, `{"email": "a@b.test"}`)
	if got := Description(rec, mapping.Default(), now); got != "Lead from a@b.test" {
		t.Fatalf("unexpected email fallback %q", got)
	}
	rec = mustRecord(t, `{"message": "hello"}`)
	if got := Description(rec, mapping.Default(), now); got != "Lead from website form #1700000000" {
		t.Fatalf("unexpected generic fallback %q", got)
	}
}
