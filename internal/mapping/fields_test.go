package mapping

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractFieldsWalksGroupsAndColumns(t *testing.T) {
	structure := `{
		"fields": [
			{
				"element": "input_name",
				"attributes": {"name": "names"},
				"fields": {
					"first_name": {"element": "input_text", "attributes": {"name": "first_name"}, "settings": {"label": "First Name"}},
					"last_name": {"element": "input_text", "attributes": {"name": "last_name"}, "settings": {"placeholder": "Surname"}}
				}
			},
			{"element": "input_email", "attributes": {"name": "email"}, "settings": {"admin_field_label": "Email Address"}},
			{
				"element": "container",
				"columns": [
					{"fields": [{"element": "input_text", "attributes": {"name": "company_name"}, "settings": {}}]},
					{"fields": [{"element": "select", "attributes": {"name": "services"}, "settings": {"label": "Services"}}]}
				]
			},
			{"element": "custom_html", "settings": {"label": "ignored"}}
		]
	}`

	got, err := ExtractFields([]byte(structure))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := []FieldOption{
		{Key: "names.first_name", Label: "First Name"},
		{Key: "names.last_name", Label: "Surname"},
		{Key: "email", Label: "Email Address"},
		{Key: "company_name", Label: "Company name"},
		{Key: "services", Label: "Services"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractFieldsRejectsInvalidJSON(t *testing.T) {
	if _, err := ExtractFields([]byte(`{"fields":`)); err == nil {
		t.Fatal("expected decode error")
	}
}
