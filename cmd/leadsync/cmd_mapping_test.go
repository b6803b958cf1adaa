package main

import (
	"bytes"
	"strings"
	"testing"

	"leadsync_backend/internal/mapping"

	"github.com/google/go-cmp/cmp"
)

func TestMappingFileRoundTrip(t *testing.T) {
	included := false
	doc := mappingFile{Forms: []formEntry{{
		FormID:       12,
		IncludeInCRM: &included,
		Mapping: mapping.Wire{
			ContactFirstName: "names.first_name",
			ContactEmail:     "email",
			CustomFields:     map[string]string{"7": "services"},
			CustomFieldType:  map[string]string{"7": "field"},
			NoteType:         "template",
			NoteTemplate:     "Hi {{names.first_name}}\nThanks",
		},
	}}}

	var buf bytes.Buffer
	if err := encodeMappingFile(&buf, doc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := decodeMappingFile(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMappingFileRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown field": "forms:\n  - form_id: 1\n    colour: red\n",
		"zero form id":  "forms:\n  - form_id: 0\n",
		"duplicate":     "forms:\n  - form_id: 3\n  - form_id: 3\n",
	}
	for name, body := range cases {
		if _, err := decodeMappingFile(strings.NewReader(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
