package submission

import (
	"encoding/json"
	"testing"
)

func TestParsePreservesOrderAndCoercesScalars(t *testing.T) {
	r, err := Parse([]byte(`{"zeta":"z","names":{"first_name":"Jane","last_name":"Doe"},"age":42,"opt_in":true,"skip":null,"services":["a","b"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	keys := r.Keys()
	want := []string{"zeta", "names", "age", "opt_in", "skip", "services"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected key order %v, got %v", want, keys)
		}
	}

	if v, _ := r.Get("age"); v.Str() != "42" {
		t.Fatalf("expected number kept as text, got %q", v.Str())
	}
	if v, _ := r.Get("opt_in"); v.Str() != "1" {
		t.Fatalf("expected true coerced to 1, got %q", v.Str())
	}
	if v, _ := r.Get("skip"); v.Str() != "" || !v.IsEmpty() {
		t.Fatalf("expected null coerced to empty, got %q", v.Str())
	}
	if v, _ := r.Get("services"); v.Flatten() != "a, b" {
		t.Fatalf("unexpected list flatten %q", v.Flatten())
	}
	names, _ := r.Get("names")
	if first, _ := names.Record().Get("first_name"); first.Str() != "Jane" {
		t.Fatalf("expected nested first name, got %q", first.Str())
	}
}

func TestRecordMarshalKeepsOrder(t *testing.T) {
	r := NewRecord().
		Set("b", Scalar("2")).
		Set("a", Strings("x", "y"))

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"b":"2","a":["x","y"]}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestParseRejectsNonObject(t *testing.T) {
	if _, err := Parse([]byte(`["not","an","object"]`)); err == nil {
		t.Fatal("expected error for array body")
	}
}

func TestSanitizeAppliesKeyRules(t *testing.T) {
	r := NewRecord().
		Set("email", Scalar("  Jane@Acme.test ")).
		Set("website_url", Scalar("acme.test/about")).
		Set("message", Scalar("<b>Hi</b>   there")).
		Set("names", Map(NewRecord().Set("first_name", Scalar(" Jane <i>"))))

	clean := Sanitize(r)

	if v, _ := clean.Get("email"); v.Str() != "Jane@Acme.test" {
		t.Fatalf("unexpected email %q", v.Str())
	}
	if v, _ := clean.Get("website_url"); v.Str() != "http://acme.test/about" {
		t.Fatalf("unexpected url %q", v.Str())
	}
	if v, _ := clean.Get("message"); v.Str() != "Hi there" {
		t.Fatalf("unexpected text %q", v.Str())
	}
	names, _ := clean.Get("names")
	if first, _ := names.Record().Get("first_name"); first.Str() != "Jane" {
		t.Fatalf("unexpected nested value %q", first.Str())
	}
	if v, _ := r.Get("message"); v.Str() != "<b>Hi</b>   there" {
		t.Fatal("sanitize must not mutate its input")
	}
}
