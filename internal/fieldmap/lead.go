package fieldmap

import (
	"strconv"
	"strings"
	"time"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/sanitize"
)

// LeadOptions carries what AssembleLead needs beyond the submission and its
// mapping.
type LeadOptions struct {
	// MultiValueFields holds the CRM custom field ids that accept lists.
	MultiValueFields map[string]bool
	Now              time.Time
}

// MultiValueFieldSet indexes a custom field catalog by id for LeadOptions.
func MultiValueFieldSet(fields []nutshell.CustomField) map[string]bool {
	set := make(map[string]bool)
	for _, f := range fields {
		if f.IsMultiValue() {
			set[f.ID.String()] = true
		}
	}
	return set
}

// AssembleLead builds the lead payload: description, custom fields and the
// source link. Contact, account and owner links are added by the caller.
func AssembleLead(rec *submission.Record, cfg mapping.Config, opts LeadOptions) nutshell.LeadPayload {
	lead := nutshell.LeadPayload{Description: Description(rec, cfg, opts.Now)}

	for _, id := range cfg.CustomFieldIDs() {
		if value, ok := customFieldValue(rec, cfg.CustomFields[id], opts.MultiValueFields[id]); ok {
			if lead.CustomFields == nil {
				lead.CustomFields = make(map[string]nutshell.FieldValue)
			}
			lead.CustomFields[id] = value
		}
	}

	if cfg.SourceID != "" {
		lead.Links.Sources = []string{cfg.SourceID}
	}
	return lead
}

// Description resolves the lead description, falling back to the submitter's
// name, then email, then a timestamped generic text.
func Description(rec *submission.Record, cfg mapping.Config, now time.Time) string {
	switch {
	case cfg.Description == mapping.NamesGroup:
		if name, ok := namesGroup(rec, mapping.NamesGroup); ok {
			return name
		}
	case cfg.Description != "":
		if v := Resolve(rec, cfg.Description); !v.IsEmpty() {
			if text := sanitize.Text(v.Flatten()); text != "" {
				return text
			}
		}
	}

	if name, ok := namesGroup(rec, mapping.NamesGroup); ok && name != "" {
		return "Lead from " + name
	}
	if email, ok := rec.Get("email"); ok && !email.IsEmpty() {
		return "Lead from " + sanitize.Text(email.Flatten())
	}
	if now.IsZero() {
		now = time.Now()
	}
	return "Lead from website form #" + strconv.FormatInt(now.Unix(), 10)
}

func customFieldValue(rec *submission.Record, src mapping.CustomFieldSource, multi bool) (nutshell.FieldValue, bool) {
	switch s := src.(type) {
	case mapping.CustomFieldFixed:
		if len(s.Values) == 0 {
			return nutshell.FieldValue{}, false
		}
		return nutshell.ListValue(s.Values...), true
	case mapping.CustomFieldFromField:
		v := Resolve(rec, s.Field)
		if v.IsEmpty() {
			return nutshell.FieldValue{}, false
		}
		text := sanitize.Text(v.Flatten())
		if text == "" {
			return nutshell.FieldValue{}, false
		}
		if multi && strings.Contains(text, ",") {
			parts := strings.Split(text, ",")
			items := make([]string, 0, len(parts))
			for _, p := range parts {
				items = append(items, strings.TrimSpace(p))
			}
			return nutshell.ListValue(items...), true
		}
		return nutshell.TextValue(text), true
	}
	return nutshell.FieldValue{}, false
}
