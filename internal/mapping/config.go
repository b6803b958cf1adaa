// Package mapping holds the per-form field mapping configuration: which
// submission fields feed which CRM attributes.
package mapping

import (
	"encoding/json"
	"sort"
	"strings"
)

// NamesGroup is the sentinel field reference that selects the nested
// first_name/last_name group instead of a single field.
const NamesGroup = "names"

// CustomFieldSource says where one CRM custom field gets its value.
type CustomFieldSource interface{ isCustomFieldSource() }

// CustomFieldFromField resolves the value from a submission field.
type CustomFieldFromField struct{ Field string }

// CustomFieldFixed sends the configured values verbatim.
type CustomFieldFixed struct{ Values []string }

func (CustomFieldFromField) isCustomFieldSource() {}
func (CustomFieldFixed) isCustomFieldSource()     {}

// NoteSource says how the lead note body is produced. A nil NoteSource means no note.
type NoteSource interface{ isNoteSource() }

// NoteFromField copies one submission field.
type NoteFromField struct{ Field string }

// NoteTemplate renders {{field}} placeholders.
type NoteTemplate struct{ Template string }

func (NoteFromField) isNoteSource() {}
func (NoteTemplate) isNoteSource()  {}

// StagesetSource gives the pipeline candidate. A nil StagesetSource means
// the fallback pipeline is used.
type StagesetSource interface{ isStagesetSource() }

// FixedStageset is a configured stageset id or name.
type FixedStageset struct{ ID string }

// StagesetFromField reads the candidate from a submission field.
type StagesetFromField struct{ Field string }

func (FixedStageset) isStagesetSource()     {}
func (StagesetFromField) isStagesetSource() {}

// Config is the mapping for one form. Empty strings mean "not mapped".
type Config struct {
	Description      string
	ContactFirstName string
	ContactLastName  string
	ContactEmail     string
	ContactPhone     string
	AccountName      string
	CustomFields     map[string]CustomFieldSource
	Note             NoteSource
	Stageset         StagesetSource
	SourceID         string
	AgentIDField     string
	DefaultOwner     string
}

// Default is the configuration of a form nobody has mapped yet.
func Default() Config {
	return Config{CustomFields: map[string]CustomFieldSource{}}
}

// CustomFieldIDs returns the configured CRM field ids in stable order.
func (c Config) CustomFieldIDs() []string {
	ids := make([]string, 0, len(c.CustomFields))
	for id := range c.CustomFields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FieldReferences lists every submission field reference the config uses,
// for validation.
func (c Config) FieldReferences() []string {
	refs := []string{c.Description, c.ContactFirstName, c.ContactLastName, c.ContactEmail, c.ContactPhone, c.AccountName, c.AgentIDField}
	for _, id := range c.CustomFieldIDs() {
		if src, ok := c.CustomFields[id].(CustomFieldFromField); ok {
			refs = append(refs, src.Field)
		}
	}
	if src, ok := c.Note.(NoteFromField); ok {
		refs = append(refs, src.Field)
	}
	if src, ok := c.Stageset.(StagesetFromField); ok {
		refs = append(refs, src.Field)
	}
	return refs
}

// Wire is the persisted and admin-facing JSON shape of a Config.
type Wire struct {
	Description      string              `json:"description" yaml:"description" validate:"fieldref,max=200"`
	ContactFirstName string              `json:"contact_first_name" yaml:"contact_first_name" validate:"fieldref,max=200"`
	ContactLastName  string              `json:"contact_last_name" yaml:"contact_last_name" validate:"fieldref,max=200"`
	ContactEmail     string              `json:"contact_email" yaml:"contact_email" validate:"fieldref,max=200"`
	ContactPhone     string              `json:"contact_phone" yaml:"contact_phone" validate:"fieldref,max=200"`
	AccountName      string              `json:"account_name" yaml:"account_name" validate:"fieldref,max=200"`
	CustomFields     map[string]string   `json:"custom_fields,omitempty" yaml:"custom_fields,omitempty" validate:"dive,fieldref"`
	CustomFieldType  map[string]string   `json:"custom_field_type,omitempty" yaml:"custom_field_type,omitempty" validate:"dive,oneof=field fixed"`
	CustomFieldFixed map[string][]string `json:"custom_field_fixed,omitempty" yaml:"custom_field_fixed,omitempty"`
	NoteType         string              `json:"note_type,omitempty" yaml:"note_type,omitempty" validate:"omitempty,oneof=field template"`
	NoteField        string              `json:"note_field,omitempty" yaml:"note_field,omitempty" validate:"fieldref"`
	NoteTemplate     string              `json:"note_template,omitempty" yaml:"note_template,omitempty" validate:"max=10000"`
	StagesetType     string              `json:"stageset_type,omitempty" yaml:"stageset_type,omitempty" validate:"omitempty,oneof=field fixed"`
	StagesetID       string              `json:"stageset_id,omitempty" yaml:"stageset_id,omitempty"`
	StagesetField    string              `json:"stageset_field,omitempty" yaml:"stageset_field,omitempty" validate:"fieldref"`
	SourceID         string              `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	AgentIDField     string              `json:"agent_id_field,omitempty" yaml:"agent_id_field,omitempty" validate:"fieldref"`
	DefaultOwner     string              `json:"default_owner,omitempty" yaml:"default_owner,omitempty"`
}

// ToWire flattens c into the wire shape.
func (c Config) ToWire() Wire {
	w := Wire{
		Description:      c.Description,
		ContactFirstName: c.ContactFirstName,
		ContactLastName:  c.ContactLastName,
		ContactEmail:     c.ContactEmail,
		ContactPhone:     c.ContactPhone,
		AccountName:      c.AccountName,
		SourceID:         c.SourceID,
		AgentIDField:     c.AgentIDField,
		DefaultOwner:     c.DefaultOwner,
	}

	for _, id := range c.CustomFieldIDs() {
		if w.CustomFields == nil {
			w.CustomFields = map[string]string{}
			w.CustomFieldType = map[string]string{}
		}
		switch src := c.CustomFields[id].(type) {
		case CustomFieldFromField:
			w.CustomFields[id] = src.Field
			w.CustomFieldType[id] = "field"
		case CustomFieldFixed:
			if w.CustomFieldFixed == nil {
				w.CustomFieldFixed = map[string][]string{}
			}
			w.CustomFields[id] = ""
			w.CustomFieldType[id] = "fixed"
			w.CustomFieldFixed[id] = append([]string(nil), src.Values...)
		}
	}

	switch src := c.Note.(type) {
	case NoteFromField:
		w.NoteType, w.NoteField = "field", src.Field
	case NoteTemplate:
		w.NoteType, w.NoteTemplate = "template", src.Template
	}

	switch src := c.Stageset.(type) {
	case FixedStageset:
		w.StagesetType, w.StagesetID = "fixed", src.ID
	case StagesetFromField:
		w.StagesetType, w.StagesetField = "field", src.Field
	}

	return w
}

// Config turns the wire shape into the tagged form. Selections that lack
// their value collapse to unset. Note and stageset need an explicit type, so
// a field left over from an earlier save stays inactive.
func (w Wire) Config() Config {
	c := Default()
	c.Description = strings.TrimSpace(w.Description)
	c.ContactFirstName = strings.TrimSpace(w.ContactFirstName)
	c.ContactLastName = strings.TrimSpace(w.ContactLastName)
	c.ContactEmail = strings.TrimSpace(w.ContactEmail)
	c.ContactPhone = strings.TrimSpace(w.ContactPhone)
	c.AccountName = strings.TrimSpace(w.AccountName)
	c.SourceID = strings.TrimSpace(w.SourceID)
	c.AgentIDField = strings.TrimSpace(w.AgentIDField)
	c.DefaultOwner = strings.TrimSpace(w.DefaultOwner)

	ids := map[string]struct{}{}
	for id := range w.CustomFields {
		ids[id] = struct{}{}
	}
	for id := range w.CustomFieldFixed {
		ids[id] = struct{}{}
	}
	for id := range ids {
		if w.CustomFieldType[id] == "fixed" {
			if values, ok := w.CustomFieldFixed[id]; ok {
				c.CustomFields[id] = CustomFieldFixed{Values: append([]string(nil), values...)}
			}
			continue
		}
		if field := strings.TrimSpace(w.CustomFields[id]); field != "" {
			c.CustomFields[id] = CustomFieldFromField{Field: field}
		}
	}

	switch w.NoteType {
	case "field":
		if field := strings.TrimSpace(w.NoteField); field != "" {
			c.Note = NoteFromField{Field: field}
		}
	case "template":
		if strings.TrimSpace(w.NoteTemplate) != "" {
			c.Note = NoteTemplate{Template: w.NoteTemplate}
		}
	}

	switch w.StagesetType {
	case "fixed":
		if id := strings.TrimSpace(w.StagesetID); id != "" {
			c.Stageset = FixedStageset{ID: id}
		}
	case "field":
		if field := strings.TrimSpace(w.StagesetField); field != "" {
			c.Stageset = StagesetFromField{Field: field}
		}
	}

	return c
}

// MarshalJSON encodes the wire shape.
func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToWire())
}

// UnmarshalJSON decodes the wire shape.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = w.Config()
	return nil
}
