package nutshell

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"leadsync_backend/platform/phone"
)

// ID is a CRM entity identifier. The API returns ids both as strings
// ("12-contacts") and as bare numbers; ID accepts either.
type ID string

// UnmarshalJSON accepts a string, a number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Email is a contact email entry.
type Email struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	IsPrimary bool   `json:"isPrimary"`
}

// Phone is a contact phone entry.
type Phone struct {
	IsPrimary bool         `json:"isPrimary"`
	Name      string       `json:"name"`
	Value     phone.Number `json:"value"`
}

// ContactPayload is one contact in a create request.
type ContactPayload struct {
	Name   string  `json:"name"`
	Emails []Email `json:"emails,omitempty"`
	Phones []Phone `json:"phones,omitempty"`
}

// PrimaryEmail returns the first email value, or "".
func (p ContactPayload) PrimaryEmail() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0].Value
}

// AccountPayload is one account in a create request.
type AccountPayload struct {
	Name string `json:"name"`
}

// FieldValue is a lead custom field value: a single string, or a list for
// multi-select fields.
type FieldValue struct {
	Text string
	List []string
}

// TextValue is a scalar custom field value.
func TextValue(s string) FieldValue { return FieldValue{Text: s} }

// ListValue is a multi-select custom field value.
func ListValue(items ...string) FieldValue {
	return FieldValue{List: append([]string{}, items...)}
}

// MarshalJSON encodes lists as arrays and everything else as a string.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts a string or an array of strings.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = ListValue(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = TextValue(s)
	return nil
}

// LeadLinks relates a lead to other entities.
type LeadLinks struct {
	Contacts []string `json:"contacts,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
	Sources  []string `json:"sources,omitempty"`
	Owner    string   `json:"owner,omitempty"`
}

// LeadPayload is one lead in a create request.
type LeadPayload struct {
	Description  string                `json:"description"`
	Links        LeadLinks             `json:"links"`
	CustomFields map[string]FieldValue `json:"customFields,omitempty"`
}

// CreatedLead is what the CRM reports back after a lead was created.
type CreatedLead struct {
	ID      string
	Number  int
	HTMLURL string
	Raw     json.RawMessage
}

// User is a CRM user, a potential lead owner.
type User struct {
	ID     ID       `json:"id"`
	Name   string   `json:"name"`
	Emails []string `json:"emails"`
}

type rawUser struct {
	ID     ID                `json:"id"`
	Name   string            `json:"name"`
	Emails []json.RawMessage `json:"emails"`
}

// user flattens the email list, which holds plain strings or {value} objects.
func (r rawUser) user() User {
	u := User{ID: r.ID, Name: r.Name}
	for _, raw := range r.Emails {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			u.Emails = append(u.Emails, s)
			continue
		}
		var obj struct {
			Value string `json:"value"`
			Email string `json:"email"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			if obj.Value != "" {
				u.Emails = append(u.Emails, obj.Value)
			} else if obj.Email != "" {
				u.Emails = append(u.Emails, obj.Email)
			}
		}
	}
	return u
}

// HasEmail reports a case-insensitive, trimmed match on any of the user's emails.
func (u User) HasEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range u.Emails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

// Stageset is a CRM pipeline.
type Stageset struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Source is a CRM lead source.
type Source struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// CustomField is one entry of the lead custom field catalog.
type CustomField struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// MultiValueType is the catalog type of multi-select enum fields.
const MultiValueType = "enum-multiple"

// IsMultiValue reports whether the field accepts a list.
func (f CustomField) IsMultiValue() bool { return f.Type == MultiValueType }

func atoiLoose(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
