package fieldmap

import (
	"strings"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/phone"
	"leadsync_backend/platform/sanitize"
)

// ExtractContact builds the contact payload. First and last name resolve
// independently; email and phone entries are added only when they resolve.
func ExtractContact(rec *submission.Record, cfg mapping.Config) nutshell.ContactPayload {
	var contact nutshell.ContactPayload

	var first, last string
	if cfg.ContactFirstName != "" {
		first = sanitize.Text(ResolveString(rec, cfg.ContactFirstName))
	}
	if cfg.ContactLastName != "" {
		last = sanitize.Text(ResolveString(rec, cfg.ContactLastName))
	}
	contact.Name = strings.TrimSpace(first + " " + last)

	if cfg.ContactEmail != "" {
		if email := sanitize.Email(ResolveString(rec, cfg.ContactEmail)); email != "" {
			contact.Emails = []nutshell.Email{{Name: "personal", Value: email, IsPrimary: true}}
		}
	}

	if cfg.ContactPhone != "" {
		if raw := ResolveString(rec, cfg.ContactPhone); raw != "" && raw != "0" {
			number := phone.Format(raw)
			if number.Number != "" {
				contact.Phones = []nutshell.Phone{{IsPrimary: true, Name: "phone", Value: number}}
			}
		}
	}

	return contact
}

// ExtractAccount builds the account payload. The mapping value "names"
// selects the nested first/last name group.
func ExtractAccount(rec *submission.Record, cfg mapping.Config) nutshell.AccountPayload {
	if cfg.AccountName == "" {
		return nutshell.AccountPayload{}
	}
	if cfg.AccountName == mapping.NamesGroup {
		if name, ok := namesGroup(rec, mapping.NamesGroup); ok {
			return nutshell.AccountPayload{Name: name}
		}
	}
	v := Resolve(rec, cfg.AccountName)
	if v.IsEmpty() {
		return nutshell.AccountPayload{}
	}
	return nutshell.AccountPayload{Name: sanitize.Text(v.Flatten())}
}
