// Package leadsync turns one form submission into CRM records: contact,
// account, lead, pipeline and note, and reports what happened.
package leadsync

import (
	"context"
	"encoding/json"
	"time"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/submission"
)

// Event is one accepted form submission.
type Event struct {
	FormID     int64
	EntryID    int64
	Fields     *submission.Record
	Raw        []byte
	ReceivedAt time.Time
}

// MappingStore provides per-form mappings, defaulted when a form has none.
type MappingStore interface {
	Get(ctx context.Context, formID int64) (mapping.Config, error)
	Put(ctx context.Context, formID int64, cfg mapping.Config) error
}

// UserLookup finds CRM users by email.
type UserLookup interface {
	FindUserByEmail(ctx context.Context, email string) (string, bool, error)
}

// StagesetLookup finds pipelines by id or name.
type StagesetLookup interface {
	FindStagesetByID(ctx context.Context, id string) (nutshell.Stageset, bool, error)
	FindStagesetByName(ctx context.Context, name string) (nutshell.Stageset, bool, error)
}

// CRMClient is the CRM surface the sync pipeline drives.
type CRMClient interface {
	UserLookup
	StagesetLookup
	FindOrCreateContact(ctx context.Context, contact nutshell.ContactPayload, ownerID string) (string, error)
	FindOrCreateAccount(ctx context.Context, account nutshell.AccountPayload) (string, error)
	CreateLead(ctx context.Context, lead nutshell.LeadPayload) (nutshell.CreatedLead, error)
	SetLeadStageset(ctx context.Context, leadID, stagesetID string) error
	CreateLeadNote(ctx context.Context, leadID, body string) error
	LeadCustomFields(ctx context.Context) ([]nutshell.CustomField, error)
}

// AnnotationSink records operator-visible notes against a form entry.
// Implementations swallow their own failures.
type AnnotationSink interface {
	Annotate(ctx context.Context, a Annotation)
}

// Outcome is the result of processing one submission.
type Outcome struct {
	Success       bool            `json:"success"`
	Excluded      bool            `json:"excluded,omitempty"`
	Message       string          `json:"message,omitempty"`
	LeadID        string          `json:"lead_id,omitempty"`
	LeadNumber    int             `json:"lead_number,omitempty"`
	LeadURL       string          `json:"lead_url,omitempty"`
	ContactID     string          `json:"contact_id,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
	OwnerID       string          `json:"owner_id,omitempty"`
	OwnerSource   OwnerSource     `json:"owner_source,omitempty"`
	AgentEmail    string          `json:"agent_email,omitempty"`
	AgentName     string          `json:"agent_name,omitempty"`
	StagesetID    string          `json:"stageset_id,omitempty"`
	PipelineLabel string          `json:"pipeline_label,omitempty"`
	PhoneWarning  string          `json:"phone_warning,omitempty"`
	RawResponse   json.RawMessage `json:"raw_response,omitempty"`
}
