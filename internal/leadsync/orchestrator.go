package leadsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"leadsync_backend/internal/fieldmap"
	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

// Outcome messages.
const (
	MsgExcludedByEmail  = "Submission excluded by email rules"
	MsgCreateLeadFailed = "Failed to create lead"
	MsgLeadIDMissing    = "Lead created but ID missing"
)

// Input is everything one run needs. Record must already be sanitized.
type Input struct {
	FormID            int64
	EntryID           int64
	Record            *submission.Record
	Mapping           mapping.Config
	ExclusionPatterns string
}

// Orchestrator runs the submission state machine: exclusion, contact,
// account, lead assembly, owner, lead creation, pipeline and note.
type Orchestrator struct {
	crm         CRMClient
	owners      *OwnerPolicy
	pipelines   *PipelinePolicy
	leadURLBase string
	now         func() time.Time
	log         *logger.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(crm CRMClient, owners *OwnerPolicy, pipelines *PipelinePolicy, leadURLBase string, log *logger.Logger) *Orchestrator {
	if leadURLBase == "" {
		leadURLBase = "https://app.nutshell.com/lead/"
	}
	return &Orchestrator{
		crm:         crm,
		owners:      owners,
		pipelines:   pipelines,
		leadURLBase: leadURLBase,
		now:         time.Now,
		log:         log,
	}
}

// LeadURLBase is the prefix lead numbers are appended to.
func (o *Orchestrator) LeadURLBase() string { return o.leadURLBase }

// Process runs one submission to a terminal outcome. It never panics;
// unexpected faults become a failed Outcome.
func (o *Orchestrator) Process(ctx context.Context, in Input) (out Outcome) {
	log := o.log.WithContext(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error("leadsync: submission processing panicked", "panic", r, "stack", string(debug.Stack()))
			out = Outcome{Success: false, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	rec, cfg := in.Record, in.Mapping
	if rec == nil {
		rec = submission.NewRecord()
	}

	contact := fieldmap.ExtractContact(rec, cfg)
	if email := contact.PrimaryEmail(); email != "" && in.ExclusionPatterns != "" {
		if ParseExclusionRules(in.ExclusionPatterns, log).Matches(email) {
			log.Info("leadsync: submission excluded by email rules")
			return Outcome{Success: true, Excluded: true, Message: MsgExcludedByEmail}
		}
	}

	if len(contact.Phones) > 0 {
		if problem := contact.Phones[0].Value.Problem(); problem != "" {
			log.Warn("leadsync: submitted phone looks wrong", "problem", problem)
			out.PhoneWarning = problem
		}
	}

	if contact.Name != "" && len(contact.Emails) > 0 {
		contactOwner := o.owners.LookupAgent(ctx, rec)
		id, err := o.crm.FindOrCreateContact(ctx, contact, contactOwner)
		if err != nil {
			log.Warn("leadsync: contact not created", "error", err)
		}
		out.ContactID = id
	} else {
		log.Debug("leadsync: contact skipped, name or email missing")
	}

	if account := fieldmap.ExtractAccount(rec, cfg); account.Name != "" {
		id, err := o.crm.FindOrCreateAccount(ctx, account)
		if err != nil {
			log.Warn("leadsync: account not created", "error", err)
		}
		out.AccountID = id
	}

	lead := fieldmap.AssembleLead(rec, cfg, fieldmap.LeadOptions{
		MultiValueFields: o.multiValueFields(ctx, cfg, log),
		Now:              o.now(),
	})
	if out.ContactID != "" {
		lead.Links.Contacts = []string{out.ContactID}
	}
	if out.AccountID != "" {
		lead.Links.Accounts = []string{out.AccountID}
	}

	owner := o.owners.Resolve(ctx, rec, cfg)
	out.OwnerSource = owner.Source
	out.AgentEmail, out.AgentName = owner.AgentEmail, owner.AgentName
	if owner.Assigned() {
		lead.Links.Owner = owner.ID
		out.OwnerID = owner.ID
	}

	created, err := o.crm.CreateLead(ctx, lead)
	out.RawResponse = rawResponse(created, err)
	if err != nil {
		out.Success = false
		out.Message = MsgCreateLeadFailed
		if created.ID == "" && len(created.Raw) > 0 && apperr.Is(err, apperr.KindUpstream) {
			out.Message = MsgLeadIDMissing
		}
		log.Error("leadsync: lead creation failed", "error", err)
		return out
	}

	out.Success = true
	out.LeadID = created.ID
	out.LeadNumber = created.Number
	out.LeadURL = created.HTMLURL
	if out.LeadURL == "" {
		out.LeadURL = nutshell.LeadURL(o.leadURLBase, created.Number)
	}

	pipeline := o.pipelines.Resolve(ctx, rec, cfg)
	out.StagesetID, out.PipelineLabel = pipeline.ID, pipeline.Label
	if err := o.crm.SetLeadStageset(ctx, created.ID, pipeline.ID); err != nil {
		log.Warn("leadsync: stageset assignment failed", "stageset_id", pipeline.ID, "error", err)
	}

	if body := noteBody(rec, cfg, owner); body != "" {
		if err := o.crm.CreateLeadNote(ctx, created.ID, body); err != nil {
			log.Warn("leadsync: lead note failed", "error", err)
		}
	}

	log.Info("leadsync: lead created", "lead_id", out.LeadID, "owner_source", out.OwnerSource, "stageset_id", out.StagesetID)
	return out
}

// multiValueFields loads the custom field catalog only when a mapped field
// could need list splitting.
func (o *Orchestrator) multiValueFields(ctx context.Context, cfg mapping.Config, log *logger.Logger) map[string]bool {
	needed := false
	for _, src := range cfg.CustomFields {
		if _, ok := src.(mapping.CustomFieldFromField); ok {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	fields, err := o.crm.LeadCustomFields(ctx)
	if err != nil {
		log.Warn("leadsync: custom field catalog unavailable", "error", err)
		return nil
	}
	return fieldmap.MultiValueFieldSet(fields)
}

func noteBody(rec *submission.Record, cfg mapping.Config, owner OwnerResolution) string {
	var body string
	switch src := cfg.Note.(type) {
	case mapping.NoteFromField:
		body = fieldmap.ResolveString(rec, src.Field)
	case mapping.NoteTemplate:
		body = fieldmap.Render(src.Template, rec)
	}
	if body == "" || body == "0" {
		return ""
	}
	if agent := firstNonEmpty(owner.AgentName, owner.AgentEmail); agent != "" {
		body = "Lead submitted via " + agent + "'s contact form.\n\n" + body
	}
	return body
}

// rawResponse keeps the CRM reply for the outcome: the failing response on
// error, the decoded body on success.
func rawResponse(created nutshell.CreatedLead, err error) json.RawMessage {
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			if resp, ok := appErr.Details.(nutshell.Response); ok {
				if encoded, mErr := json.Marshal(resp); mErr == nil {
					return encoded
				}
			}
		}
	}
	if len(created.Raw) > 0 {
		return created.Raw
	}
	return nil
}
