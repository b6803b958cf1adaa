package leadsync

import (
	"context"

	"leadsync_backend/internal/fieldmap"
	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/sanitize"
	"leadsync_backend/platform/validator"
)

// Hidden fields a form can carry to attribute a submission to an agent.
const (
	agentEmailKey = "agent_email"
	agentNameKey  = "agent_name"
)

// OwnerSource names the stage that produced a lead owner.
type OwnerSource string

const (
	OwnerFromAgentEmail      OwnerSource = "agent_email"
	OwnerFromAgentFieldEmail OwnerSource = "agent_field_email"
	OwnerFromAgentFieldID    OwnerSource = "agent_field_id"
	OwnerFromDefault         OwnerSource = "default"
	OwnerNone                OwnerSource = "none"
)

// OwnerResolution is the chosen owner and the agent details seen on the way.
type OwnerResolution struct {
	ID         string
	Source     OwnerSource
	AgentEmail string
	AgentName  string
}

// Assigned reports whether an owner was found.
func (r OwnerResolution) Assigned() bool { return r.ID != "" }

// OwnerPolicy picks the lead owner: the agent_email hidden field, then the
// mapped agent field (email lookup or raw user id), then the form's default
// owner. Lookup misses fall through to the next stage.
type OwnerPolicy struct {
	users UserLookup
	val   *validator.Validator
	log   *logger.Logger
}

// NewOwnerPolicy creates an OwnerPolicy.
func NewOwnerPolicy(users UserLookup, val *validator.Validator, log *logger.Logger) *OwnerPolicy {
	return &OwnerPolicy{users: users, val: val, log: log}
}

// AgentEmail returns the sanitized agent_email hidden field, if any.
func AgentEmail(rec *submission.Record) string {
	v, ok := rec.Get(agentEmailKey)
	if !ok || v.IsEmpty() {
		return ""
	}
	return sanitize.Email(v.Flatten())
}

// LookupAgent resolves only the agent_email hidden field. Contacts are owned
// by this user when it exists.
func (p *OwnerPolicy) LookupAgent(ctx context.Context, rec *submission.Record) string {
	email := AgentEmail(rec)
	if email == "" {
		return ""
	}
	id, _ := p.lookup(ctx, email)
	return id
}

// Resolve runs the owner stages in order.
func (p *OwnerPolicy) Resolve(ctx context.Context, rec *submission.Record, cfg mapping.Config) OwnerResolution {
	var res OwnerResolution

	if v, ok := rec.Get(agentEmailKey); ok && !v.IsEmpty() {
		res.AgentEmail = sanitize.Email(v.Flatten())
		if name, ok := rec.Get(agentNameKey); ok && !name.IsEmpty() {
			res.AgentName = sanitize.Text(name.Flatten())
		}
		if id, ok := p.lookup(ctx, res.AgentEmail); ok {
			res.ID, res.Source = id, OwnerFromAgentEmail
			return res
		}
		p.log.Info("leadsync: no user for agent email", "agent_email", res.AgentEmail)
	}

	if cfg.AgentIDField != "" {
		if value := fieldmap.ResolveString(rec, cfg.AgentIDField); value != "" {
			if p.val.IsEmail(value) {
				email := sanitize.Email(value)
				res.AgentEmail = email
				if id, ok := p.lookup(ctx, email); ok {
					res.ID, res.Source = id, OwnerFromAgentFieldEmail
					return res
				}
				p.log.Info("leadsync: no user for agent field email", "field", cfg.AgentIDField)
			} else {
				res.ID, res.Source = value, OwnerFromAgentFieldID
				return res
			}
		}
	}

	if cfg.DefaultOwner != "" {
		res.ID, res.Source = cfg.DefaultOwner, OwnerFromDefault
		return res
	}

	res.Source = OwnerNone
	return res
}

func (p *OwnerPolicy) lookup(ctx context.Context, email string) (string, bool) {
	if email == "" {
		return "", false
	}
	id, ok, err := p.users.FindUserByEmail(ctx, email)
	if err != nil {
		p.log.Warn("leadsync: user lookup failed", "error", err)
		return "", false
	}
	return id, ok
}
