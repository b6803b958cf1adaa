package leadsync

import (
	"context"
	"strings"

	"leadsync_backend/internal/fieldmap"
	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/logger"
)

// PipelineSource names how a stageset was chosen.
type PipelineSource string

const (
	PipelineByID     PipelineSource = "id"
	PipelineByName   PipelineSource = "name"
	PipelineFallback PipelineSource = "fallback"
)

// PipelineResolution is the stageset a new lead goes into.
type PipelineResolution struct {
	ID        string
	Label     string
	Source    PipelineSource
	Candidate string
}

// PipelinePolicy resolves the stageset candidate as an id, then as a unique
// name, then falls back to a fixed stageset.
type PipelinePolicy struct {
	sets       StagesetLookup
	fallbackID string
	log        *logger.Logger
}

// NewPipelinePolicy creates a PipelinePolicy.
func NewPipelinePolicy(sets StagesetLookup, fallbackID string, log *logger.Logger) *PipelinePolicy {
	if fallbackID == "" {
		fallbackID = "1-stagesets"
	}
	return &PipelinePolicy{sets: sets, fallbackID: fallbackID, log: log}
}

// Candidate returns the configured stageset value for this submission.
func Candidate(rec *submission.Record, cfg mapping.Config) string {
	switch src := cfg.Stageset.(type) {
	case mapping.FixedStageset:
		return strings.TrimSpace(src.ID)
	case mapping.StagesetFromField:
		return strings.TrimSpace(fieldmap.ResolveString(rec, src.Field))
	}
	return ""
}

// Resolve picks the stageset for a new lead.
func (p *PipelinePolicy) Resolve(ctx context.Context, rec *submission.Record, cfg mapping.Config) PipelineResolution {
	candidate := Candidate(rec, cfg)
	res := PipelineResolution{Candidate: candidate}

	if candidate != "" {
		set, ok, err := p.sets.FindStagesetByID(ctx, candidate)
		if err != nil {
			p.log.Warn("leadsync: stageset lookup by id failed", "error", err)
		}
		if ok {
			res.ID, res.Label, res.Source = set.ID.String(), set.Name, PipelineByID
			return res
		}

		set, ok, err = p.sets.FindStagesetByName(ctx, candidate)
		if err != nil {
			p.log.Warn("leadsync: stageset lookup by name failed", "error", err)
		}
		if ok {
			res.ID, res.Label, res.Source = set.ID.String(), set.Name, PipelineByName
			return res
		}
		p.log.Info("leadsync: stageset candidate unresolved, using fallback", "candidate", candidate)
	}

	res.ID, res.Source = p.fallbackID, PipelineFallback
	return res
}
