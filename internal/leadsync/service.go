package leadsync

import (
	"context"
	"fmt"
	"time"

	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

// MsgFormExcluded is the outcome message for forms switched off for sync.
const MsgFormExcluded = "Form is excluded from CRM sync"

// SyncSettings exposes the global sync switches.
type SyncSettings interface {
	IsFormIncluded(ctx context.Context, formID int64) (bool, error)
	ExclusionPatterns(ctx context.Context) (string, error)
}

// Archiver stores the raw submission body. It is optional.
type Archiver interface {
	Archive(ctx context.Context, formID, entryID int64, raw []byte) error
}

// Service is the entry point every submission source calls.
type Service struct {
	mappings MappingStore
	settings SyncSettings
	orch     *Orchestrator
	sink     AnnotationSink
	archive  Archiver
	log      *logger.Logger
}

// NewService creates a Service. archive may be nil.
func NewService(mappings MappingStore, settings SyncSettings, orch *Orchestrator, sink AnnotationSink, archive Archiver, log *logger.Logger) *Service {
	return &Service{
		mappings: mappings,
		settings: settings,
		orch:     orch,
		sink:     sink,
		archive:  archive,
		log:      log,
	}
}

// ProcessSubmission syncs one submission. The error is reserved for
// invalid events and unavailable local state; CRM failures are reported
// in the Outcome.
func (s *Service) ProcessSubmission(ctx context.Context, ev Event) (Outcome, error) {
	if ev.FormID <= 0 || ev.EntryID <= 0 {
		return Outcome{}, apperr.Validation("form id and entry id must be positive").WithOp("leadsync.ProcessSubmission")
	}
	if ev.Fields == nil {
		return Outcome{}, apperr.Validation("submission has no fields").WithOp("leadsync.ProcessSubmission")
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	ctx = context.WithValue(ctx, logger.SubmissionKey, fmt.Sprintf("%d:%d", ev.FormID, ev.EntryID))
	log := s.log.WithContext(ctx)

	included, err := s.settings.IsFormIncluded(ctx, ev.FormID)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.KindInternal, "load sync settings", err).WithOp("leadsync.ProcessSubmission")
	}
	if !included {
		log.Info("leadsync: form excluded, skipping")
		return Outcome{Success: true, Excluded: true, Message: MsgFormExcluded}, nil
	}

	if s.archive != nil && len(ev.Raw) > 0 {
		if err := s.archive.Archive(ctx, ev.FormID, ev.EntryID, ev.Raw); err != nil {
			log.Warn("leadsync: archive failed", "error", err)
		}
	}

	cfg, err := s.mappings.Get(ctx, ev.FormID)
	if err != nil {
		return Outcome{}, apperr.Wrap(apperr.KindInternal, "load mapping", err).WithOp("leadsync.ProcessSubmission")
	}
	patterns, err := s.settings.ExclusionPatterns(ctx)
	if err != nil {
		log.Warn("leadsync: exclusion patterns unavailable", "error", err)
	}

	out := s.orch.Process(ctx, Input{
		FormID:            ev.FormID,
		EntryID:           ev.EntryID,
		Record:            submission.Sanitize(ev.Fields),
		Mapping:           cfg,
		ExclusionPatterns: patterns,
	})

	s.sink.Annotate(ctx, BuildAnnotation(ev.FormID, ev.EntryID, out, s.orch.LeadURLBase()))
	return out, nil
}
