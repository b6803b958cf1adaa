// Package webhook receives form submissions over HTTP and hands them to the
// sync pipeline, either inline or through the background queue.
package webhook

import (
	"context"
	"time"

	"leadsync_backend/internal/leadsync"
	"leadsync_backend/internal/scheduler"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
)

// Processor runs the sync pipeline inline.
type Processor interface {
	ProcessSubmission(ctx context.Context, ev leadsync.Event) (leadsync.Outcome, error)
}

// Enqueuer hands a submission to the background worker.
type Enqueuer interface {
	EnqueueSubmission(ctx context.Context, payload scheduler.SyncSubmissionPayload) (string, error)
}

// Result is either an inline outcome or a queued task id.
type Result struct {
	Queued  bool
	TaskID  string
	Outcome leadsync.Outcome
}

// Service dispatches submissions. A nil enqueuer means inline processing.
type Service struct {
	processor Processor
	enqueuer  Enqueuer
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a webhook service.
func NewService(processor Processor, enqueuer Enqueuer, log *logger.Logger) *Service {
	return &Service{processor: processor, enqueuer: enqueuer, log: log, now: time.Now}
}

// Dispatch validates the body and routes it.
func (s *Service) Dispatch(ctx context.Context, formID, entryID int64, raw []byte) (Result, error) {
	fields, err := submission.Parse(raw)
	if err != nil {
		return Result{}, apperr.Validation("submission body must be a JSON object").WithOp("webhook.Dispatch")
	}
	received := s.now()

	if s.enqueuer != nil {
		taskID, err := s.enqueuer.EnqueueSubmission(ctx, scheduler.SyncSubmissionPayload{
			FormID:     formID,
			EntryID:    entryID,
			Fields:     raw,
			ReceivedAt: received,
		})
		if err != nil {
			s.log.WithContext(ctx).Error("webhook: enqueue failed", "error", err, "form_id", formID, "entry_id", entryID)
			return Result{}, apperr.Wrap(apperr.KindInternal, "failed to queue submission", err).WithOp("webhook.Dispatch")
		}
		return Result{Queued: true, TaskID: taskID}, nil
	}

	out, err := s.processor.ProcessSubmission(ctx, leadsync.Event{
		FormID:     formID,
		EntryID:    entryID,
		Fields:     fields,
		Raw:        raw,
		ReceivedAt: received,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: out}, nil
}
