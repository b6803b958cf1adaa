package scheduler

import (
	"context"
	"fmt"

	"leadsync_backend/internal/leadsync"
	"leadsync_backend/internal/submission"
	"leadsync_backend/platform/config"
	"leadsync_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// SubmissionProcessor runs the sync pipeline for one submission.
type SubmissionProcessor interface {
	ProcessSubmission(ctx context.Context, ev leadsync.Event) (leadsync.Outcome, error)
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor SubmissionProcessor
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, processor SubmissionProcessor, log *logger.Logger) (*Worker, error) {
	opt, err := redisConnOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetSchedulerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			Queue: 1,
		},
	})

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		processor: processor,
		log:       log,
	}
	w.mux.HandleFunc(TaskSyncSubmission, w.handleSyncSubmission)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSyncSubmission(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncSubmissionPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	fields, err := submission.Parse(payload.Fields)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	out, err := w.processor.ProcessSubmission(ctx, leadsync.Event{
		FormID:     payload.FormID,
		EntryID:    payload.EntryID,
		Fields:     fields,
		Raw:        payload.Fields,
		ReceivedAt: payload.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	w.log.Info("scheduler: submission processed",
		"form_id", payload.FormID,
		"entry_id", payload.EntryID,
		"success", out.Success,
		"excluded", out.Excluded,
		"lead_id", out.LeadID)
	return nil
}
