// Package annotations stores the operator-visible notes the sync pipeline
// attaches to form entries and serves them to the admin API.
package annotations

import (
	"context"
	"fmt"

	"leadsync_backend/internal/events"
	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	archiveComponent = "Archive"
	defaultListLimit = 50
)

// Store is the persistence the service needs.
type Store interface {
	Insert(ctx context.Context, a Annotation) error
	ListForEntry(ctx context.Context, formID, entryID int64, limit int) ([]Annotation, error)
}

// Service turns submission events into stored annotations.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates an annotations service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Handle implements events.Handler.
func (s *Service) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.SubmissionAnnotated:
		return s.handleAnnotated(ctx, e)
	case events.SubmissionArchived:
		return s.handleArchived(ctx, e)
	}
	return nil
}

func (s *Service) handleAnnotated(ctx context.Context, e events.SubmissionAnnotated) error {
	id := e.AnnotationID
	if id == uuid.Nil {
		id = uuid.New()
	}
	err := s.store.Insert(ctx, Annotation{
		ID:          id,
		FormID:      e.FormID,
		EntryID:     e.EntryID,
		Component:   e.Component,
		Status:      e.Status,
		Title:       e.Title,
		Description: e.Description,
		CreatedAt:   e.OccurredAt(),
	})
	if err != nil {
		s.log.DatabaseError("annotations.Insert", err)
	}
	return err
}

func (s *Service) handleArchived(ctx context.Context, e events.SubmissionArchived) error {
	err := s.store.Insert(ctx, Annotation{
		ID:          uuid.New(),
		FormID:      e.FormID,
		EntryID:     e.EntryID,
		Component:   archiveComponent,
		Status:      "success",
		Title:       "Submission Archived",
		Description: fmt.Sprintf("- Stored as %s/%s", e.Bucket, e.Key),
		CreatedAt:   e.OccurredAt(),
	})
	if err != nil {
		s.log.DatabaseError("annotations.Insert", err)
	}
	return err
}

// ListForEntry returns an entry's annotations, newest first.
func (s *Service) ListForEntry(ctx context.Context, formID, entryID int64) ([]Annotation, error) {
	if formID <= 0 || entryID <= 0 {
		return nil, apperr.Validation("form id and entry id must be positive").WithOp("annotations.ListForEntry")
	}
	items, err := s.store.ListForEntry(ctx, formID, entryID, defaultListLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load annotations", err).WithOp("annotations.ListForEntry")
	}
	if items == nil {
		items = []Annotation{}
	}
	return items, nil
}
