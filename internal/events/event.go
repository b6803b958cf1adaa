// Package events holds the submission events modules exchange over the
// platform bus.
package events

import (
	"leadsync_backend/platform/events"
	"leadsync_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// NewInMemoryBus creates the process-wide bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Submission Domain Events
// =============================================================================

// SubmissionAnnotated is published when the sync pipeline has an
// operator-visible note for a form entry.
type SubmissionAnnotated struct {
	BaseEvent
	AnnotationID uuid.UUID `json:"annotationId"`
	FormID       int64     `json:"formId"`
	EntryID      int64     `json:"entryId"`
	Component    string    `json:"component"`
	Status       string    `json:"status"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
}

func (e SubmissionAnnotated) EventName() string { return "submission.annotated" }

// SubmissionArchived is published once the raw submission body is stored.
type SubmissionArchived struct {
	BaseEvent
	FormID  int64  `json:"formId"`
	EntryID int64  `json:"entryId"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
}

func (e SubmissionArchived) EventName() string { return "submission.archived" }
