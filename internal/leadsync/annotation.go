package leadsync

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"leadsync_backend/internal/events"
	"leadsync_backend/platform/logger"

	"github.com/google/uuid"
)

// Annotation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

const annotationComponent = "Nutshell"

var leadIDDigits = regexp.MustCompile(`^(\d+)`)

// Annotation is an operator-visible note on a form entry.
type Annotation struct {
	FormID      int64
	EntryID     int64
	Component   string
	Status      string
	Title       string
	Description string
}

// BuildAnnotation renders an outcome as a bulleted entry note. leadURLBase
// is prefixed to the lead number to link the lead.
func BuildAnnotation(formID, entryID int64, out Outcome, leadURLBase string) Annotation {
	a := Annotation{
		FormID:    formID,
		EntryID:   entryID,
		Component: annotationComponent,
		Title:     "Lead Created",
		Status:    StatusError,
	}
	if out.Success {
		a.Status = StatusSuccess
	}
	if out.Excluded {
		a.Status = StatusSkipped
		a.Title = "Lead Skipped"
		a.Description = "- " + out.Message
		return a
	}

	lines := []string{"Nutshell Lead Created"}
	if out.LeadID != "" {
		lines = append(lines, "Lead ID: "+out.LeadID)
	}
	switch {
	case out.LeadNumber > 0:
		lines = append(lines,
			"Lead Number: "+strconv.Itoa(out.LeadNumber),
			"Lead URL: "+leadURLBase+strconv.Itoa(out.LeadNumber))
	case out.LeadID != "":
		if m := leadIDDigits.FindStringSubmatch(out.LeadID); m != nil {
			lines = append(lines, "Lead URL: "+leadURLBase+m[1])
		}
	}
	if out.ContactID != "" {
		lines = append(lines, "Contact ID: "+out.ContactID)
	}
	if out.AccountID != "" {
		lines = append(lines, "Account ID: "+out.AccountID)
	}
	if out.OwnerID != "" {
		lines = append(lines, "Owner ID: "+out.OwnerID)
	}
	switch {
	case out.PipelineLabel != "":
		lines = append(lines, "Pipeline: "+out.PipelineLabel)
	case out.StagesetID != "":
		lines = append(lines, "Pipeline: "+out.StagesetID)
	}
	if agent := firstNonEmpty(out.AgentName, out.AgentEmail); agent != "" {
		lines = append(lines, "Submitted via agent: "+agent)
	}
	if out.PhoneWarning != "" {
		lines = append(lines, "Phone Warning: "+out.PhoneWarning)
	}
	if !out.Success && out.Message != "" {
		lines = append(lines, "Error: "+out.Message)
	}

	a.Description = "- " + strings.Join(lines, "\n- ")
	return a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// BusAnnotationSink publishes annotations on the event bus for the
// annotations module to persist.
type BusAnnotationSink struct {
	bus events.Bus
	log *logger.Logger
}

// NewBusAnnotationSink creates a sink over bus.
func NewBusAnnotationSink(bus events.Bus, log *logger.Logger) *BusAnnotationSink {
	return &BusAnnotationSink{bus: bus, log: log}
}

// Annotate publishes without waiting for subscribers.
func (s *BusAnnotationSink) Annotate(ctx context.Context, a Annotation) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("leadsync: annotation publish panicked", "panic", r)
		}
	}()
	s.bus.Publish(ctx, events.SubmissionAnnotated{
		BaseEvent:    events.NewBaseEvent(),
		AnnotationID: uuid.New(),
		FormID:       a.FormID,
		EntryID:      a.EntryID,
		Component:    a.Component,
		Status:       a.Status,
		Title:        a.Title,
		Description:  a.Description,
	})
}
