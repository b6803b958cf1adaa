package mapping

import (
	"context"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/sanitize"
	"leadsync_backend/platform/validator"
)

// Store is the read/write surface the service needs.
type Store interface {
	Get(ctx context.Context, formID int64) (Config, error)
	Put(ctx context.Context, formID int64, cfg Config) error
}

// FormInclusion toggles whether a form's submissions are synced at all.
type FormInclusion interface {
	IsFormIncluded(ctx context.Context, formID int64) (bool, error)
	SetFormIncluded(ctx context.Context, formID int64, included bool) error
}

// View is what the admin API returns for one form.
type View struct {
	FormID       int64 `json:"form_id"`
	Mapping      Wire  `json:"mapping"`
	IncludeInCRM bool  `json:"include_in_crm"`
}

// PutRequest replaces a form's mapping. IncludeInCRM is optional.
type PutRequest struct {
	Mapping      Wire  `json:"mapping" validate:"required"`
	IncludeInCRM *bool `json:"include_in_crm"`
}

// Service implements the admin mapping operations.
type Service struct {
	store     Store
	inclusion FormInclusion
	val       *validator.Validator
	log       *logger.Logger
}

// NewService creates a mapping service.
func NewService(store Store, inclusion FormInclusion, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{store: store, inclusion: inclusion, val: val, log: log}
}

// Get returns the form's mapping, defaulted when the form was never mapped.
func (s *Service) Get(ctx context.Context, formID int64) (View, error) {
	if formID <= 0 {
		return View{}, apperr.Validation("form id must be positive")
	}
	cfg, err := s.store.Get(ctx, formID)
	if err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, "load mapping", err).WithOp("mapping.Get")
	}
	included, err := s.inclusion.IsFormIncluded(ctx, formID)
	if err != nil {
		return View{}, apperr.Wrap(apperr.KindInternal, "load settings", err).WithOp("mapping.Get")
	}
	return View{FormID: formID, Mapping: cfg.ToWire(), IncludeInCRM: included}, nil
}

// Put validates, cleans and stores the mapping wholesale.
func (s *Service) Put(ctx context.Context, formID int64, req PutRequest, actor string) (View, error) {
	if formID <= 0 {
		return View{}, apperr.Validation("form id must be positive")
	}
	if err := s.val.Struct(req.Mapping); err != nil {
		return View{}, apperr.Validation("invalid mapping").WithDetails(err.Error())
	}

	cfg := Clean(req.Mapping).Config()

	// The inclusion flag goes first and is restored if the mapping write
	// fails, so a failed save leaves both as they were.
	restore, toggled, err := s.applyInclusion(ctx, formID, req.IncludeInCRM)
	if err != nil {
		return View{}, err
	}
	if err := s.store.Put(ctx, formID, cfg); err != nil {
		if toggled {
			if rErr := s.inclusion.SetFormIncluded(ctx, formID, restore); rErr != nil {
				s.log.Error("mapping: inclusion flag not restored", "form_id", formID, "error", rErr)
			}
		}
		return View{}, apperr.Wrap(apperr.KindInternal, "save mapping", err).WithOp("mapping.Put")
	}

	s.log.Info("mapping: saved", "form_id", formID, "actor", actor, "custom_fields", len(cfg.CustomFields))
	return s.Get(ctx, formID)
}

// applyInclusion sets the form's inclusion flag when want is given and
// differs, returning the previous value and whether it changed.
func (s *Service) applyInclusion(ctx context.Context, formID int64, want *bool) (bool, bool, error) {
	if want == nil {
		return false, false, nil
	}
	previous, err := s.inclusion.IsFormIncluded(ctx, formID)
	if err != nil {
		return false, false, apperr.Wrap(apperr.KindInternal, "load settings", err).WithOp("mapping.Put")
	}
	if previous == *want {
		return previous, false, nil
	}
	if err := s.inclusion.SetFormIncluded(ctx, formID, *want); err != nil {
		return false, false, apperr.Wrap(apperr.KindInternal, "save settings", err).WithOp("mapping.Put")
	}
	return previous, true, nil
}

// Clean strips markup from every value. Note templates keep their line breaks.
func Clean(w Wire) Wire {
	out := Wire{
		Description:      sanitize.Text(w.Description),
		ContactFirstName: sanitize.Text(w.ContactFirstName),
		ContactLastName:  sanitize.Text(w.ContactLastName),
		ContactEmail:     sanitize.Text(w.ContactEmail),
		ContactPhone:     sanitize.Text(w.ContactPhone),
		AccountName:      sanitize.Text(w.AccountName),
		NoteType:         sanitize.Text(w.NoteType),
		NoteField:        sanitize.Text(w.NoteField),
		NoteTemplate:     sanitize.TextArea(w.NoteTemplate),
		StagesetType:     sanitize.Text(w.StagesetType),
		StagesetID:       sanitize.Text(w.StagesetID),
		StagesetField:    sanitize.Text(w.StagesetField),
		SourceID:         sanitize.Text(w.SourceID),
		AgentIDField:     sanitize.Text(w.AgentIDField),
		DefaultOwner:     sanitize.Text(w.DefaultOwner),
	}
	if w.CustomFields != nil {
		out.CustomFields = make(map[string]string, len(w.CustomFields))
		for k, v := range w.CustomFields {
			out.CustomFields[sanitize.Text(k)] = sanitize.Text(v)
		}
	}
	if w.CustomFieldType != nil {
		out.CustomFieldType = make(map[string]string, len(w.CustomFieldType))
		for k, v := range w.CustomFieldType {
			out.CustomFieldType[sanitize.Text(k)] = sanitize.Text(v)
		}
	}
	if w.CustomFieldFixed != nil {
		out.CustomFieldFixed = make(map[string][]string, len(w.CustomFieldFixed))
		for k, values := range w.CustomFieldFixed {
			cleaned := make([]string, 0, len(values))
			for _, v := range values {
				cleaned = append(cleaned, sanitize.Text(v))
			}
			out.CustomFieldFixed[sanitize.Text(k)] = cleaned
		}
	}
	return out
}
