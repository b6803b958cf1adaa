// Package settings holds the global sync settings: forms excluded from CRM
// sync and the email exclusion patterns.
package settings

import (
	"context"
	"slices"
	"strings"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"
)

// Store is the persistence the service needs.
type Store interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) error
	SetFormExcluded(ctx context.Context, formID int64, excluded bool) error
}

// PutRequest replaces the settings.
type PutRequest struct {
	ExcludedFormIDs []int64 `json:"excluded_form_ids" validate:"max=1000,dive,gt=0"`
	ExcludedEmails  string  `json:"excluded_emails" validate:"max=20000"`
}

// View is what the admin API returns.
type View struct {
	ExcludedFormIDs []int64 `json:"excluded_form_ids"`
	ExcludedEmails  string  `json:"excluded_emails"`
	UpdatedAt       string  `json:"updated_at"`
}

// Service exposes the settings to the admin API and the sync pipeline.
type Service struct {
	store Store
	val   *validator.Validator
	log   *logger.Logger
}

// NewService creates a settings service.
func NewService(store Store, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{store: store, val: val, log: log}
}

// Get returns the current settings.
func (s *Service) Get(ctx context.Context) (View, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		s.log.DatabaseError("settings.Get", err)
		return View{}, apperr.Wrap(apperr.KindInternal, "failed to load settings", err).WithOp("settings.Get")
	}
	return toView(current), nil
}

// Put replaces the settings. Form ids are deduplicated and sorted; the
// pattern list keeps the operator's text with trailing space trimmed.
func (s *Service) Put(ctx context.Context, req PutRequest) (View, error) {
	if err := s.val.Struct(req); err != nil {
		return View{}, apperr.Validation(err.Error()).WithOp("settings.Put")
	}

	ids := slices.Clone(req.ExcludedFormIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	next := Settings{ExcludedFormIDs: ids, ExcludedEmails: strings.TrimSpace(req.ExcludedEmails)}
	if err := s.store.Put(ctx, next); err != nil {
		s.log.DatabaseError("settings.Put", err)
		return View{}, apperr.Wrap(apperr.KindInternal, "failed to save settings", err).WithOp("settings.Put")
	}
	s.log.Info("settings: updated", "excluded_forms", len(ids))
	return s.Get(ctx)
}

// IsFormIncluded reports whether submissions of formID are synced.
func (s *Service) IsFormIncluded(ctx context.Context, formID int64) (bool, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		return false, err
	}
	return !slices.Contains(current.ExcludedFormIDs, formID), nil
}

// SetFormIncluded toggles one form's exclusion.
func (s *Service) SetFormIncluded(ctx context.Context, formID int64, included bool) error {
	return s.store.SetFormExcluded(ctx, formID, !included)
}

// ExclusionPatterns returns the raw newline-separated email patterns.
func (s *Service) ExclusionPatterns(ctx context.Context) (string, error) {
	current, err := s.store.Get(ctx)
	if err != nil {
		return "", err
	}
	return current.ExcludedEmails, nil
}

func toView(s Settings) View {
	ids := s.ExcludedFormIDs
	if ids == nil {
		ids = []int64{}
	}
	v := View{ExcludedFormIDs: ids, ExcludedEmails: s.ExcludedEmails}
	if !s.UpdatedAt.IsZero() {
		v.UpdatedAt = s.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return v
}
