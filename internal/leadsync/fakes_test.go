package leadsync

import (
	"context"
	"sync"

	"leadsync_backend/internal/mapping"
	"leadsync_backend/internal/nutshell"
	"leadsync_backend/platform/apperr"
)

type contactCall struct {
	Contact nutshell.ContactPayload
	OwnerID string
}

type fakeCRM struct {
	mu sync.Mutex

	users     map[string]string
	stagesets []nutshell.Stageset
	fields    []nutshell.CustomField
	contactID string
	accountID string
	lead      nutshell.CreatedLead
	leadErr   error
	panicOn   string

	contacts  []contactCall
	accounts  []nutshell.AccountPayload
	leads     []nutshell.LeadPayload
	stageSets [][2]string
	notes     [][2]string
}

func (f *fakeCRM) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contacts) + len(f.accounts) + len(f.leads) + len(f.stageSets) + len(f.notes)
}

func (f *fakeCRM) FindUserByEmail(_ context.Context, email string) (string, bool, error) {
	id, ok := f.users[email]
	return id, ok, nil
}

func (f *fakeCRM) FindStagesetByID(_ context.Context, id string) (nutshell.Stageset, bool, error) {
	for _, s := range f.stagesets {
		if s.ID.String() == id {
			return s, true, nil
		}
	}
	return nutshell.Stageset{}, false, nil
}

func (f *fakeCRM) FindStagesetByName(_ context.Context, name string) (nutshell.Stageset, bool, error) {
	for _, s := range f.stagesets {
		if s.Name == name {
			return s, true, nil
		}
	}
	return nutshell.Stageset{}, false, nil
}

func (f *fakeCRM) FindOrCreateContact(_ context.Context, contact nutshell.ContactPayload, ownerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, contactCall{Contact: contact, OwnerID: ownerID})
	return f.contactID, nil
}

func (f *fakeCRM) FindOrCreateAccount(_ context.Context, account nutshell.AccountPayload) (string, error) {
	if f.panicOn == "account" {
		panic("account backend exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = append(f.accounts, account)
	return f.accountID, nil
}

func (f *fakeCRM) CreateLead(_ context.Context, lead nutshell.LeadPayload) (nutshell.CreatedLead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.lead, f.leadErr
}

func (f *fakeCRM) SetLeadStageset(_ context.Context, leadID, stagesetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stageSets = append(f.stageSets, [2]string{leadID, stagesetID})
	return nil
}

func (f *fakeCRM) CreateLeadNote(_ context.Context, leadID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, [2]string{leadID, body})
	return nil
}

func (f *fakeCRM) LeadCustomFields(context.Context) ([]nutshell.CustomField, error) {
	return f.fields, nil
}

type fakeMappings struct {
	configs map[int64]mapping.Config
}

func (f *fakeMappings) Get(_ context.Context, formID int64) (mapping.Config, error) {
	if cfg, ok := f.configs[formID]; ok {
		return cfg, nil
	}
	return mapping.Default(), nil
}

func (f *fakeMappings) Put(_ context.Context, formID int64, cfg mapping.Config) error {
	f.configs[formID] = cfg
	return nil
}

type fakeSettings struct {
	excluded map[int64]bool
	patterns string
	err      error
}

func (f *fakeSettings) IsFormIncluded(_ context.Context, formID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return !f.excluded[formID], nil
}

func (f *fakeSettings) ExclusionPatterns(context.Context) (string, error) {
	return f.patterns, nil
}

type recordingSink struct {
	mu          sync.Mutex
	annotations []Annotation
}

func (s *recordingSink) Annotate(_ context.Context, a Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.annotations = append(s.annotations, a)
}

var errUpstream = apperr.Upstream("nutshell: boom").WithDetails(nutshell.Response{Code: 500, Message: "boom"})
