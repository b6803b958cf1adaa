package mapping

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadsync_backend/platform/apperr"
	"leadsync_backend/platform/cache"
	"leadsync_backend/platform/logger"
	"leadsync_backend/platform/validator"
)

type memoryRepo struct {
	configs map[int64]Config
	gets    int
	putErr  error
}

func (r *memoryRepo) Get(_ context.Context, formID int64) (Config, error) {
	r.gets++
	cfg, ok := r.configs[formID]
	if !ok {
		return Config{}, ErrNotFound
	}
	return cfg, nil
}

func (r *memoryRepo) Put(_ context.Context, formID int64, cfg Config) error {
	if r.putErr != nil {
		return r.putErr
	}
	r.configs[formID] = cfg
	return nil
}

type fakeInclusion struct {
	excluded map[int64]bool
	setErr   error
}

func (f *fakeInclusion) IsFormIncluded(_ context.Context, formID int64) (bool, error) {
	return !f.excluded[formID], nil
}

func (f *fakeInclusion) SetFormIncluded(_ context.Context, formID int64, included bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.excluded[formID] = !included
	return nil
}

func newTestStore(t *testing.T, repo *memoryRepo) *CachedStore {
	t.Helper()
	mem, err := cache.NewMemoryStore(16, nil)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	return NewCachedStore(repo, cache.NewLoader(mem, logger.Discard()), time.Minute)
}

func TestCachedStoreDefaultsAndInvalidates(t *testing.T) {
	repo := &memoryRepo{configs: map[int64]Config{}}
	store := newTestStore(t, repo)
	ctx := context.Background()

	cfg, err := store.Get(ctx, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.Description != "" || cfg.Note != nil || len(cfg.CustomFields) != 0 {
		t.Fatalf("expected default mapping, got %#v", cfg)
	}
	_, _ = store.Get(ctx, 3)
	if repo.gets != 1 {
		t.Fatalf("expected cached second read, repo hit %d times", repo.gets)
	}

	if err := store.Put(ctx, 3, Config{Description: "subject"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	cfg, _ = store.Get(ctx, 3)
	if cfg.Description != "subject" {
		t.Fatalf("expected fresh mapping after put, got %q", cfg.Description)
	}
}

func TestServicePutReplacesMappingAndTogglesInclusion(t *testing.T) {
	repo := &memoryRepo{configs: map[int64]Config{}}
	inclusion := &fakeInclusion{excluded: map[int64]bool{}}
	svc := NewService(newTestStore(t, repo), inclusion, validator.New(), logger.Discard())
	ctx := context.Background()
	off := false

	view, err := svc.Put(ctx, 4, PutRequest{
		Mapping: Wire{
			ContactEmail: "email",
			NoteType:     "template",
			NoteTemplate: "<b>Hi</b> {{names.first_name}}\nThanks",
		},
		IncludeInCRM: &off,
	}, "ops@acme.test")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if view.IncludeInCRM {
		t.Fatal("expected form to be excluded")
	}
	if view.Mapping.NoteTemplate != "Hi {{names.first_name}}\nThanks" {
		t.Fatalf("unexpected cleaned template %q", view.Mapping.NoteTemplate)
	}

	_, err = svc.Put(ctx, 4, PutRequest{Mapping: Wire{Description: "subject"}}, "ops@acme.test")
	if err != nil {
		t.Fatalf("second put: %v", err)
	}
	if repo.configs[4].Note != nil || repo.configs[4].ContactEmail != "" {
		t.Fatalf("expected wholesale replace, got %#v", repo.configs[4])
	}
	if !inclusion.excluded[4] {
		t.Fatal("inclusion must not change when the flag is omitted")
	}
}

func TestServicePutFailuresLeaveStoredStateUnchanged(t *testing.T) {
	ctx := context.Background()
	off := false

	repo := &memoryRepo{configs: map[int64]Config{}, putErr: errors.New("db down")}
	inclusion := &fakeInclusion{excluded: map[int64]bool{}}
	svc := NewService(newTestStore(t, repo), inclusion, validator.New(), logger.Discard())
	if _, err := svc.Put(ctx, 4, PutRequest{Mapping: Wire{ContactEmail: "email"}, IncludeInCRM: &off}, "ops"); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if inclusion.excluded[4] {
		t.Fatal("expected inclusion flag to be restored after the mapping write failed")
	}

	repo = &memoryRepo{configs: map[int64]Config{}}
	inclusion = &fakeInclusion{excluded: map[int64]bool{}, setErr: errors.New("db down")}
	svc = NewService(newTestStore(t, repo), inclusion, validator.New(), logger.Discard())
	if _, err := svc.Put(ctx, 4, PutRequest{Mapping: Wire{ContactEmail: "email"}, IncludeInCRM: &off}, "ops"); err == nil {
		t.Fatal("expected settings error")
	}
	if _, ok := repo.configs[4]; ok {
		t.Fatal("mapping must not be stored when the inclusion flag could not be saved")
	}
}

func TestServiceRejectsInvalidFieldReference(t *testing.T) {
	repo := &memoryRepo{configs: map[int64]Config{}}
	svc := NewService(newTestStore(t, repo), &fakeInclusion{excluded: map[int64]bool{}}, validator.New(), logger.Discard())

	_, err := svc.Put(context.Background(), 4, PutRequest{Mapping: Wire{ContactEmail: "email; DROP"}}, "ops")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.configs) != 0 {
		t.Fatal("invalid mapping must not be stored")
	}
}
