package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"leadsync_backend/internal/events"
	"leadsync_backend/platform/logger"
)

type memoryObjects struct {
	objects map[string][]byte
	meta    map[string]Object
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, meta: map[string]Object{}}
}

func (m *memoryObjects) EnsureBucketExists(context.Context, string) error { return nil }

func (m *memoryObjects) PutObject(_ context.Context, bucket string, obj Object) error {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+obj.Key] = data
	obj.Body = nil
	m.meta[bucket+"/"+obj.Key] = obj
	return nil
}

func (m *memoryObjects) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.objects[bucket+"/"+key])), nil
}

func TestArchiveStoresBodyAndPublishesKey(t *testing.T) {
	objects := newMemoryObjects()
	bus := events.NewInMemoryBus(logger.Discard())
	var archived events.SubmissionArchived
	bus.Subscribe(events.SubmissionArchived{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		archived = e.(events.SubmissionArchived)
		return nil
	}))
	archive := NewSubmissionArchive(objects, "submissions", bus, logger.Discard())
	ctx := context.Background()

	if err := archive.Archive(ctx, 3, 14, []byte(`{"email":"a@b.test"}`)); err != nil {
		t.Fatalf("archive: %v", err)
	}
	bus.Wait()

	if archived.Bucket != "submissions" || !strings.HasPrefix(archived.Key, "forms/3/entries/14/") || !strings.HasSuffix(archived.Key, ".json") {
		t.Fatalf("unexpected event %+v", archived)
	}
	stored := objects.meta["submissions/"+archived.Key]
	if stored.ContentType != "application/json" {
		t.Fatal("expected json content type")
	}
	if stored.Metadata["form-id"] != "3" || stored.Metadata["entry-id"] != "14" {
		t.Fatalf("unexpected metadata %v", stored.Metadata)
	}

	body, err := archive.Load(ctx, archived.Key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(body) != `{"email":"a@b.test"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestArchiveRejectsEmptyAndOversizedBodies(t *testing.T) {
	archive := NewSubmissionArchive(newMemoryObjects(), "submissions", nil, logger.Discard())

	if err := archive.Archive(context.Background(), 1, 1, nil); err == nil {
		t.Fatal("expected error for empty body")
	}
	if err := archive.Archive(context.Background(), 1, 1, make([]byte, MaxArchiveBytes+1)); err == nil {
		t.Fatal("expected error for oversized body")
	}
	if _, err := archive.Load(context.Background(), "../etc/passwd"); err == nil {
		t.Fatal("expected error for traversal key")
	}
}
