package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"leadsync_backend/internal/events"
	"leadsync_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	archiveContentType = "application/json"
	// MaxArchiveBytes bounds a single archived submission body.
	MaxArchiveBytes = 1 << 20
)

// SubmissionArchive stores raw submission bodies under
// forms/<form>/entries/<entry>/<uuid>.json.
type SubmissionArchive struct {
	store  ObjectStore
	bucket string
	bus    events.Bus
	log    *logger.Logger
}

// NewSubmissionArchive creates an archive writing to bucket. bus may be nil.
func NewSubmissionArchive(store ObjectStore, bucket string, bus events.Bus, log *logger.Logger) *SubmissionArchive {
	return &SubmissionArchive{store: store, bucket: bucket, bus: bus, log: log}
}

// Archive uploads raw and announces the stored key.
func (a *SubmissionArchive) Archive(ctx context.Context, formID, entryID int64, raw []byte) error {
	if err := validateSize(int64(len(raw))); err != nil {
		return err
	}
	key := fmt.Sprintf("forms/%d/entries/%d/%s.json", formID, entryID, uuid.NewString())
	obj := Object{
		Key:         key,
		ContentType: archiveContentType,
		Body:        bytes.NewReader(raw),
		Size:        int64(len(raw)),
		Metadata: map[string]string{
			"form-id":  strconv.FormatInt(formID, 10),
			"entry-id": strconv.FormatInt(entryID, 10),
		},
	}
	if err := a.store.PutObject(ctx, a.bucket, obj); err != nil {
		return err
	}
	a.log.Debug("storage: submission archived", "bucket", a.bucket, "key", key)

	if a.bus != nil {
		a.bus.Publish(ctx, events.SubmissionArchived{
			BaseEvent: events.NewBaseEvent(),
			FormID:    formID,
			EntryID:   entryID,
			Bucket:    a.bucket,
			Key:       key,
		})
	}
	return nil
}

// Load reads an archived body back, for replays.
func (a *SubmissionArchive) Load(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return nil, fmt.Errorf("invalid archive key %q", key)
	}
	rc, err := a.store.GetObject(ctx, a.bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxArchiveBytes+1))
}

func validateSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("submission body is empty")
	}
	if size > MaxArchiveBytes {
		return fmt.Errorf("submission body of %d bytes exceeds maximum archive size of %d bytes", size, MaxArchiveBytes)
	}
	return nil
}
