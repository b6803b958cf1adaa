// Package storage archives raw submission bodies in S3-compatible object
// storage so any entry can be audited or replayed later.
package storage

import (
	"context"
	"io"
)

// Object is one upload. Metadata ends up as user metadata on the object.
type Object struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
	Metadata    map[string]string
}

// ObjectStore is the slice of object storage the archive needs.
type ObjectStore interface {
	EnsureBucketExists(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket string, obj Object) error
	// GetObject opens an object. The caller closes the reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
