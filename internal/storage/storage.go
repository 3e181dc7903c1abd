// Package storage stores attachment bytes in an object store, with
// MinIO and Google Cloud Storage backends selected by config.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the backend-agnostic surface the attachment service
// uses. Keys are opaque to the backend.
type ObjectStore interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
