package storage

import (
	"context"
	"io"
	"time"
)

// Service stores post image attachments in remote object storage.
// PutObject returns a stable location reference (s3://bucket/key);
// GetObjectURL turns a location back into a time-limited fetch URL.
type Service interface {
	PutObject(ctx context.Context, key string, body io.Reader, size int64) (string, error)
	GetObjectURL(ctx context.Context, location string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, location string) error
}
