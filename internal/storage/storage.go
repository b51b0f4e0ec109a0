// Package storage keeps product images in an S3-compatible bucket.
// Records only hold the object key; clients download through presigned URLs.
package storage

import (
	"context"
	"io"
	"time"
)

// Object describes an upload. Size is the exact byte count, or -1 when
// unknown, in which case the backend buffers in parts.
type Object struct {
	Key         string
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// Storage is the object store used for product images.
type Storage interface {
	Put(ctx context.Context, obj Object, r io.Reader) error
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL that downloads key without credentials until expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}
