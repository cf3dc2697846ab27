// Package storage abstracts where uploaded audio objects live: a local
// filesystem in development, S3 (or an S3-compatible store) in production.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Adapter defines the interface for storage backends
type Adapter interface {
	// Put stores data at the given key
	Put(ctx context.Context, key string, data io.Reader) error

	// Get retrieves data from the given key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes data at the given key
	Delete(ctx context.Context, key string) error

	// Exists checks if data exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// StreamURL returns a time-limited URL for streaming the object
	StreamURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Close cleans up any resources
	Close() error
}

// ObjectKey builds the storage key for a chapter's audio object:
// {prefix}/{bookID}/{chapterID}_{filename}.
func ObjectKey(prefix, bookID, chapterID, filename string) string {
	return fmt.Sprintf("%s/%s/%s_%s", prefix, bookID, chapterID, filename)
}
