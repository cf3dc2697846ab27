package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/vojaudio/voj-server/internal/errors"
)

// LocalAdapter implements the Adapter interface for local filesystem storage.
// Stream URLs point at the server's /media/ route, which serves basePath.
type LocalAdapter struct {
	basePath string
}

// NewLocalAdapter creates a new local filesystem adapter
func NewLocalAdapter(basePath string) (*LocalAdapter, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalAdapter{
		basePath: basePath,
	}, nil
}

// Put stores data at the given key
func (l *LocalAdapter) Put(_ context.Context, key string, data io.Reader) error {
	fullPath, err := l.fullPath(key)
	if err != nil {
		return err
	}

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath) //#nosec G304 -- key is validated against traversal in fullPath
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// Get retrieves data from the given key
func (l *LocalAdapter) Get(_ context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := l.fullPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath) //#nosec G304 -- key is validated against traversal in fullPath
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFoundf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes data at the given key. Deleting a missing object is not an error.
func (l *LocalAdapter) Delete(_ context.Context, key string) error {
	fullPath, err := l.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Exists checks if data exists at the given key
func (l *LocalAdapter) Exists(_ context.Context, key string) (bool, error) {
	fullPath, err := l.fullPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return true, nil
}

// StreamURL returns a path under the server's /media/ route. Local URLs do
// not expire; the ttl only applies to presigned backends. Each path segment
// is percent-encoded: filenames may legitimately contain spaces.
func (l *LocalAdapter) StreamURL(ctx context.Context, key string, _ time.Duration) (string, error) {
	if ok, err := l.Exists(ctx, key); err != nil {
		return "", err
	} else if !ok {
		return "", apperrors.NotFoundf("object not found: %s", key)
	}

	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/media/" + strings.Join(segments, "/"), nil
}

// BasePath returns the adapter's root directory, used to mount the /media/ route.
func (l *LocalAdapter) BasePath() string {
	return l.basePath
}

// Close cleans up any resources
func (l *LocalAdapter) Close() error {
	// No cleanup needed for local adapter
	return nil
}

// fullPath returns the full filesystem path, rejecting traversal attempts.
func (l *LocalAdapter) fullPath(key string) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(full, filepath.Clean(l.basePath)+string(os.PathSeparator)) {
		return "", apperrors.Validationf("invalid storage key: %s", key)
	}
	return full, nil
}
