package service_test

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vojaudio/voj-server/internal/ingest"
	"github.com/vojaudio/voj-server/internal/search"
	"github.com/vojaudio/voj-server/internal/service"
	"github.com/vojaudio/voj-server/internal/store"

	apperrors "github.com/vojaudio/voj-server/internal/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})
	return st
}

func newTestIndex(t *testing.T) *search.BookIndex {
	t.Helper()
	idx, err := search.NewBookIndex(search.Options{
		DataPath: t.TempDir(),
		Logger:   testLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idx.Close())
	})
	return idx
}

// memAdapter is an in-memory storage.Adapter for tests.
type memAdapter struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemAdapter() *memAdapter {
	return &memAdapter{objects: map[string][]byte{}}
}

func (a *memAdapter) Put(_ context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = b
	return nil
}

func (a *memAdapter) Get(_ context.Context, key string) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.objects[key]
	if !ok {
		return nil, apperrors.NotFoundf("object %s: %v", key, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (a *memAdapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}

func (a *memAdapter) Exists(_ context.Context, key string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.objects[key]
	return ok, nil
}

func (a *memAdapter) StreamURL(_ context.Context, key string, _ time.Duration) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.objects[key]; !ok {
		return "", apperrors.NotFoundf("object %s not found", key)
	}
	return "https://cdn.test/" + key, nil
}

func (a *memAdapter) Close() error { return nil }

func (a *memAdapter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.objects)
}

// stubExtractor returns a fixed TrackInfo without decoding anything.
func stubExtractor(info ingest.TrackInfo) ingest.Extractor {
	return ingest.ExtractorFunc(func(_ context.Context, _ ingest.File) (*ingest.TrackInfo, error) {
		cp := info
		return &cp, nil
	})
}

// m4aFile builds an in-memory file with a valid MPEG-4 header.
func m4aFile(name string, size int) *ingest.MemFile {
	data := make([]byte, size)
	copy(data[4:], "ftypM4A ")
	return &ingest.MemFile{FileName: name, MIME: "audio/mp4", Data: data}
}

func newTestValidator() *ingest.Validator {
	return ingest.NewValidator(ingest.Options{}, stubExtractor(ingest.TrackInfo{
		Duration:   600,
		Bitrate:    128,
		SampleRate: 44100,
		Channels:   1,
		Format:     "mov,mp4,m4a",
	}))
}

func newTestChapterService(t *testing.T, st *store.Store, adapter *memAdapter) *service.ChapterService {
	t.Helper()
	return service.NewChapterService(st, adapter, newTestValidator(), "audio", time.Hour, testLogger())
}
