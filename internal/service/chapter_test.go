package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vojaudio/voj-server/internal/domain"
	"github.com/vojaudio/voj-server/internal/ingest"
	"github.com/vojaudio/voj-server/internal/service"

	apperrors "github.com/vojaudio/voj-server/internal/errors"
)

func createTestBook(t *testing.T, books *service.BookService) *domain.Book {
	t.Helper()
	book, err := books.CreateBook(t.Context(), service.CreateBookInput{
		Title:  "The Count of Monte Cristo",
		Author: "Alexandre Dumas",
	})
	require.NoError(t, err)
	return book
}

func TestChapterUpload(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	chapter, result, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 03 - The Chateau d'If.m4a", 4096))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Valid)

	assert.Equal(t, book.ID, chapter.BookID)
	assert.Equal(t, 3, chapter.Number)
	assert.Equal(t, "The Chateau d'If", chapter.Title)
	assert.Equal(t, domain.ChapterStatusProcessing, chapter.Status)
	assert.Equal(t, int64(4096), chapter.Size)
	assert.InDelta(t, 600.0, chapter.Duration, 0.01)
	assert.Equal(t, 128, chapter.Bitrate)

	exists, err := adapter.Exists(t.Context(), chapter.StorageKey)
	require.NoError(t, err)
	assert.True(t, exists)

	// Upload promotes the book out of draft and refreshes aggregates.
	updated, err := books.GetBook(t.Context(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookStatusProcessing, updated.Status)
	assert.Equal(t, 1, updated.TotalChapters)
	assert.InDelta(t, 600.0, updated.TotalDuration, 0.01)
	assert.Equal(t, int64(4096), updated.TotalSize)
}

func TestChapterUpload_NumberFallback(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	first, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 7.m4a", 2048))
	require.NoError(t, err)
	assert.Equal(t, 7, first.Number)

	// No number in the filename: next after the current maximum.
	second, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Epilogue.m4a", 2048))
	require.NoError(t, err)
	assert.Equal(t, 8, second.Number)
}

func TestChapterUpload_InvalidFile(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	bad := &ingest.MemFile{FileName: "notes.txt", MIME: "text/plain", Data: make([]byte, 2048)}
	chapter, result, err := chapters.Upload(t.Context(), book.ID, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, chapter)
	require.NotNil(t, result)
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)

	// Nothing was stored or recorded.
	assert.Equal(t, 0, adapter.count())
	listed, err := chapters.ListChapters(t.Context(), book.ID, "")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestChapterUpload_DuplicateFilename(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	_, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 1.m4a", 2048))
	require.NoError(t, err)

	_, _, err = chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 1.m4a", 2048))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	// The rejected upload's object was cleaned up.
	assert.Equal(t, 1, adapter.count())
}

func TestChapterUpload_UnknownBook(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	chapters := newTestChapterService(t, st, adapter)

	_, _, err := chapters.Upload(t.Context(), "book_missing", m4aFile("Chapter 1.m4a", 2048))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestChapterGet_WrongBook(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)

	first := createTestBook(t, books)
	second, err := books.CreateBook(t.Context(), service.CreateBookInput{Title: "Other", Author: "Someone"})
	require.NoError(t, err)

	chapter, _, err := chapters.Upload(t.Context(), first.ID, m4aFile("Chapter 1.m4a", 2048))
	require.NoError(t, err)

	_, err = chapters.GetChapter(t.Context(), second.ID, chapter.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	got, err := chapters.GetChapter(t.Context(), first.ID, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, chapter.ID, got.ID)
}

func TestChapterDelete_RefreshesTotals(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	keep, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 1.m4a", 2048))
	require.NoError(t, err)
	drop, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 2.m4a", 4096))
	require.NoError(t, err)

	require.NoError(t, chapters.DeleteChapter(t.Context(), book.ID, drop.ID))

	_, err = chapters.GetChapter(t.Context(), book.ID, drop.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, adapter.count())

	updated, err := books.GetBook(t.Context(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalChapters)
	assert.Equal(t, keep.Size, updated.TotalSize)
}

func TestChapterReorder(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	a, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 1.m4a", 2048))
	require.NoError(t, err)
	b, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 2.m4a", 2048))
	require.NoError(t, err)

	reordered, err := chapters.ReorderChapters(t.Context(), book.ID, []string{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, reordered, 2)
	assert.Equal(t, b.ID, reordered[0].ID)
	assert.Equal(t, 1, reordered[0].Number)
	assert.Equal(t, a.ID, reordered[1].ID)
	assert.Equal(t, 2, reordered[1].Number)
}

func TestChapterStreamURL(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	chapter, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 1.m4a", 2048))
	require.NoError(t, err)

	info, err := chapters.StreamURL(t.Context(), book.ID, chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/"+chapter.StorageKey, info.URL)
	require.NotNil(t, info.ExpiresAt)
	assert.True(t, info.ExpiresAt.After(chapter.CreatedAt))
}

func TestListChapters_StatusFilter(t *testing.T) {
	st := newTestStore(t)
	adapter := newMemAdapter()
	books := service.NewBookService(st, newTestIndex(t), adapter, testLogger())
	chapters := newTestChapterService(t, st, adapter)
	book := createTestBook(t, books)

	ready, _, err := chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 1.m4a", 2048))
	require.NoError(t, err)
	_, _, err = chapters.Upload(t.Context(), book.ID, m4aFile("Chapter 2.m4a", 2048))
	require.NoError(t, err)

	ready.Status = domain.ChapterStatusReady
	require.NoError(t, st.UpdateChapter(t.Context(), ready))

	got, err := chapters.ListChapters(t.Context(), book.ID, domain.ChapterStatusReady)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ready.ID, got[0].ID)
}
