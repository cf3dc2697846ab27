package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vojaudio/voj-server/internal/domain"
)

func newTestIndex(t *testing.T) *BookIndex {
	t.Helper()

	idx, err := NewBookIndex(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, idx.Close())
	})
	return idx
}

func indexedBook(id, title, author string) *domain.Book {
	b := &domain.Book{
		Title:  title,
		Author: author,
		Status: domain.BookStatusPublished,
	}
	b.ID = id
	b.InitTimestamps()
	return b
}

func TestIndexAndSearch_Title(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.IndexBook(ctx, indexedBook("book-1", "Moby Dick", "Herman Melville")))
	require.NoError(t, idx.IndexBook(ctx, indexedBook("book-2", "Dracula", "Bram Stoker")))

	hits, err := idx.Search(ctx, "moby", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestSearch_Author(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.IndexBook(ctx, indexedBook("book-1", "Moby Dick", "Herman Melville")))

	hits, err := idx.Search(ctx, "melville", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestSearch_FuzzyTypo(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.IndexBook(ctx, indexedBook("book-1", "Dracula", "Bram Stoker")))

	hits, err := idx.Search(ctx, "dracule", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestSearch_NoMatches(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.IndexBook(ctx, indexedBook("book-1", "Moby Dick", "Herman Melville")))

	hits, err := idx.Search(ctx, "zzzzzzz", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestDeleteBook_RemovesFromResults(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.IndexBook(ctx, indexedBook("book-1", "Moby Dick", "Herman Melville")))
	require.NoError(t, idx.DeleteBook(ctx, "book-1"))

	hits, err := idx.Search(ctx, "moby", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexBook_UpdateReplaces(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	book := indexedBook("book-1", "Moby Dick", "Herman Melville")
	require.NoError(t, idx.IndexBook(ctx, book))

	book.Title = "The Whale"
	require.NoError(t, idx.IndexBook(ctx, book))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	hits, err := idx.Search(ctx, "whale", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "book-1", hits[0].ID)
}

func TestIndexBooks_Batch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := t.Context()

	books := []*domain.Book{
		indexedBook("book-1", "Moby Dick", "Herman Melville"),
		indexedBook("book-2", "Dracula", "Bram Stoker"),
		indexedBook("book-3", "Frankenstein", "Mary Shelley"),
	}
	require.NoError(t, idx.IndexBooks(ctx, books))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}
