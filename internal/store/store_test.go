package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vojaudio/voj-server/internal/domain"
	apperrors "github.com/vojaudio/voj-server/internal/errors"
	"github.com/vojaudio/voj-server/internal/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func testBook(title string) *domain.Book {
	b := &domain.Book{
		Title:  title,
		Author: "Herman Melville",
		Status: domain.BookStatusDraft,
	}
	b.ID = id.MustGenerate(id.PrefixBook)
	b.InitTimestamps()
	return b
}

func testChapter(bookID string, number int, filename string) *domain.Chapter {
	c := &domain.Chapter{
		BookID:   bookID,
		Number:   number,
		Title:    filename,
		Filename: filename,
		Status:   domain.ChapterStatusProcessing,
		Size:     4096,
		Duration: 600,
	}
	c.ID = id.MustGenerate(id.PrefixChapter)
	c.InitTimestamps()
	return c
}

func TestBookCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	book := testBook("Moby Dick")
	require.NoError(t, s.CreateBook(ctx, book))

	got, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moby Dick", got.Title)
	assert.Equal(t, domain.BookStatusDraft, got.Status)

	got.Status = domain.BookStatusPublished
	got.Touch()
	require.NoError(t, s.UpdateBook(ctx, got))

	got, err = s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookStatusPublished, got.Status)

	require.NoError(t, s.DeleteBook(ctx, book.ID))

	_, err = s.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetBook_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBook(t.Context(), "book-missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreateBook_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	book := testBook("Moby Dick")
	require.NoError(t, s.CreateBook(ctx, book))

	err := s.CreateBook(ctx, book)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestListBooks_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	older := testBook("First")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testBook("Second")

	require.NoError(t, s.CreateBook(ctx, older))
	require.NoError(t, s.CreateBook(ctx, newer))

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Second", books[0].Title)
	assert.Equal(t, "First", books[1].Title)
}

func TestListBooksByStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	draft := testBook("Draft Book")
	published := testBook("Published Book")
	published.Status = domain.BookStatusPublished

	require.NoError(t, s.CreateBook(ctx, draft))
	require.NoError(t, s.CreateBook(ctx, published))

	drafts, err := s.ListBooksByStatus(ctx, domain.BookStatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Draft Book", drafts[0].Title)
}

func TestStatusIndex_FollowsUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	book := testBook("Moby Dick")
	require.NoError(t, s.CreateBook(ctx, book))

	book.Status = domain.BookStatusPublished
	require.NoError(t, s.UpdateBook(ctx, book))

	drafts, err := s.ListBooksByStatus(ctx, domain.BookStatusDraft)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	published, err := s.ListBooksByStatus(ctx, domain.BookStatusPublished)
	require.NoError(t, err)
	assert.Len(t, published, 1)
}

func TestDeleteBook_CascadesChapters(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	book := testBook("Moby Dick")
	require.NoError(t, s.CreateBook(ctx, book))

	ch := testChapter(book.ID, 1, "1_1.m4a")
	require.NoError(t, s.CreateChapter(ctx, ch))

	require.NoError(t, s.DeleteBook(ctx, book.ID))

	_, err := s.GetChapter(ctx, ch.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	chapters, err := s.ListChaptersByBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, chapters)
}
