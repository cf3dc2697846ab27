package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/vojaudio/voj-server/internal/domain"
)

// Book Operations

// CreateBook creates a new book and indexes it for search.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("status", string(book.Status)),
		)
	}

	s.indexBookAsync(book)
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.Books.Get(ctx, id)
}

// UpdateBook updates an existing book and refreshes its search entry.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	if err := s.Books.Update(ctx, book.ID, book); err != nil {
		return err
	}

	s.indexBookAsync(book)
	return nil
}

// DeleteBook deletes a book along with all of its chapters.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	chapters, err := s.ListChaptersByBook(ctx, id)
	if err != nil {
		return err
	}

	for _, ch := range chapters {
		if err := s.Chapters.Delete(ctx, ch.ID); err != nil {
			return err
		}
	}

	if err := s.Books.Delete(ctx, id); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book deleted",
			slog.String("id", id),
			slog.Int("chapters", len(chapters)),
		)
	}

	// Remove from search asynchronously
	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.DeleteBook(context.Background(), id); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to remove book from search", "book_id", id, "error", err)
				}
			}
		}()
	}

	return nil
}

// ListBooks returns all books sorted by creation time, newest first.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	var books []*domain.Book
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	sort.Slice(books, func(i, j int) bool {
		if books[i].CreatedAt.Equal(books[j].CreatedAt) {
			return books[i].ID < books[j].ID
		}
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})

	return books, nil
}

// ListBooksByStatus returns all books in the given status.
func (s *Store) ListBooksByStatus(ctx context.Context, status domain.BookStatus) ([]*domain.Book, error) {
	return s.Books.ListByIndex(ctx, "status", string(status))
}

// indexBookAsync updates the search index without blocking the caller.
func (s *Store) indexBookAsync(book *domain.Book) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.IndexBook(context.Background(), book); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index book for search", "book_id", book.ID, "error", err)
			}
		}
	}()
}
