package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vojaudio/voj-server/internal/domain"
	apperrors "github.com/vojaudio/voj-server/internal/errors"
	"github.com/vojaudio/voj-server/internal/genre"
	"github.com/vojaudio/voj-server/internal/id"
	"github.com/vojaudio/voj-server/internal/search"
	"github.com/vojaudio/voj-server/internal/storage"
	"github.com/vojaudio/voj-server/internal/store"
)

// CreateBookInput holds the fields accepted when creating a book.
type CreateBookInput struct {
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"required,max=200"`
	Narrator    string `json:"narrator" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
	Language    string `json:"language" validate:"max=20"`
	Genre       string `json:"genre" validate:"max=100"`
	CoverURL    string `json:"cover_url" validate:"omitempty,url"`
}

// UpdateBookInput holds the patchable book fields. Nil means "leave unchanged".
type UpdateBookInput struct {
	Title       *string `json:"title" validate:"omitempty,max=500"`
	Author      *string `json:"author" validate:"omitempty,max=200"`
	Narrator    *string `json:"narrator" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Language    *string `json:"language" validate:"omitempty,max=20"`
	Genre       *string `json:"genre" validate:"omitempty,max=100"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
	Status      *string `json:"status" validate:"omitempty,oneof=draft processing published error"`
}

// ListBooksParams filters and paginates the book list.
type ListBooksParams struct {
	Pagination store.PaginationParams
	Status     string // Empty for all statuses
	Genre      string // Empty for all genres
	Search     string // Title/author/narrator full-text query
}

// BookService orchestrates catalog operations.
type BookService struct {
	store   *store.Store
	search  *search.BookIndex
	storage storage.Adapter
	logger  *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(st *store.Store, idx *search.BookIndex, adapter storage.Adapter, logger *slog.Logger) *BookService {
	return &BookService{
		store:   st,
		search:  idx,
		storage: adapter,
		logger:  logger,
	}
}

// CreateBook creates a new draft book.
func (s *BookService) CreateBook(ctx context.Context, input CreateBookInput) (*domain.Book, error) {
	book := &domain.Book{
		Title:       strings.TrimSpace(input.Title),
		Author:      strings.TrimSpace(input.Author),
		Narrator:    strings.TrimSpace(input.Narrator),
		Description: input.Description,
		Language:    input.Language,
		Genre:       input.Genre,
		CoverURL:    input.CoverURL,
		Status:      domain.BookStatusDraft,
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, apperrors.Internal("generate book id").WithCause(err)
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// GetBook retrieves a single book by ID.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// UpdateBook applies a partial update to a book.
func (s *BookService) UpdateBook(ctx context.Context, bookID string, input UpdateBookInput) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Narrator != nil {
		book.Narrator = strings.TrimSpace(*input.Narrator)
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.Language != nil {
		book.Language = *input.Language
	}
	if input.Genre != nil {
		book.Genre = *input.Genre
	}
	if input.CoverURL != nil {
		book.CoverURL = *input.CoverURL
	}
	if input.Status != nil {
		status := domain.BookStatus(*input.Status)
		if !domain.ValidBookStatus(status) {
			return nil, apperrors.Validationf("invalid status: %s", *input.Status)
		}
		book.Status = status
	}

	book.Touch()
	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	return book, nil
}

// DeleteBook removes a book, its chapters, and their audio objects.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	// Collect storage keys before the records disappear.
	chapters, err := s.store.ListChaptersByBook(ctx, bookID)
	if err != nil {
		return err
	}

	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return err
	}

	// Audio objects are removed best-effort after the records; an orphaned
	// object is recoverable garbage, a dangling record is not.
	for _, ch := range chapters {
		if ch.StorageKey == "" {
			continue
		}
		if err := s.storage.Delete(ctx, ch.StorageKey); err != nil && s.logger != nil {
			s.logger.Warn("failed to delete audio object",
				"book_id", bookID, "chapter_id", ch.ID, "key", ch.StorageKey, "error", err)
		}
	}

	return nil
}

// ListBooks returns a filtered, paginated page of the catalog.
// When Search is set, results are ordered by relevance; otherwise newest first.
func (s *BookService) ListBooks(ctx context.Context, params ListBooksParams) (*store.PaginatedResult[*domain.Book], error) {
	var books []*domain.Book
	var err error

	if params.Search != "" && s.search != nil {
		books, err = s.searchBooks(ctx, params.Search)
	} else {
		books, err = s.store.ListBooks(ctx)
	}
	if err != nil {
		return nil, err
	}

	filtered := books[:0:0]
	for _, book := range books {
		if params.Status != "" && string(book.Status) != params.Status {
			continue
		}
		if params.Genre != "" && !genre.Match(book.Genre, params.Genre) {
			continue
		}
		filtered = append(filtered, book)
	}

	result := store.Paginate(filtered, params.Pagination)
	return &result, nil
}

// searchBooks resolves search hits to books, preserving relevance order.
func (s *BookService) searchBooks(ctx context.Context, query string) ([]*domain.Book, error) {
	hits, err := s.search.Search(ctx, query, 200)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(hits))
	for _, hit := range hits {
		book, err := s.store.GetBook(ctx, hit.ID)
		if err != nil {
			// Index can briefly lag behind deletes.
			if apperrors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}

	return books, nil
}

// RebuildSearchIndex reindexes the whole catalog. Called on startup so the
// index survives mapping version bumps.
func (s *BookService) RebuildSearchIndex(ctx context.Context) error {
	if s.search == nil {
		return nil
	}

	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return err
	}

	if err := s.search.IndexBooks(ctx, books); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("search index rebuilt", "books", len(books))
	}
	return nil
}
