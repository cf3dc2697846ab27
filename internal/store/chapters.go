package store

import (
	"context"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/vojaudio/voj-server/internal/domain"
	apperrors "github.com/vojaudio/voj-server/internal/errors"
)

// Chapter Operations

// CreateChapter creates a new chapter. Fails with an already-exists error
// if the book already has a chapter with the same filename.
func (s *Store) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	if err := s.Chapters.Create(ctx, chapter.ID, chapter); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "chapter created",
			slog.String("id", chapter.ID),
			slog.String("book_id", chapter.BookID),
			slog.Int("number", chapter.Number),
			slog.String("filename", chapter.Filename),
		)
	}
	return nil
}

// GetChapter retrieves a chapter by ID.
func (s *Store) GetChapter(ctx context.Context, id string) (*domain.Chapter, error) {
	return s.Chapters.Get(ctx, id)
}

// UpdateChapter updates an existing chapter.
func (s *Store) UpdateChapter(ctx context.Context, chapter *domain.Chapter) error {
	return s.Chapters.Update(ctx, chapter.ID, chapter)
}

// DeleteChapter deletes a chapter by ID.
func (s *Store) DeleteChapter(ctx context.Context, id string) error {
	return s.Chapters.Delete(ctx, id)
}

// ListChaptersByBook returns a book's chapters sorted by chapter number,
// ties broken by creation time.
func (s *Store) ListChaptersByBook(ctx context.Context, bookID string) ([]*domain.Chapter, error) {
	chapters, err := s.Chapters.ListByIndex(ctx, "book", bookID)
	if err != nil {
		return nil, err
	}

	sort.Slice(chapters, func(i, j int) bool {
		if chapters[i].Number == chapters[j].Number {
			return chapters[i].CreatedAt.Before(chapters[j].CreatedAt)
		}
		return chapters[i].Number < chapters[j].Number
	})

	return chapters, nil
}

// ReorderChapters renumbers a book's chapters to match the given ID order.
// Every chapter of the book must appear exactly once in orderedIDs.
func (s *Store) ReorderChapters(ctx context.Context, bookID string, orderedIDs []string) ([]*domain.Chapter, error) {
	chapters, err := s.ListChaptersByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if len(orderedIDs) != len(chapters) {
		return nil, apperrors.Validationf("expected %d chapter ids, got %d", len(chapters), len(orderedIDs))
	}

	byID := make(map[string]*domain.Chapter, len(chapters))
	for _, ch := range chapters {
		byID[ch.ID] = ch
	}

	reordered := make([]*domain.Chapter, 0, len(orderedIDs))
	seen := make(map[string]bool, len(orderedIDs))
	for i, chID := range orderedIDs {
		ch, ok := byID[chID]
		if !ok {
			return nil, apperrors.Validationf("chapter %s does not belong to book %s", chID, bookID)
		}
		if seen[chID] {
			return nil, apperrors.Validationf("chapter %s listed more than once", chID)
		}
		seen[chID] = true

		ch.Number = i + 1
		ch.Touch()
		reordered = append(reordered, ch)
	}

	// One transaction for the whole book: a failed reorder must not leave a
	// half-renumbered chapter sequence behind.
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, ch := range reordered {
			if err := s.Chapters.updateTxn(txn, ch.ID, ch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "chapters reordered",
			slog.String("book_id", bookID),
			slog.Int("count", len(reordered)),
		)
	}

	return reordered, nil
}
