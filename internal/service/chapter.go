package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/vojaudio/voj-server/internal/domain"
	apperrors "github.com/vojaudio/voj-server/internal/errors"
	"github.com/vojaudio/voj-server/internal/id"
	"github.com/vojaudio/voj-server/internal/ingest"
	"github.com/vojaudio/voj-server/internal/storage"
	"github.com/vojaudio/voj-server/internal/store"
)

// StreamInfo is an issued streaming URL with its expiry.
type StreamInfo struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // Nil for non-expiring local URLs
}

// ChapterService handles chapter ingestion and lifecycle.
type ChapterService struct {
	store      *store.Store
	storage    storage.Adapter
	validator  *ingest.Validator
	keyPrefix  string
	presignTTL time.Duration
	logger     *slog.Logger
}

// NewChapterService creates a new chapter service.
func NewChapterService(st *store.Store, adapter storage.Adapter, validator *ingest.Validator, keyPrefix string, presignTTL time.Duration, logger *slog.Logger) *ChapterService {
	return &ChapterService{
		store:      st,
		storage:    adapter,
		validator:  validator,
		keyPrefix:  keyPrefix,
		presignTTL: presignTTL,
		logger:     logger,
	}
}

// Upload validates an audio file, stores it, and creates the chapter record.
// The validation result is returned alongside the chapter so callers can
// surface warnings; on validation failure it accompanies the error instead.
func (s *ChapterService) Upload(ctx context.Context, bookID string, file ingest.File) (*domain.Chapter, *ingest.Result, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, nil, err
	}

	result := s.validator.ValidateFile(ctx, file)
	if !result.Valid {
		return nil, result, apperrors.ValidationWithDetails("audio validation failed", result)
	}

	guess := ingest.InferChapter(file.Name())
	number := guess.Number
	if number == 0 {
		number, err = s.nextChapterNumber(ctx, bookID)
		if err != nil {
			return nil, result, err
		}
	}

	chapterID, err := id.Generate(id.PrefixChapter)
	if err != nil {
		return nil, result, apperrors.Internal("generate chapter id").WithCause(err)
	}

	key := storage.ObjectKey(s.keyPrefix, bookID, chapterID, file.Name())

	rc, err := file.Open()
	if err != nil {
		return nil, result, apperrors.Internal("open upload").WithCause(err)
	}
	defer rc.Close()

	if err := s.storage.Put(ctx, key, rc); err != nil {
		return nil, result, apperrors.Internal("store audio object").WithCause(err)
	}

	chapter := &domain.Chapter{
		BookID:     bookID,
		Number:     number,
		Title:      guess.Title,
		Filename:   file.Name(),
		Status:     domain.ChapterStatusProcessing,
		StorageKey: key,
		Size:       file.Size(),
	}
	if info := result.Info; info != nil {
		chapter.Duration = info.Duration
		chapter.Bitrate = info.Bitrate
		chapter.SampleRate = info.SampleRate
		chapter.Channels = info.Channels
		chapter.Format = info.Format
	}
	chapter.ID = chapterID
	chapter.InitTimestamps()

	if err := s.store.CreateChapter(ctx, chapter); err != nil {
		// Don't leave the object orphaned when the record fails.
		if delErr := s.storage.Delete(ctx, key); delErr != nil && s.logger != nil {
			s.logger.Warn("failed to clean up audio object", "key", key, "error", delErr)
		}
		return nil, result, err
	}

	if book.Status == domain.BookStatusDraft {
		book.Status = domain.BookStatusProcessing
	}
	if err := s.refreshBookTotals(ctx, book); err != nil {
		return nil, result, err
	}

	return chapter, result, nil
}

// GetChapter retrieves a chapter, verifying it belongs to the given book.
func (s *ChapterService) GetChapter(ctx context.Context, bookID, chapterID string) (*domain.Chapter, error) {
	chapter, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.BookID != bookID {
		return nil, apperrors.NotFoundf("chapter %s not found in book %s", chapterID, bookID)
	}
	return chapter, nil
}

// ListChapters returns a book's chapters ordered by number, optionally
// filtered by status.
func (s *ChapterService) ListChapters(ctx context.Context, bookID string, status domain.ChapterStatus) ([]*domain.Chapter, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	chapters, err := s.store.ListChaptersByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if status == "" {
		return chapters, nil
	}

	filtered := chapters[:0:0]
	for _, ch := range chapters {
		if ch.Status == status {
			filtered = append(filtered, ch)
		}
	}
	return filtered, nil
}

// DeleteChapter removes a chapter record and its audio object.
func (s *ChapterService) DeleteChapter(ctx context.Context, bookID, chapterID string) error {
	chapter, err := s.GetChapter(ctx, bookID, chapterID)
	if err != nil {
		return err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteChapter(ctx, chapterID); err != nil {
		return err
	}

	if chapter.StorageKey != "" {
		if err := s.storage.Delete(ctx, chapter.StorageKey); err != nil && s.logger != nil {
			s.logger.Warn("failed to delete audio object", "key", chapter.StorageKey, "error", err)
		}
	}

	return s.refreshBookTotals(ctx, book)
}

// ReorderChapters renumbers a book's chapters to match the given ID order.
func (s *ChapterService) ReorderChapters(ctx context.Context, bookID string, orderedIDs []string) ([]*domain.Chapter, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ReorderChapters(ctx, bookID, orderedIDs)
}

// StreamURL issues a time-limited streaming URL for a chapter's audio.
func (s *ChapterService) StreamURL(ctx context.Context, bookID, chapterID string) (*StreamInfo, error) {
	chapter, err := s.GetChapter(ctx, bookID, chapterID)
	if err != nil {
		return nil, err
	}
	if chapter.StorageKey == "" {
		return nil, apperrors.NotFoundf("chapter %s has no audio object", chapterID)
	}

	url, err := s.storage.StreamURL(ctx, chapter.StorageKey, s.presignTTL)
	if err != nil {
		return nil, err
	}

	info := &StreamInfo{URL: url}
	// Local URLs don't expire; only presigned ones carry an expiry.
	if _, isLocal := s.storage.(*storage.LocalAdapter); !isLocal {
		expires := time.Now().Add(s.presignTTL)
		info.ExpiresAt = &expires
	}
	return info, nil
}

// nextChapterNumber returns one past the highest existing chapter number.
func (s *ChapterService) nextChapterNumber(ctx context.Context, bookID string) (int, error) {
	chapters, err := s.store.ListChaptersByBook(ctx, bookID)
	if err != nil {
		return 0, err
	}

	max := 0
	for _, ch := range chapters {
		if ch.Number > max {
			max = ch.Number
		}
	}
	return max + 1, nil
}

// refreshBookTotals recomputes and persists a book's chapter aggregates.
func (s *ChapterService) refreshBookTotals(ctx context.Context, book *domain.Book) error {
	chapters, err := s.store.ListChaptersByBook(ctx, book.ID)
	if err != nil {
		return err
	}

	book.ApplyChapterTotals(chapters)
	book.Touch()
	return s.store.UpdateBook(ctx, book)
}
