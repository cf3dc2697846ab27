// Package store persists catalog entities in a Badger key-value database.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/vojaudio/voj-server/internal/domain"
)

// Entity key prefixes.
const (
	bookPrefix    = "book:"
	chapterPrefix = "chapter:"
)

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on search implementation.
// Index updates are performed asynchronously to not block store operations.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Search indexer for keeping search in sync with store changes.
	// Set via SetSearchIndexer after store creation to avoid circular dependencies.
	searchIndexer SearchIndexer

	// Generic entities
	Books    *Entity[domain.Book]
	Chapters *Entity[domain.Chapter]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	// Initialize generic entities
	store.initBooks()
	store.initChapters()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Health verifies the database can serve reads.
func (s *Store) Health(_ context.Context) error {
	return s.db.View(func(_ *badger.Txn) error { return nil })
}

// SetSearchIndexer sets the search indexer for keeping search in sync.
// This is set after store creation to avoid circular dependencies
// (store needs to exist before search service can be created).
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	s.searchIndexer = indexer
}

// initBooks initializes the Books entity on the store.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, bookPrefix).
		WithMultiIndex("status", func(b *domain.Book) []string {
			return []string{string(b.Status)}
		})
}

// initChapters initializes the Chapters entity on the store.
// Indexes by book (for listing a book's chapters) and uniquely by
// book+filename (one object per filename within a book).
func (s *Store) initChapters() {
	s.Chapters = NewEntity[domain.Chapter](s, chapterPrefix).
		WithMultiIndex("book", func(c *domain.Chapter) []string {
			return []string{c.BookID}
		}).
		WithUniqueIndex("bookfile", func(c *domain.Chapter) []string {
			return []string{c.BookID + "/" + c.Filename}
		})
}
