// Package search provides full-text book search using Bleve.
// It backs the catalog's title/author/narrator search with fuzzy matching.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/vojaudio/voj-server/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes.
// This triggers an automatic rebuild on startup when the version doesn't match.
const mappingVersion = "1"

// BookIndex wraps a Bleve index with book-specific operations.
//
// Thread safety: All public methods are safe for concurrent use.
// The mutex protects against index corruption during rebuild operations.
type BookIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex // Protects index operations during rebuild
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses stderr text if nil)
}

// Hit is a single search match.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// bookDocument is the indexed representation of a book.
// Lowercase map keys keep field names aligned with the index mapping;
// Bleve would otherwise index Go struct field names.
func bookDocument(book *domain.Book) map[string]any {
	return map[string]any{
		"id":         book.ID,
		"title":      book.Title,
		"author":     book.Author,
		"narrator":   book.Narrator,
		"status":     string(book.Status),
		"updated_at": book.UpdatedAt.UnixMilli(),
	}
}

// NewBookIndex creates or opens a search index.
// If an existing index is found, it opens it. Otherwise, creates a new one.
// If the existing index is corrupted or has an outdated mapping, it's removed and recreated.
func NewBookIndex(opts Options) (*BookIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	// Check mapping version - rebuild if version file missing or mismatched
	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("search index has no version file, will rebuild with current mapping",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	// Try to open existing index (if not forcing rebuild)
	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		}
	}

	// Remove old index if rebuild needed
	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	// Create new index if needed
	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		// Write version file
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &BookIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (b *BookIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.index.Close()
}

// IndexBook adds or updates a book in the index.
// Implements store.SearchIndexer.
func (b *BookIndex) IndexBook(_ context.Context, book *domain.Book) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Index(book.ID, bookDocument(book))
}

// DeleteBook removes a book from the index.
// Implements store.SearchIndexer.
func (b *BookIndex) DeleteBook(_ context.Context, bookID string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.Delete(bookID)
}

// IndexBooks indexes multiple books in a batch.
// This is significantly faster than calling IndexBook in a loop and is
// used to rebuild the index from the store on startup.
func (b *BookIndex) IndexBooks(_ context.Context, books []*domain.Book) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(books); i += batchSize {
		end := min(i+batchSize, len(books))

		batch := b.index.NewBatch()
		for _, book := range books[i:end] {
			if err := batch.Index(book.ID, bookDocument(book)); err != nil {
				return fmt.Errorf("batch index %s: %w", book.ID, err)
			}
		}

		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DocumentCount returns the total number of indexed books.
func (b *BookIndex) DocumentCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Search finds books matching the query across title, author, and narrator.
// Title matches are boosted; fuzzy matching tolerates a one-character typo.
// Results are hits ordered by relevance, capped at limit.
func (b *BookIndex) Search(_ context.Context, queryString string, limit int) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	titleQuery := bleve.NewMatchQuery(queryString)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)
	titleQuery.SetFuzziness(1)

	authorQuery := bleve.NewMatchQuery(queryString)
	authorQuery.SetField("author")
	authorQuery.SetFuzziness(1)

	narratorQuery := bleve.NewMatchQuery(queryString)
	narratorQuery.SetField("narrator")
	narratorQuery.SetFuzziness(1)

	// Prefix queries make partial title typing work in the console.
	titlePrefix := bleve.NewPrefixQuery(queryString)
	titlePrefix.SetField("title")

	disjunction := query.NewDisjunctionQuery([]query.Query{
		titleQuery, authorQuery, narratorQuery, titlePrefix,
	})

	request := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)

	result, err := b.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}

	return hits, nil
}
