// Command dbinspect prints a read-only summary of the catalog database.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/vojaudio/voj-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		dbPath = filepath.Join(home, "VOJ", "data", "db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Catalog Inspection ===")
	fmt.Println()

	byStatus := map[domain.BookStatus]int{}
	bookCount := 0
	chapterCount := 0
	booksWithChapters := 0
	chaptersByBook := map[string]int{}

	err = db.View(func(txn *badger.Txn) error {
		if err := scanPrefix(txn, "chapter:", func(val []byte) error {
			var chapter domain.Chapter
			if err := json.Unmarshal(val, &chapter); err != nil {
				return err
			}
			chapterCount++
			chaptersByBook[chapter.BookID]++
			return nil
		}); err != nil {
			return err
		}

		return scanPrefix(txn, "book:", func(val []byte) error {
			var book domain.Book
			if err := json.Unmarshal(val, &book); err != nil {
				return err
			}
			bookCount++
			byStatus[book.Status]++
			if chaptersByBook[book.ID] > 0 {
				booksWithChapters++
			}
			if book.TotalChapters != chaptersByBook[book.ID] {
				fmt.Printf("MISMATCH %s (%s): record says %d chapters, found %d\n",
					book.Title, book.ID, book.TotalChapters, chaptersByBook[book.ID])
			}
			return nil
		})
	})
	if err != nil {
		log.Fatalf("Inspection failed: %v", err)
	}

	fmt.Printf("Books:    %d (%d with chapters)\n", bookCount, booksWithChapters)
	for status, n := range byStatus {
		fmt.Printf("  %-12s %d\n", status, n)
	}
	fmt.Printf("Chapters: %d\n", chapterCount)
}

// scanPrefix runs fn over every entity value under prefix, skipping index keys.
func scanPrefix(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		if strings.HasPrefix(string(item.Key()), prefix+"idx:") {
			continue
		}
		if err := item.Value(fn); err != nil {
			return err
		}
	}
	return nil
}
