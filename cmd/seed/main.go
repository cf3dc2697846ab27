// Command seed populates a development database with sample catalog data.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vojaudio/voj-server/internal/domain"
	"github.com/vojaudio/voj-server/internal/id"
	"github.com/vojaudio/voj-server/internal/store"
)

type seedChapter struct {
	title    string
	duration float64
	size     int64
}

type seedBook struct {
	title    string
	author   string
	narrator string
	genre    string
	language string
	status   domain.BookStatus
	chapters []seedChapter
}

var catalog = []seedBook{
	{
		title: "Dracula", author: "Bram Stoker", narrator: "David Suchet",
		genre: "Horror", language: "en", status: domain.BookStatusPublished,
		chapters: []seedChapter{
			{"Jonathan Harker's Journal", 2712, 39 << 20},
			{"The Demeter", 2488, 36 << 20},
			{"Lucy", 2903, 42 << 20},
		},
	},
	{
		title: "구운몽", author: "김만중", narrator: "이자연",
		genre: "Classic", language: "ko", status: domain.BookStatusProcessing,
		chapters: []seedChapter{
			{"1장", 1841, 27 << 20},
			{"2장", 1922, 28 << 20},
		},
	},
	{
		title: "The Art of War", author: "Sun Tzu", narrator: "Aidan Gillen",
		genre: "Philosophy", language: "en", status: domain.BookStatusDraft,
	},
}

func main() {
	dataPath := flag.String("data", defaultDataPath(), "data directory")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(filepath.Join(*dataPath, "db"), logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, sb := range catalog {
		book := &domain.Book{
			Title:    sb.title,
			Author:   sb.author,
			Narrator: sb.narrator,
			Genre:    sb.genre,
			Language: sb.language,
			Status:   sb.status,
		}
		book.ID = id.MustGenerate(id.PrefixBook)
		book.InitTimestamps()

		chapters := make([]*domain.Chapter, 0, len(sb.chapters))
		for n, sc := range sb.chapters {
			chapter := &domain.Chapter{
				BookID:     book.ID,
				Number:     n + 1,
				Title:      sc.title,
				Filename:   fmt.Sprintf("chapter_%02d.m4a", n+1),
				Status:     domain.ChapterStatusReady,
				Duration:   sc.duration,
				Size:       sc.size,
				Bitrate:    128,
				SampleRate: 44100,
				Channels:   1,
				Format:     "mov,mp4,m4a",
			}
			chapter.ID = id.MustGenerate(id.PrefixChapter)
			chapter.InitTimestamps()
			chapters = append(chapters, chapter)
		}

		book.ApplyChapterTotals(chapters)
		if err := st.CreateBook(ctx, book); err != nil {
			log.Fatalf("Failed to seed book %q: %v", sb.title, err)
		}
		for _, chapter := range chapters {
			if err := st.CreateChapter(ctx, chapter); err != nil {
				log.Fatalf("Failed to seed chapter %q: %v", chapter.Title, err)
			}
		}

		fmt.Printf("Seeded %q (%d chapters)\n", book.Title, len(chapters))
	}
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, "VOJ", "data")
}
