package ingest

import (
	"fmt"
	"sort"
)

// FileAnalysis pairs an inferred chapter guess with its originating file.
type FileAnalysis struct {
	File  File         `json:"-"`
	Name  string       `json:"name"`
	Guess ChapterGuess `json:"guess"`
}

// SeriesAnalysis is the batch-level view over a set of chapter files.
type SeriesAnalysis struct {
	// BookTitle is the consensus book title: set only when every file that
	// states a book title states the same one. Disagreement yields no title,
	// never a majority guess.
	BookTitle string         `json:"book_title,omitempty"`
	Files     []FileAnalysis `json:"files"`
	Warnings  []string       `json:"warnings"`
}

// AnalyzeSeries infers chapter metadata for every file and checks the batch
// for chapter-number gaps and duplicates.
func AnalyzeSeries(files []File) *SeriesAnalysis {
	analysis := &SeriesAnalysis{
		Files:    make([]FileAnalysis, 0, len(files)),
		Warnings: []string{},
	}

	var numbers []int
	consensus := ""
	agreed := true

	for _, f := range files {
		guess := InferChapter(f.Name())
		analysis.Files = append(analysis.Files, FileAnalysis{File: f, Name: f.Name(), Guess: guess})

		if guess.Number > 0 {
			numbers = append(numbers, guess.Number)
		}
		if guess.BookTitle != "" {
			if consensus == "" {
				consensus = guess.BookTitle
			} else if consensus != guess.BookTitle {
				agreed = false
			}
		}
	}

	if agreed {
		analysis.BookTitle = consensus
	}

	analysis.Warnings = append(analysis.Warnings, sequenceWarnings(numbers)...)
	return analysis
}

// sequenceWarnings reports duplicates and gaps in a set of chapter numbers.
// A duplicated number occupies the next expected slot, so each duplicate
// earns one credit that cancels a later gap of one: [1,2,4,4,6] reports the
// 2->4 gap and the repeated 4, but not 4->6.
func sequenceWarnings(numbers []int) []string {
	warnings := []string{}
	if len(numbers) < 2 {
		return warnings
	}

	sorted := make([]int, len(numbers))
	copy(sorted, numbers)
	sort.Ints(sorted)

	credits := 0
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		switch {
		case curr == prev:
			warnings = append(warnings, fmt.Sprintf("duplicate chapter number: %d", curr))
			credits++
		case curr-prev > 1:
			missing := curr - prev - 1
			if missing <= credits {
				credits -= missing
			} else {
				warnings = append(warnings, fmt.Sprintf("chapter numbers jump from %d to %d", prev, curr))
				credits = 0
			}
		}
	}
	return warnings
}
