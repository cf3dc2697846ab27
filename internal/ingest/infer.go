package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// untitledFallback is used when a filename yields neither a title nor a
// chapter number.
const untitledFallback = "Untitled"

// ChapterGuess is chapter metadata inferred from a filename.
type ChapterGuess struct {
	// Title is never empty; it falls back to "Chapter N" or "Untitled".
	Title string `json:"title"`
	// Number is the parsed chapter number, 0 when the filename has none.
	Number int `json:"number,omitempty"`
	// BookTitle is the inferred book title, empty when the filename has none.
	BookTitle string `json:"book_title,omitempty"`
}

// chapterPatterns is the ordered list of filename numbering conventions,
// first match wins. Each pattern's first capture group is the chapter
// number. The Korean suffixes cover 장 (chapter), 편 (part) and 회 (episode)
// counters.
var chapterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)_(\d+)`),
	regexp.MustCompile(`(?i)chapter\s*(\d+)`),
	regexp.MustCompile(`(\d+)장`),
	regexp.MustCompile(`(\d+)편`),
	regexp.MustCompile(`(\d+)회`),
}

// InferChapter derives a chapter title, chapter number, and book title from
// one filename. The final extension is stripped first; the matched numbering
// convention is removed from the name to form the residual title, which is
// split on the first " - " into book title and chapter title.
func InferChapter(filename string) ChapterGuess {
	name := norm.NFC.String(filename)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}

	number := 0
	residual := name
	for _, re := range chapterPatterns {
		m := re.FindStringSubmatchIndex(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(name[m[2]:m[3]]); err == nil && n > 0 {
			number = n
			residual = name[:m[0]] + name[m[1]:]
			break
		}
	}

	guess := ChapterGuess{Number: number}

	// Split before trimming so a trailing " - " left by the removed match
	// still yields a book title.
	title := residual
	if i := strings.Index(residual, " - "); i >= 0 {
		guess.BookTitle = strings.TrimSpace(residual[:i])
		title = residual[i+3:]
	}

	title = strings.Trim(title, "_-. ")
	switch {
	case title != "":
		guess.Title = title
	case number > 0:
		guess.Title = fmt.Sprintf("Chapter %d", number)
	default:
		guess.Title = untitledFallback
	}
	return guess
}
