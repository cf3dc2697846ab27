package domain

// BookStatus tracks where a book sits in the publishing pipeline.
type BookStatus string

// Book lifecycle states.
const (
	BookStatusDraft      BookStatus = "draft"
	BookStatusProcessing BookStatus = "processing"
	BookStatusPublished  BookStatus = "published"
	BookStatusError      BookStatus = "error"
)

// ValidBookStatus reports whether s is a known book status.
func ValidBookStatus(s BookStatus) bool {
	switch s {
	case BookStatusDraft, BookStatusProcessing, BookStatusPublished, BookStatusError:
		return true
	}
	return false
}

// Book represents an audiobook in the catalog.
type Book struct {
	Record
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	Narrator    string     `json:"narrator,omitempty"`
	Description string     `json:"description,omitempty"`
	Language    string     `json:"language,omitempty"`
	Genre       string     `json:"genre,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Status      BookStatus `json:"status"`

	// Aggregates maintained on chapter changes.
	TotalChapters int     `json:"total_chapters"`
	TotalDuration float64 `json:"total_duration"` // seconds
	TotalSize     int64   `json:"total_size"`     // bytes
}

// ApplyChapterTotals recomputes the book's aggregates from its chapters.
func (b *Book) ApplyChapterTotals(chapters []*Chapter) {
	b.TotalChapters = len(chapters)
	b.TotalDuration = 0
	b.TotalSize = 0
	for _, ch := range chapters {
		b.TotalDuration += ch.Duration
		b.TotalSize += ch.Size
	}
}
