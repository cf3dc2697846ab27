package domain

// ChapterStatus tracks a chapter's position in the audio pipeline.
// Uploads start as processing; the external encoding pipeline reports
// back ready or error.
type ChapterStatus string

// Chapter lifecycle states.
const (
	ChapterStatusProcessing ChapterStatus = "processing"
	ChapterStatusReady      ChapterStatus = "ready"
	ChapterStatusError      ChapterStatus = "error"
)

// ValidChapterStatus reports whether s is a known chapter status.
func ValidChapterStatus(s ChapterStatus) bool {
	switch s {
	case ChapterStatusProcessing, ChapterStatusReady, ChapterStatusError:
		return true
	}
	return false
}

// Chapter represents one uploaded audio track of a book.
type Chapter struct {
	Record
	BookID   string        `json:"book_id"`
	Number   int           `json:"number"`
	Title    string        `json:"title"`
	Filename string        `json:"filename"`
	Status   ChapterStatus `json:"status"`

	// StorageKey locates the audio object in the storage backend.
	StorageKey string `json:"storage_key"`

	// Technical properties captured at ingest time.
	Size       int64   `json:"size"`     // bytes
	Duration   float64 `json:"duration"` // seconds
	Bitrate    int     `json:"bitrate,omitempty"`     // kbps
	SampleRate int     `json:"sample_rate,omitempty"` // Hz
	Channels   int     `json:"channels,omitempty"`
	Format     string  `json:"format,omitempty"`
}
