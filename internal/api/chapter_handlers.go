package api

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vojaudio/voj-server/internal/domain"
	"github.com/vojaudio/voj-server/internal/http/response"
	"github.com/vojaudio/voj-server/internal/ingest"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing; larger
// uploads spill to temp files.
const multipartMemoryLimit = 32 << 20

// uploadFile adapts a multipart file header to the ingest file interface.
type uploadFile struct {
	header *multipart.FileHeader
}

func (f *uploadFile) Name() string        { return f.header.Filename }
func (f *uploadFile) Size() int64         { return f.header.Size }
func (f *uploadFile) ContentType() string { return f.header.Header.Get("Content-Type") }

func (f *uploadFile) Open() (io.ReadCloser, error) {
	return f.header.Open()
}

// ChapterUploadResponse pairs the created chapter with the validation
// verdict, including any advisory warnings.
type ChapterUploadResponse struct {
	Chapter    *domain.Chapter `json:"chapter"`
	Validation *ingest.Result  `json:"validation"`
}

// ReorderChaptersRequest is the request body for chapter reordering.
type ReorderChaptersRequest struct {
	ChapterIDs []string `json:"chapter_ids" validate:"required,min=1,dive,required"`
}

// handleUploadChapter accepts one audio file in the "file" multipart field,
// validates it, and creates the chapter.
func (s *Server) handleUploadChapter(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	_, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger)
		return
	}

	chapter, result, err := s.services.Chapter.Upload(r.Context(), bookID, &uploadFile{header: header})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, ChapterUploadResponse{Chapter: chapter, Validation: result}, s.logger)
}

// handleListChapters returns a book's chapters in playback order.
func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	status := domain.ChapterStatus(r.URL.Query().Get("status"))
	if status != "" && !domain.ValidChapterStatus(status) {
		response.BadRequest(w, "Unknown chapter status", s.logger)
		return
	}

	chapters, err := s.services.Chapter.ListChapters(r.Context(), bookID, status)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, chapters, s.logger)
}

// handleGetChapter returns a single chapter.
func (s *Server) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	chapterID := chi.URLParam(r, "chapterID")
	if bookID == "" || chapterID == "" {
		response.BadRequest(w, "Book ID and chapter ID are required", s.logger)
		return
	}

	chapter, err := s.services.Chapter.GetChapter(r.Context(), bookID, chapterID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, chapter, s.logger)
}

// handleDeleteChapter removes a chapter and its audio object.
func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	chapterID := chi.URLParam(r, "chapterID")
	if bookID == "" || chapterID == "" {
		response.BadRequest(w, "Book ID and chapter ID are required", s.logger)
		return
	}

	if err := s.services.Chapter.DeleteChapter(r.Context(), bookID, chapterID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	s.logger.Info("chapter deleted", "id", chapterID, "book_id", bookID, "admin", getUsername(r.Context()))
	response.NoContent(w)
}

// handleReorderChapters renumbers a book's chapters to the given order.
func (s *Server) handleReorderChapters(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	var req ReorderChaptersRequest
	if err := s.decodeBody(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	chapters, err := s.services.Chapter.ReorderChapters(r.Context(), bookID, req.ChapterIDs)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, chapters, s.logger)
}

// handleChapterStreamURL issues a streaming URL for a chapter's audio.
func (s *Server) handleChapterStreamURL(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	chapterID := chi.URLParam(r, "chapterID")
	if bookID == "" || chapterID == "" {
		response.BadRequest(w, "Book ID and chapter ID are required", s.logger)
		return
	}

	info, err := s.services.Chapter.StreamURL(r.Context(), bookID, chapterID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, info, s.logger)
}
