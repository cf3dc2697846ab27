package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/vojaudio/voj-server/internal/http/response"
	"github.com/vojaudio/voj-server/internal/ingest"
)

// FileDescriptor describes a candidate file without its content, for checks
// that never read bytes.
type FileDescriptor struct {
	Name        string `json:"name" validate:"required,max=255"`
	Size        int64  `json:"size" validate:"min=0"`
	ContentType string `json:"content_type" validate:"max=100"`
}

// descriptorFile adapts a FileDescriptor to the ingest file interface.
// Opening it yields no content.
type descriptorFile struct {
	desc FileDescriptor
}

func (f *descriptorFile) Name() string        { return f.desc.Name }
func (f *descriptorFile) Size() int64         { return f.desc.Size }
func (f *descriptorFile) ContentType() string { return f.desc.ContentType }

func (f *descriptorFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

// FileDescriptorsRequest is the request body for metadata-only checks.
type FileDescriptorsRequest struct {
	Files []FileDescriptor `json:"files" validate:"required,min=1,max=500,dive"`
}

// BatchValidationResponse is the dry-run verdict for an upload batch.
type BatchValidationResponse struct {
	Accepted []string               `json:"accepted"`
	Invalid  []ingest.FileResult    `json:"invalid"`
	Batch    *ingest.BatchResult    `json:"batch"`
	Series   *ingest.SeriesAnalysis `json:"series"`
}

// handleValidateFiles runs full validation over multipart files without
// uploading anything. Files go in repeated "files" fields.
func (s *Server) handleValidateFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.BadRequest(w, "Failed to parse form data", s.logger)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		response.BadRequest(w, "No files uploaded. Use repeated 'files' fields in multipart form", s.logger)
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, h := range headers {
		files = append(files, &uploadFile{header: h})
	}

	batch := s.services.Ingest.ValidateBatch(r.Context(), files)

	accepted := make([]string, 0, len(batch.Valid))
	for _, f := range batch.Valid {
		accepted = append(accepted, f.Name())
	}

	response.Success(w, BatchValidationResponse{
		Accepted: accepted,
		Invalid:  batch.Invalid,
		Batch:    batch,
		Series:   s.services.Ingest.AnalyzeSeries(batch.Valid),
	}, s.logger)
}

// handleAnalyzeSeries infers chapter metadata from filenames alone.
func (s *Server) handleAnalyzeSeries(w http.ResponseWriter, r *http.Request) {
	var req FileDescriptorsRequest
	if err := s.decodeBody(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	files := make([]ingest.File, 0, len(req.Files))
	for _, desc := range req.Files {
		files = append(files, &descriptorFile{desc: desc})
	}

	response.Success(w, s.services.Ingest.AnalyzeSeries(files), s.logger)
}

// handleQuickCheck runs the cheap pre-upload check over file metadata.
func (s *Server) handleQuickCheck(w http.ResponseWriter, r *http.Request) {
	var req FileDescriptorsRequest
	if err := s.decodeBody(r, &req); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	files := make([]ingest.File, 0, len(req.Files))
	for _, desc := range req.Files {
		files = append(files, &descriptorFile{desc: desc})
	}

	response.Success(w, s.services.Ingest.QuickCheck(files), s.logger)
}
