package service

import (
	"context"
	"log/slog"

	"github.com/vojaudio/voj-server/internal/ingest"
)

// QuickCheckResult is the verdict of the cheap pre-upload check for one file.
type QuickCheckResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// IngestService exposes dry-run validation and series analysis. Nothing here
// touches storage or the database; uploads go through ChapterService.
type IngestService struct {
	validator *ingest.Validator
	logger    *slog.Logger
}

// NewIngestService creates a new ingest service.
func NewIngestService(validator *ingest.Validator, logger *slog.Logger) *IngestService {
	return &IngestService{validator: validator, logger: logger}
}

// ValidateFile runs the full single-file validation without uploading.
func (s *IngestService) ValidateFile(ctx context.Context, f ingest.File) *ingest.Result {
	return s.validator.ValidateFile(ctx, f)
}

// ValidateBatch runs the full validation over an ordered set of files.
func (s *IngestService) ValidateBatch(ctx context.Context, files []ingest.File) *ingest.BatchResult {
	return s.validator.ValidateBatch(ctx, files)
}

// AnalyzeSeries infers per-file chapter metadata and batch-level consistency.
func (s *IngestService) AnalyzeSeries(files []ingest.File) *ingest.SeriesAnalysis {
	return ingest.AnalyzeSeries(files)
}

// QuickCheck runs the synchronous pre-check over each file.
func (s *IngestService) QuickCheck(files []ingest.File) []QuickCheckResult {
	results := make([]QuickCheckResult, 0, len(files))
	for _, f := range files {
		ok, reason := s.validator.QuickCheck(f)
		results = append(results, QuickCheckResult{Name: f.Name(), OK: ok, Reason: reason})
	}
	return results
}
