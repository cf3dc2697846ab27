package ingest

import "fmt"

// TrackInfo holds technical metadata extracted from a decoded audio file.
type TrackInfo struct {
	// Duration is the decoded duration in seconds.
	Duration float64 `json:"duration"`
	// Bitrate is the encoded bitrate in kbps, 0 if unknown.
	Bitrate int `json:"bitrate,omitempty"`
	// SampleRate in Hz, 0 if unknown.
	SampleRate int `json:"sample_rate,omitempty"`
	// Channels is the channel count, 0 if unknown.
	Channels int `json:"channels,omitempty"`
	// Format is the container format name reported by the decoder.
	Format string `json:"format,omitempty"`
}

// Result is the outcome of validating a single file.
//
// Invariant: Valid is true if and only if Errors is empty. Warnings are
// advisory and never block an upload.
type Result struct {
	Valid    bool       `json:"valid"`
	Errors   []string   `json:"errors"`
	Warnings []string   `json:"warnings"`
	Info     *TrackInfo `json:"info,omitempty"`
}

func newResult() *Result {
	return &Result{
		Errors:   []string{},
		Warnings: []string{},
	}
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// finish sets the verdict from the accumulated errors.
func (r *Result) finish() *Result {
	r.Valid = len(r.Errors) == 0
	return r
}

// FileResult pairs a rejected file with its individual result.
type FileResult struct {
	File   File    `json:"-"`
	Name   string  `json:"name"`
	Result *Result `json:"result"`
}

// BatchResult is the outcome of validating an ordered sequence of files.
//
// TotalSize and TotalDuration cover accepted files only: they estimate the
// cost of what will actually be uploaded. TotalDuration is nil, not zero,
// when no accepted file yielded a decodable duration.
type BatchResult struct {
	Valid         []File       `json:"-"`
	Invalid       []FileResult `json:"invalid"`
	TotalSize     int64        `json:"total_size"`
	TotalDuration *float64     `json:"total_duration,omitempty"`
}
