// Package ingest validates candidate audio uploads before they are committed
// to storage, and infers chapter metadata from filenames.
//
// Validation is a pre-filter, not the authority: the encoding pipeline
// re-checks everything server-side, so decode failures here degrade to
// warnings rather than rejections. All operations are pure functions of
// their inputs; there is no caching and no cross-call state.
package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types accepted by the strict (asynchronous) check. The upload
// pipeline only takes MPEG-4 audio containers.
var acceptedMIMETypes = map[string]bool{
	"audio/mp4":   true,
	"audio/m4a":   true,
	"audio/x-m4a": true,
}

// Additional MIME types tolerated by QuickCheck for responsiveness at
// file-selection time. The strict check narrows this again before upload.
var quickCheckMIMETypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/wav":    true,
	"audio/wave":   true,
	"audio/x-wav":  true,
	"audio/flac":   true,
	"audio/x-flac": true,
}

// Characters that common filesystems reserve in filenames.
const forbiddenFilenameChars = `<>:"/\|?*`

const headerReadSize = 512

const metadataWarning = "could not extract audio metadata; server-side processing will retry"
const headerError = "invalid file header: file may be corrupted or in an unsupported format"

// Validator applies the upload acceptance policy to candidate files.
type Validator struct {
	opts      Options
	extractor Extractor
}

// NewValidator creates a validator with the given policy. A nil extractor is
// allowed: metadata checks are then skipped with a warning, matching the
// behavior of an unavailable decoder.
func NewValidator(opts Options, extractor Extractor) *Validator {
	return &Validator{
		opts:      opts.withDefaults(),
		extractor: extractor,
	}
}

// ValidateFile runs the full acceptance policy against one file.
//
// The cheap checks (extension, size, MIME, filename) all run and accumulate
// errors; if any of them failed, the expensive header and decode stages are
// skipped entirely and the file is rejected as-is.
func (v *Validator) ValidateFile(ctx context.Context, f File) *Result {
	res := newResult()

	v.checkExtension(f, res)
	v.checkSize(f, res)
	v.checkMIME(f, res)
	v.checkFilename(f, res)

	if len(res.Errors) > 0 {
		return res.finish()
	}

	header, ok := v.checkHeader(f, res)
	if ok {
		v.sniffContentType(f, header, res)
	}

	v.checkMetadata(ctx, f, res)

	return res.finish()
}

// checkExtension verifies the filename extension against the allow-list.
// The extension is everything after the final dot, compared case-insensitively.
// Surrounding whitespace is trimmed first so a trailing space after the
// extension stays a filename warning rather than a format error.
func (v *Validator) checkExtension(f File, res *Result) {
	name := strings.TrimSpace(f.Name())
	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i:])
	}

	for _, allowed := range v.opts.AllowedFormats {
		if ext == strings.ToLower(allowed) {
			return
		}
	}
	res.errorf("unsupported file format %q (allowed: %s)", ext, strings.Join(v.opts.AllowedFormats, ", "))
}

func (v *Validator) checkSize(f File, res *Result) {
	size := f.Size()
	if size > v.opts.MaxFileSize {
		res.errorf("file too large: %.2f MiB exceeds the %.0f MiB limit",
			float64(size)/(1<<20), float64(v.opts.MaxFileSize)/(1<<20))
	}
	if size < minPlausibleSize {
		res.errorf("file too small to be a valid audio file")
	}
}

func (v *Validator) checkMIME(f File, res *Result) {
	if !acceptedMIMETypes[f.ContentType()] {
		res.errorf("unsupported content type %q", f.ContentType())
	}
}

// checkFilename rejects names that common filesystems reserve or that look
// like path traversal. Surrounding whitespace is only worth a warning since
// the server trims it anyway.
func (v *Validator) checkFilename(f File, res *Result) {
	name := f.Name()

	if strings.ContainsAny(name, forbiddenFilenameChars) {
		res.errorf("filename contains reserved characters (%s)", forbiddenFilenameChars)
	}
	if strings.Contains(name, "..") {
		res.errorf("filename must not contain %q", "..")
	}
	if utf8.RuneCountInString(name) > maxFilenameLength {
		res.errorf("filename exceeds %d characters", maxFilenameLength)
	}
	if name != strings.TrimSpace(name) {
		res.warnf("filename has leading or trailing whitespace and will be trimmed")
	}
}

// checkHeader reads the leading bytes and verifies the magic number. Files
// starting with an ID3 tag are accepted without scanning the frames that
// follow it; otherwise the ISO base media "ftyp" signature at bytes 4-7 is
// required. A read failure degrades to the same rejection: the caller only
// needs a displayable reason, not the I/O detail.
func (v *Validator) checkHeader(f File, res *Result) ([]byte, bool) {
	rc, err := f.Open()
	if err != nil {
		res.Errors = append(res.Errors, headerError)
		return nil, false
	}
	defer rc.Close()

	buf := make([]byte, headerReadSize)
	n, err := io.ReadFull(rc, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		res.Errors = append(res.Errors, headerError)
		return nil, false
	}
	buf = buf[:n]

	if len(buf) >= 3 && string(buf[:3]) == "ID3" {
		return buf, true
	}
	if len(buf) >= 8 && string(buf[4:8]) == "ftyp" {
		return buf, true
	}

	res.Errors = append(res.Errors, headerError)
	return buf, false
}

// sniffContentType compares the declared MIME type with what the content
// actually looks like. A mismatch is advisory only; the header check already
// guarantees a plausible container.
func (v *Validator) sniffContentType(f File, header []byte, res *Result) {
	detected := mimetype.Detect(header)
	declared := f.ContentType()
	if detected.Is(declared) {
		return
	}
	// The MPEG-4 audio aliases all name the same container; detection
	// reporting audio/x-m4a for a declared audio/mp4 is not a mismatch.
	if acceptedMIMETypes[declared] && acceptedMIMETypes[detected.String()] {
		return
	}
	// mimetype reports the most specific type; walk up the parent chain so
	// a generic declared type is not a false positive either.
	for p := detected.Parent(); p != nil; p = p.Parent() {
		if p.Is(declared) {
			return
		}
	}
	res.warnf("declared content type %q does not match detected %q", declared, detected.String())
}

// checkMetadata decodes the file and applies the duration, sample rate,
// channel, and bitrate policy. Decode failures never reject the file.
func (v *Validator) checkMetadata(ctx context.Context, f File, res *Result) {
	if v.extractor == nil {
		res.warnf(metadataWarning)
		return
	}

	info, err := v.extractor.Extract(ctx, f)
	if err != nil || info == nil {
		res.warnf(metadataWarning)
		return
	}
	res.Info = info

	if info.Duration < v.opts.MinDuration {
		res.errorf("audio too short: %.1fs is under the %.0fs minimum", info.Duration, v.opts.MinDuration)
	}
	if info.Duration > v.opts.MaxDuration {
		res.errorf("audio too long: %.1f hours exceeds the %.1f hour maximum",
			info.Duration/3600, v.opts.MaxDuration/3600)
	} else if info.Duration > 3600 {
		res.warnf("audio is over an hour long; the upload may take a while")
	}

	if info.SampleRate > 0 && !containsInt(v.opts.AllowedSampleRates, info.SampleRate) {
		res.warnf("non-standard sample rate: %d Hz", info.SampleRate)
	}

	if v.opts.RequireMono && info.Channels > 1 {
		res.warnf("audio has %d channels and will be converted to mono", info.Channels)
	}

	if info.Bitrate > 0 {
		if info.Bitrate < v.opts.MinBitrate {
			res.warnf("low bitrate: %d kbps (minimum recommended: %d kbps)", info.Bitrate, v.opts.MinBitrate)
		} else if info.Bitrate > v.opts.MaxBitrate {
			res.warnf("high bitrate: %d kbps (maximum recommended: %d kbps)", info.Bitrate, v.opts.MaxBitrate)
		}
	}
}

// ValidateBatch validates files strictly in order, one file fully validated
// before the next begins, and partitions them preserving input order.
func (v *Validator) ValidateBatch(ctx context.Context, files []File) *BatchResult {
	batch := &BatchResult{
		Valid:   []File{},
		Invalid: []FileResult{},
	}

	var totalDuration float64
	haveDuration := false

	for _, f := range files {
		res := v.ValidateFile(ctx, f)
		if !res.Valid {
			batch.Invalid = append(batch.Invalid, FileResult{File: f, Name: f.Name(), Result: res})
			continue
		}

		batch.Valid = append(batch.Valid, f)
		batch.TotalSize += f.Size()
		if res.Info != nil && res.Info.Duration > 0 {
			totalDuration += res.Info.Duration
			haveDuration = true
		}
	}

	if haveDuration {
		batch.TotalDuration = &totalDuration
	}
	return batch
}

// QuickCheck is the cheap synchronous pre-check run at file-selection time,
// before any bytes are read: size bounds, a broader MIME allow-list, and the
// filename safety check. It returns at most one reason.
func (v *Validator) QuickCheck(f File) (bool, string) {
	if f.Size() > v.opts.MaxFileSize {
		return false, "file too large"
	}
	if f.Size() < minPlausibleSize {
		return false, "file too small to be a valid audio file"
	}

	mime := f.ContentType()
	if !acceptedMIMETypes[mime] && !quickCheckMIMETypes[mime] {
		return false, "unsupported content type"
	}

	name := f.Name()
	if strings.ContainsAny(name, forbiddenFilenameChars) || strings.Contains(name, "..") {
		return false, "unsafe filename"
	}

	return true, ""
}

func containsInt(haystack []int, needle int) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
