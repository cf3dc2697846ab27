package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// m4aFile fabricates a plausible MPEG-4 audio file of the given size.
func m4aFile(name string, size int) *MemFile {
	data := make([]byte, size)
	copy(data[4:], "ftypM4A ")
	return &MemFile{FileName: name, MIME: "audio/mp4", Data: data}
}

// mp3File fabricates a file with an ID3 prefix followed by garbage.
func mp3File(name string, size int) *MemFile {
	data := make([]byte, size)
	copy(data, "ID3")
	for i := 3; i < size; i++ {
		data[i] = byte(i * 31)
	}
	return &MemFile{FileName: name, MIME: "audio/mp4", Data: data}
}

func stubExtractor(info *TrackInfo, err error) Extractor {
	return ExtractorFunc(func(context.Context, File) (*TrackInfo, error) {
		return info, err
	})
}

func goodTrack() *TrackInfo {
	return &TrackInfo{Duration: 300, Bitrate: 128, SampleRate: 44100, Channels: 1, Format: "mov"}
}

func TestValidateFile_CleanFilePasses(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	res := v.ValidateFile(t.Context(), m4aFile("chapter1.m4a", 4096))

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	// A genuine M4A declared as audio/mp4 must not trip the content
	// sniffing mismatch warning.
	assert.Empty(t, res.Warnings)
	require.NotNil(t, res.Info)
	assert.InDelta(t, 300.0, res.Info.Duration, 0.001)
}

func TestValidateFile_SizeBounds(t *testing.T) {
	v := NewValidator(Options{MaxFileSize: 8192}, stubExtractor(goodTrack(), nil))

	tests := []struct {
		name string
		size int
	}{
		{name: "below minimum", size: 512},
		{name: "above maximum", size: 16384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateFile(t.Context(), m4aFile("chapter1.m4a", tt.size))
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestValidateFile_ExtensionRejected(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	f := m4aFile("chapter1.ogg", 4096)
	res := v.ValidateFile(t.Context(), f)

	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], ".ogg")
}

func TestValidateFile_ExtensionCaseInsensitive(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	res := v.ValidateFile(t.Context(), m4aFile("CHAPTER1.M4A", 4096))
	assert.True(t, res.Valid)
}

func TestValidateFile_MIMERejected(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	f := m4aFile("chapter1.m4a", 4096)
	f.MIME = "video/mp4"
	res := v.ValidateFile(t.Context(), f)

	assert.False(t, res.Valid)
}

func TestValidateFile_UnsafeFilenames(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	tests := []struct {
		name     string
		filename string
	}{
		{name: "question mark", filename: "what?.m4a"},
		{name: "path traversal", filename: "..secret.m4a"},
		{name: "backslash", filename: `dir\chapter.m4a`},
		{name: "angle bracket", filename: "<chapter>.m4a"},
		{name: "overlong", filename: strings.Repeat("a", 300) + ".m4a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateFile(t.Context(), m4aFile(tt.filename, 4096))
			// Always an error, never merely a warning.
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestValidateFile_WhitespaceFilenameWarnsOnly(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	res := v.ValidateFile(t.Context(), m4aFile(" chapter1.m4a ", 4096))

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.NotEmpty(t, res.Warnings)

	// Trailing whitespace alone must not read as part of the extension.
	res = v.ValidateFile(t.Context(), m4aFile("chapter1.m4a ", 4096))
	assert.True(t, res.Valid)
	assert.NotEmpty(t, res.Warnings)
}

func TestValidateFile_CheapFailureSkipsDecode(t *testing.T) {
	called := false
	v := NewValidator(Options{}, ExtractorFunc(func(context.Context, File) (*TrackInfo, error) {
		called = true
		return goodTrack(), nil
	}))

	res := v.ValidateFile(t.Context(), m4aFile("chapter1.ogg", 4096))

	assert.False(t, res.Valid)
	assert.False(t, called, "decode must not run after a cheap check failed")
}

func TestValidateFile_HeaderID3Accepted(t *testing.T) {
	// ID3 prefix is enough even when the following frames are garbage.
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	res := v.ValidateFile(t.Context(), mp3File("chapter1.m4a", 4096))
	assert.True(t, res.Valid)
}

func TestValidateFile_HeaderRejected(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	data := make([]byte, 4096)
	for i := range data {
		data[i] = 0xAB
	}
	f := &MemFile{FileName: "chapter1.m4a", MIME: "audio/mp4", Data: data}

	res := v.ValidateFile(t.Context(), f)

	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Errors[0], "header")
}

type unreadableFile struct{ *MemFile }

func (f unreadableFile) Open() (io.ReadCloser, error) {
	return nil, errors.New("disk on fire")
}

func TestValidateFile_HeaderReadFailureDegrades(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	res := v.ValidateFile(t.Context(), unreadableFile{m4aFile("chapter1.m4a", 4096)})

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "header")
}

func TestValidateFile_DecodeFailureWarnsOnly(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(nil, errors.New("unsupported codec")))

	res := v.ValidateFile(t.Context(), m4aFile("chapter1.m4a", 4096))

	assert.True(t, res.Valid)
	assert.NotEmpty(t, res.Warnings)
	assert.Nil(t, res.Info)
}

func TestValidateFile_DurationPolicy(t *testing.T) {
	tests := []struct {
		name      string
		duration  float64
		wantValid bool
	}{
		{name: "too short", duration: 3, wantValid: false},
		{name: "too long", duration: 5 * 3600, wantValid: false},
		{name: "in range", duration: 1800, wantValid: true},
		{name: "over an hour warns but passes", duration: 2 * 3600, wantValid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := goodTrack()
			info.Duration = tt.duration
			v := NewValidator(Options{}, stubExtractor(info, nil))

			res := v.ValidateFile(t.Context(), m4aFile("chapter1.m4a", 4096))
			assert.Equal(t, tt.wantValid, res.Valid)
		})
	}
}

func TestValidateFile_AdvisoryWarnings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TrackInfo)
		opts   Options
		want   string
	}{
		{
			name:   "odd sample rate",
			mutate: func(i *TrackInfo) { i.SampleRate = 12345 },
			want:   "sample rate",
		},
		{
			name:   "stereo when mono required",
			mutate: func(i *TrackInfo) { i.Channels = 2 },
			opts:   Options{RequireMono: true},
			want:   "mono",
		},
		{
			name:   "low bitrate",
			mutate: func(i *TrackInfo) { i.Bitrate = 16 },
			want:   "low bitrate",
		},
		{
			name:   "high bitrate",
			mutate: func(i *TrackInfo) { i.Bitrate = 512 },
			want:   "high bitrate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := goodTrack()
			tt.mutate(info)
			v := NewValidator(tt.opts, stubExtractor(info, nil))

			res := v.ValidateFile(t.Context(), m4aFile("chapter1.m4a", 4096))

			// Advisory only: the file still passes.
			assert.True(t, res.Valid)
			found := false
			for _, w := range res.Warnings {
				if strings.Contains(w, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a warning containing %q, got %v", tt.want, res.Warnings)
		})
	}
}

func TestValidateFile_Idempotent(t *testing.T) {
	v := NewValidator(Options{RequireMono: true}, stubExtractor(&TrackInfo{
		Duration: 2 * 3600, SampleRate: 12345, Channels: 2,
	}, nil))
	f := m4aFile(" chapter1.m4a", 4096)

	first := v.ValidateFile(t.Context(), f)
	second := v.ValidateFile(t.Context(), f)

	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Errors, second.Errors)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestValidateBatch_PartitionsInOrder(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	files := []File{
		m4aFile("01.m4a", 4096),
		m4aFile("bad.ogg", 4096),
		m4aFile("02.m4a", 8192),
		m4aFile("tiny.m4a", 100),
	}

	batch := v.ValidateBatch(t.Context(), files)

	require.Len(t, batch.Valid, 2)
	assert.Equal(t, "01.m4a", batch.Valid[0].Name())
	assert.Equal(t, "02.m4a", batch.Valid[1].Name())

	require.Len(t, batch.Invalid, 2)
	assert.Equal(t, "bad.ogg", batch.Invalid[0].Name)
	assert.Equal(t, "tiny.m4a", batch.Invalid[1].Name)

	// Only accepted files count toward the totals.
	assert.Equal(t, int64(4096+8192), batch.TotalSize)
	require.NotNil(t, batch.TotalDuration)
	assert.InDelta(t, 600.0, *batch.TotalDuration, 0.001)
}

func TestValidateBatch_NoValidFiles(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(goodTrack(), nil))

	batch := v.ValidateBatch(t.Context(), []File{m4aFile("bad.ogg", 4096)})

	assert.Empty(t, batch.Valid)
	assert.Equal(t, int64(0), batch.TotalSize)
	// Duration is undefined, not zero, when no sample exists.
	assert.Nil(t, batch.TotalDuration)
}

func TestValidateBatch_DurationAbsentWhenDecodeFails(t *testing.T) {
	v := NewValidator(Options{}, stubExtractor(nil, errors.New("no decoder")))

	batch := v.ValidateBatch(t.Context(), []File{m4aFile("01.m4a", 4096)})

	require.Len(t, batch.Valid, 1)
	assert.Equal(t, int64(4096), batch.TotalSize)
	assert.Nil(t, batch.TotalDuration)
}

func TestQuickCheck(t *testing.T) {
	v := NewValidator(Options{MaxFileSize: 1 << 20}, nil)

	tests := []struct {
		name   string
		file   *MemFile
		wantOK bool
	}{
		{
			name:   "clean m4a",
			file:   m4aFile("chapter1.m4a", 4096),
			wantOK: true,
		},
		{
			name:   "generic mp3 MIME tolerated before the strict check",
			file:   &MemFile{FileName: "chapter1.mp3", MIME: "audio/mpeg", Data: make([]byte, 4096)},
			wantOK: true,
		},
		{
			name:   "too large",
			file:   m4aFile("chapter1.m4a", 2<<20),
			wantOK: false,
		},
		{
			name:   "too small",
			file:   m4aFile("chapter1.m4a", 100),
			wantOK: false,
		},
		{
			name:   "unknown MIME",
			file:   &MemFile{FileName: "chapter1.m4a", MIME: "application/zip", Data: make([]byte, 4096)},
			wantOK: false,
		},
		{
			name:   "traversal filename",
			file:   &MemFile{FileName: "..chapter.m4a", MIME: "audio/mp4", Data: make([]byte, 4096)},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := v.QuickCheck(tt.file)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.NotEmpty(t, reason)
			} else {
				assert.Empty(t, reason)
			}
		})
	}
}
