package ingest

import (
	"bytes"
	"io"
)

// File is the byte-access capability the validator consumes. It describes a
// candidate upload without owning it: implementations are never mutated by
// validation, and Open may be called more than once.
type File interface {
	// Name returns the client-supplied filename, untrimmed.
	Name() string
	// Size returns the file size in bytes.
	Size() int64
	// ContentType returns the declared MIME type.
	ContentType() string
	// Open returns a reader over the file content.
	Open() (io.ReadCloser, error)
}

// MemFile is an in-memory File. The API layer uses it for small buffered
// uploads and tests use it to fabricate candidates.
type MemFile struct {
	FileName string
	MIME     string
	Data     []byte
}

// Name implements File.
func (f *MemFile) Name() string { return f.FileName }

// Size implements File.
func (f *MemFile) Size() int64 { return int64(len(f.Data)) }

// ContentType implements File.
func (f *MemFile) ContentType() string { return f.MIME }

// Open implements File.
func (f *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}
