package ingest

import "context"

// Extractor is the audio-decode capability the validator consumes. Given a
// candidate file it produces technical metadata, or fails with a decode
// error. There is no guarantee about which codecs succeed; a failure is
// never fatal to validation.
type Extractor interface {
	Extract(ctx context.Context, f File) (*TrackInfo, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, f File) (*TrackInfo, error)

// Extract implements Extractor.
func (fn ExtractorFunc) Extract(ctx context.Context, f File) (*TrackInfo, error) {
	return fn(ctx, f)
}
