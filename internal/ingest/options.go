package ingest

// Default validation policy. These mirror the platform's upload constraints:
// the encoding pipeline only accepts MPEG-4 audio containers, and anything
// under a kilobyte is never a real recording.
const (
	defaultMaxFileSize = 100 << 20 // 100 MiB
	defaultMinDuration = 10.0      // seconds
	defaultMaxDuration = 4 * 3600.0
	defaultMinBitrate  = 32  // kbps
	defaultMaxBitrate  = 320 // kbps

	// minPlausibleSize is the hard lower bound on file size. Files below this
	// are rejected outright rather than warned about.
	minPlausibleSize = 1024

	// maxFilenameLength matches the limit common filesystems place on a
	// single path component.
	maxFilenameLength = 255
)

// Options configures the ingestion validator. The zero value is usable: any
// unset field falls back to the documented default.
type Options struct {
	// MaxFileSize is the maximum accepted file size in bytes.
	MaxFileSize int64
	// MinDuration and MaxDuration bound the decoded duration in seconds.
	MinDuration float64
	MaxDuration float64
	// AllowedFormats lists accepted filename extensions, including the dot.
	AllowedFormats []string
	// MinBitrate and MaxBitrate bound the encoded bitrate in kbps. Files
	// outside the range are flagged with a warning, not rejected.
	MinBitrate int
	MaxBitrate int
	// AllowedSampleRates lists sample rates that pass without a warning.
	AllowedSampleRates []int
	// RequireMono flags stereo files with a conversion warning.
	RequireMono bool
}

// DefaultOptions returns the standard upload policy.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

// withDefaults fills unset fields with the documented defaults.
func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.MinDuration <= 0 {
		o.MinDuration = defaultMinDuration
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = defaultMaxDuration
	}
	if len(o.AllowedFormats) == 0 {
		o.AllowedFormats = []string{".mp4", ".m4a"}
	}
	if o.MinBitrate <= 0 {
		o.MinBitrate = defaultMinBitrate
	}
	if o.MaxBitrate <= 0 {
		o.MaxBitrate = defaultMaxBitrate
	}
	if len(o.AllowedSampleRates) == 0 {
		o.AllowedSampleRates = []int{8000, 11025, 16000, 22050, 44100, 48000}
	}
	return o
}
