package ingest

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// FFprobeExtractor decodes audio metadata by shelling out to ffprobe.
// The decode suspends the calling goroutine until ffprobe completes; any
// deadline comes from the caller's context.
type FFprobeExtractor struct {
	// BinaryPath overrides the ffprobe location. Empty means $PATH lookup.
	BinaryPath string
}

// NewFFprobeExtractor creates an ffprobe-backed extractor.
func NewFFprobeExtractor() *FFprobeExtractor {
	return &FFprobeExtractor{}
}

// Extract implements Extractor. The file content is staged to a temp file
// since ffprobe needs a seekable input.
func (e *FFprobeExtractor) Extract(ctx context.Context, f File) (*TrackInfo, error) {
	path, cleanup, err := stageTempFile(f)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	bin := e.BinaryPath
	if bin == "" {
		bin = "ffprobe"
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed ffprobeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	return probed.trackInfo(), nil
}

// stageTempFile copies the file content to disk and returns its path plus a
// cleanup func.
func stageTempFile(f File) (string, func(), error) {
	rc, err := f.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open file: %w", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "ingest-probe-*"+filepath.Ext(f.Name()))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("stage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

// ffprobe JSON output structures. Numeric fields arrive as strings.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// trackInfo converts raw ffprobe output into a TrackInfo.
func (o *ffprobeOutput) trackInfo() *TrackInfo {
	info := &TrackInfo{}

	if o.Format.FormatName != "" {
		// First name of e.g. "mov,mp4,m4a,3gp,3g2,mj2".
		info.Format = strings.Split(o.Format.FormatName, ",")[0]
	}
	if d, err := strconv.ParseFloat(o.Format.Duration, 64); err == nil {
		info.Duration = d
	}
	if br, err := strconv.Atoi(o.Format.BitRate); err == nil {
		info.Bitrate = br / 1000
	}

	for _, s := range o.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if sr, err := strconv.Atoi(s.SampleRate); err == nil {
			info.SampleRate = sr
		}
		info.Channels = s.Channels
		break
	}

	return info
}
