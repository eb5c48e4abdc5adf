// ABOUTME: Audio source abstraction for playing files or generating test tones
// ABOUTME: Opens MP3, FLAC, Ogg Opus and raw PCM files by extension
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

var log = logging.WithTag("decode")

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Source provides PCM audio samples
type Source interface {
	// Read fills samples with interleaved int32 samples in the 24-bit range
	// and returns how many it wrote. It returns io.EOF when exhausted.
	Read(samples []int32) (int, error)

	// Format describes the decoded audio.
	Format() audio.Format

	// Close releases the underlying file.
	Close() error
}

// Options control how Open builds a source.
type Options struct {
	// Loop restarts the source at end of file instead of returning io.EOF.
	Loop bool

	// Raw describes headerless PCM files (.pcm, .raw). BitDepth is 16 or 24.
	Raw audio.Format
}

// DefaultRawFormat is assumed for raw files when Options.Raw is empty.
var DefaultRawFormat = audio.Format{
	Codec:      "pcm",
	SampleRate: 48000,
	Channels:   2,
	BitDepth:   16,
}

// Open creates a source for path. An empty path yields a test tone.
func Open(path string, opts Options) (Source, error) {
	if path == "" {
		return NewToneSource(DefaultToneFrequency, DefaultRawFormat.SampleRate), nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return NewMP3Source(path, opts.Loop)
	case ".flac":
		return NewFLACSource(path, opts.Loop)
	case ".opus", ".ogg":
		return NewOpusSource(path, opts.Loop)
	case ".pcm", ".raw":
		format := opts.Raw
		if format.SampleRate == 0 {
			format = DefaultRawFormat
		}
		format.Codec = "pcm"
		return NewPCMSource(path, format, opts.Loop)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .opus, .pcm)", ErrUnsupportedFormat, ext)
	}
}

// titleOf extracts a display title from a file name.
func titleOf(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
