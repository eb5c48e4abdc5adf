// ABOUTME: Tests for source selection and the test tone
// ABOUTME: Covers Open by extension, missing files and tone generation
package decode

import (
	"errors"
	"testing"
)

func TestOpenEmptyPathIsTone(t *testing.T) {
	src, err := Open("", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.Format().Codec != "tone" {
		t.Errorf("expected tone source, got %v", src.Format())
	}
}

func TestOpenUnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "track.wma", []byte{0})
	_, err := Open(path, Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/track.mp3", Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOpenRawUsesOptions(t *testing.T) {
	path := writeTempFile(t, "mono.pcm", make([]byte, 12))
	src, err := Open(path, Options{Raw: DefaultRawFormat})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	raw := DefaultRawFormat
	raw.Channels = 1
	raw.BitDepth = 24
	src2, err := Open(path, Options{Raw: raw})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src2.Close()

	if got := src2.Format(); got.Channels != 1 || got.BitDepth != 24 || got.Codec != "pcm" {
		t.Errorf("unexpected format %v", got)
	}
}

func TestOpenRejectsCorruptFLAC(t *testing.T) {
	path := writeTempFile(t, "bad.flac", []byte("not a flac stream"))
	if _, err := Open(path, Options{}); err == nil {
		t.Error("expected error for corrupt FLAC")
	}
}

func TestOpenRejectsOggWithoutOpusHead(t *testing.T) {
	path := writeTempFile(t, "bad.opus", []byte("OggS but no head"))
	if _, err := Open(path, Options{}); err == nil {
		t.Error("expected error for missing OpusHead")
	}
}

func TestToneSource(t *testing.T) {
	src := NewToneSource(DefaultToneFrequency, 48000)

	samples := make([]int32, 96)
	n, err := src.Read(samples)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 96 {
		t.Fatalf("expected 96 samples, got %d", n)
	}
	if samples[0] != 0 {
		t.Errorf("expected tone to start at zero, got %d", samples[0])
	}
	for i := 0; i < n; i += 2 {
		if samples[i] != samples[i+1] {
			t.Fatalf("frame %d: channels differ", i/2)
		}
	}

	// Quarter period of 440Hz at 48kHz is ~27 frames; the peak stays at half scale.
	peak := int32(0)
	for _, s := range samples {
		peak = max(peak, s)
	}
	if peak <= 0 || peak > 8388607/2+1 {
		t.Errorf("unexpected peak %d", peak)
	}
}

func TestParseOpusChannels(t *testing.T) {
	head := append([]byte("OggS-page-header-bytes"), []byte("OpusHead\x01\x02\x38\x01")...)
	channels, err := parseOpusChannels(head)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if channels != 2 {
		t.Errorf("expected 2 channels, got %d", channels)
	}

	if _, err := parseOpusChannels([]byte("OpusHead\x01")); err == nil {
		t.Error("expected error for truncated head")
	}
	if _, err := parseOpusChannels([]byte("OpusHead\x01\x00")); err == nil {
		t.Error("expected error for zero channels")
	}
}
