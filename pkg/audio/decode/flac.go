// ABOUTME: FLAC file source
// ABOUTME: Decodes FLAC frames with mewkiz/flac into 24-bit range samples
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

// FLACSource reads from a FLAC file
type FLACSource struct {
	file    *os.File
	stream  *flac.Stream
	format  audio.Format
	loop    bool
	pending []int32 // decoded samples not yet returned
}

// NewFLACSource creates a new FLAC audio source
func NewFLACSource(filePath string, loop bool) (*FLACSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	format := audio.Format{
		Codec:      "flac",
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   int(info.BitsPerSample),
	}
	log.Info("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		titleOf(filePath), format.SampleRate, format.Channels, format.BitDepth)

	return &FLACSource{
		file:   f,
		stream: stream,
		format: format,
		loop:   loop,
	}, nil
}

func (s *FLACSource) Read(samples []int32) (int, error) {
	samplesRead := copy(samples, s.pending)
	s.pending = s.pending[samplesRead:]

	for samplesRead < len(samples) {
		frame, err := s.stream.ParseNext()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return samplesRead, err
			}
			if !s.loop {
				if samplesRead > 0 {
					return samplesRead, nil
				}
				return 0, io.EOF
			}
			if err := s.rewind(); err != nil {
				return samplesRead, err
			}
			continue
		}

		// Interleave the frame, keeping whatever does not fit for the next read.
		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.format.Channels; ch++ {
				sample := audio.ScaleTo24Bit(frame.Subframes[ch].Samples[i], s.format.BitDepth)
				if samplesRead < len(samples) {
					samples[samplesRead] = sample
					samplesRead++
				} else {
					s.pending = append(s.pending, sample)
				}
			}
		}
	}

	return samplesRead, nil
}

func (s *FLACSource) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *FLACSource) Format() audio.Format { return s.format }

func (s *FLACSource) Close() error {
	return s.file.Close()
}
