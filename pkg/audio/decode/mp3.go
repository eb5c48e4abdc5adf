// ABOUTME: MP3 file source
// ABOUTME: Decodes MP3 to int32 samples with go-mp3, optionally looping
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

// MP3Source reads from an MP3 file
type MP3Source struct {
	file    *os.File
	decoder *mp3.Decoder
	format  audio.Format
	loop    bool
	buf     []byte
}

// NewMP3Source creates a new MP3 audio source
func NewMP3Source(filePath string, loop bool) (*MP3Source, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	format := audio.Format{
		Codec:      "mp3",
		SampleRate: decoder.SampleRate(),
		Channels:   2, // go-mp3 always outputs stereo
		BitDepth:   16,
	}
	log.Info("Loaded MP3: %s (sample rate: %d Hz)", titleOf(filePath), format.SampleRate)

	return &MP3Source{
		file:    f,
		decoder: decoder,
		format:  format,
		loop:    loop,
	}, nil
}

func (s *MP3Source) Read(samples []int32) (int, error) {
	// go-mp3 emits int16 = 2 bytes per sample
	numBytes := len(samples) * 2
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := s.decoder.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(buf[i*2:])))
	}

	if errors.Is(err, io.EOF) {
		if !s.loop {
			if numSamples > 0 {
				return numSamples, nil
			}
			return 0, io.EOF
		}
		if err := s.rewind(); err != nil {
			return numSamples, err
		}
	}

	return numSamples, nil
}

func (s *MP3Source) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3Source) Format() audio.Format { return s.format }

func (s *MP3Source) Close() error {
	return s.file.Close()
}
