// ABOUTME: PCM audio decoder and raw PCM file source
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM to int32 samples
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// BytesPerSample returns the encoded size of one sample.
func (d *PCMDecoder) BytesPerSample() int {
	return d.bitDepth / 8
}

// Decode converts PCM bytes to int32 samples
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	samples := make([]int32, len(data)/d.BytesPerSample())
	d.DecodeInto(samples, data)
	return samples, nil
}

// DecodeInto converts PCM bytes into dst and returns the samples written.
func (d *PCMDecoder) DecodeInto(dst []int32, data []byte) int {
	if d.bitDepth == 24 {
		numSamples := min(len(data)/3, len(dst))
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			dst[i] = audio.SampleFrom24Bit(b)
		}
		return numSamples
	}

	numSamples := min(len(data)/2, len(dst))
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		dst[i] = audio.SampleFromInt16(sample16)
	}
	return numSamples
}

// PCMSource reads headerless PCM from a file
type PCMSource struct {
	file    *os.File
	decoder *PCMDecoder
	format  audio.Format
	loop    bool
	buf     []byte
}

// NewPCMSource opens a raw PCM file described by format.
func NewPCMSource(filePath string, format audio.Format, loop bool) (*PCMSource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	decoder, err := NewPCM(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCM file: %w", err)
	}

	log.Info("Loaded PCM: %s (%v)", titleOf(filePath), format)

	return &PCMSource{
		file:    f,
		decoder: decoder,
		format:  format,
		loop:    loop,
	}, nil
}

func (s *PCMSource) Read(samples []int32) (int, error) {
	frameBytes := s.decoder.BytesPerSample() * s.format.Channels
	want := len(samples) / s.format.Channels * frameBytes
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	buf := s.buf[:want]

	n, err := io.ReadFull(s.file, buf)
	n -= n % frameBytes
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if errors.Is(err, io.EOF) && s.loop {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return 0, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		err = nil
	}
	if err != nil {
		return 0, err
	}

	return s.decoder.DecodeInto(samples, buf[:n]), nil
}

func (s *PCMSource) Format() audio.Format { return s.format }

func (s *PCMSource) Close() error {
	return s.file.Close()
}
