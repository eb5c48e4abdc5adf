// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to the device's little-endian sample format
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	format driver.SampleFormat
	size   int
}

// NewPCM creates a new PCM encoder for a device format
func NewPCM(format driver.SampleFormat) (*PCMEncoder, error) {
	size := format.BytesPerSample()
	if size == 0 {
		return nil, fmt.Errorf("unsupported sample format: %v", format)
	}

	return &PCMEncoder{
		format: format,
		size:   size,
	}, nil
}

// SampleSize returns the bytes written per sample
func (e *PCMEncoder) SampleSize() int {
	return e.size
}

// Encode converts int32 samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	output := make([]byte, len(samples)*e.size)
	e.EncodeInto(output, samples)
	return output, nil
}

// EncodeInto writes samples to dst and returns the bytes written. dst must
// hold len(samples)*SampleSize() bytes.
func (e *PCMEncoder) EncodeInto(dst []byte, samples []int32) int {
	for i, sample := range samples {
		e.Put(dst[i*e.size:], sample)
	}
	return len(samples) * e.size
}

// Put writes one sample at the start of dst.
func (e *PCMEncoder) Put(dst []byte, sample int32) {
	switch e.format {
	case driver.FormatS16LE:
		binary.LittleEndian.PutUint16(dst, uint16(audio.SampleToInt16(sample)))
	case driver.FormatS24LE:
		binary.LittleEndian.PutUint32(dst, uint32(clamp24(sample)))
	case driver.FormatS32LE:
		binary.LittleEndian.PutUint32(dst, uint32(clamp24(sample)<<8))
	}
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

func clamp24(sample int32) int32 {
	return max(audio.Min24Bit, min(audio.Max24Bit, sample))
}
