// ABOUTME: Test tone generator source
// ABOUTME: Generates an endless stereo sine wave at half scale
package decode

import (
	"math"
	"sync"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
)

// DefaultToneFrequency is A4.
const DefaultToneFrequency = 440.0

// ToneSource generates a sine test tone
type ToneSource struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
	sampleRate  int
}

// NewToneSource creates a tone generator at frequency Hz.
func NewToneSource(frequency float64, sampleRate int) *ToneSource {
	return &ToneSource{
		frequency:  frequency,
		sampleRate: sampleRate,
	}
}

func (s *ToneSource) Read(samples []int32) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	numFrames := len(samples) / 2 // Stereo

	for i := 0; i < numFrames; i++ {
		t := float64(s.sampleIndex+uint64(i)) / float64(s.sampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 50% volume in the 24-bit range
		value := int32(sample * audio.Max24Bit * 0.5)

		samples[i*2] = value
		samples[i*2+1] = value
	}

	s.sampleIndex += uint64(numFrames)

	return numFrames * 2, nil
}

func (s *ToneSource) Format() audio.Format {
	return audio.Format{
		Codec:      "tone",
		SampleRate: s.sampleRate,
		Channels:   2,
		BitDepth:   24,
	}
}

func (s *ToneSource) Close() error { return nil }
