// ABOUTME: Converts a Source into interleaved device PCM bytes
// ABOUTME: Handles resampling, channel mapping and the device sample format
package decode

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio/encode"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

// maxEmptyReads bounds consecutive zero-sample reads before giving up.
const maxEmptyReads = 100

// Target is the device layout a Reader produces.
type Target struct {
	SampleRate int
	Channels   int
	Format     driver.SampleFormat
}

// FrameSize returns the bytes in one device frame.
func (t Target) FrameSize() int {
	return t.Channels * t.Format.BytesPerSample()
}

// Reader is an io.Reader of device-format PCM frames.
type Reader struct {
	source  Source
	target  Target
	srcCh   int
	encoder *encode.PCMEncoder
	samples []int32
	gain    atomic.Int32 // percent
}

// NewReader adapts source to target. Mono and stereo sources map onto mono
// or stereo devices; other channel counts must match exactly.
func NewReader(source Source, target Target) (*Reader, error) {
	format := source.Format()
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if target.Channels <= 0 || target.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid target %+v", target)
	}
	encoder, err := encode.NewPCM(target.Format)
	if err != nil {
		return nil, err
	}
	if format.Channels != target.Channels && (format.Channels > 2 || target.Channels > 2) {
		return nil, fmt.Errorf("cannot map %d channels onto %d", format.Channels, target.Channels)
	}

	if format.SampleRate != target.SampleRate {
		log.Debug("resampling %dHz -> %dHz", format.SampleRate, target.SampleRate)
		source = NewResampledSource(source, target.SampleRate)
	}

	r := &Reader{
		source:  source,
		target:  target,
		srcCh:   format.Channels,
		encoder: encoder,
	}
	r.gain.Store(100)
	return r, nil
}

// SetGain scales subsequent output by percent, clamped to 0-100.
func (r *Reader) SetGain(percent int) {
	r.gain.Store(int32(max(0, min(100, percent))))
}

// Gain returns the current software gain in percent.
func (r *Reader) Gain() int {
	return int(r.gain.Load())
}

// Format returns the source format before conversion.
func (r *Reader) Format() audio.Format {
	return r.source.Format()
}

// Read fills p with whole device frames.
func (r *Reader) Read(p []byte) (int, error) {
	frameSize := r.target.FrameSize()
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}

	need := frames * r.srcCh
	if cap(r.samples) < need {
		r.samples = make([]int32, need)
	}

	for empty := 0; ; empty++ {
		n, err := r.source.Read(r.samples[:need])
		if n > 0 {
			return r.encode(p, r.samples[:n-n%r.srcCh]), nil
		}
		if err != nil {
			return 0, err
		}
		if empty >= maxEmptyReads {
			return 0, io.ErrNoProgress
		}
	}
}

// encode writes src frames into p in the target layout and returns bytes written.
func (r *Reader) encode(p []byte, src []int32) int {
	bps := r.encoder.SampleSize()
	gain := int64(r.gain.Load())
	off := 0
	for i := 0; i+r.srcCh <= len(src); i += r.srcCh {
		frame := src[i : i+r.srcCh]
		for ch := 0; ch < r.target.Channels; ch++ {
			sample := mapChannel(frame, ch, r.target.Channels)
			if gain < 100 {
				sample = int32(int64(sample) * gain / 100)
			}
			r.encoder.Put(p[off:], sample)
			off += bps
		}
	}
	return off
}

// mapChannel returns the sample for output channel ch.
func mapChannel(frame []int32, ch, outChannels int) int32 {
	switch {
	case len(frame) == outChannels:
		return frame[ch]
	case len(frame) == 1:
		return frame[0]
	default:
		// stereo downmix to mono
		return int32((int64(frame[0]) + int64(frame[1])) / 2)
	}
}

// Close closes the underlying source.
func (r *Reader) Close() error {
	return r.source.Close()
}
