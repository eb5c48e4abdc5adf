// ABOUTME: Resampling wrapper around a Source
// ABOUTME: Converts any source to the device sample rate with linear interpolation
package decode

import (
	"errors"
	"io"

	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio/resample"
)

// ResampledSource wraps a Source and resamples to a target sample rate
type ResampledSource struct {
	source      Source
	resampler   *resample.Resampler
	targetRate  int
	inputBuffer []int32
	output      []int32 // resampled samples not yet returned
	eof         bool
}

// NewResampledSource creates a resampling wrapper around a source
func NewResampledSource(source Source, targetRate int) *ResampledSource {
	format := source.Format()

	// 100ms of input per pull
	inputSamples := (format.SampleRate * format.Channels * 100) / 1000

	return &ResampledSource{
		source:      source,
		resampler:   resample.New(format.SampleRate, targetRate, format.Channels),
		targetRate:  targetRate,
		inputBuffer: make([]int32, inputSamples),
	}
}

func (r *ResampledSource) Read(samples []int32) (int, error) {
	for len(r.output) == 0 {
		if r.eof {
			return 0, io.EOF
		}

		n, err := r.source.Read(r.inputBuffer)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return 0, err
			}
			r.eof = true
		}
		if n == 0 {
			if r.eof {
				return 0, io.EOF
			}
			return 0, nil
		}

		out := make([]int32, r.resampler.OutputSamplesNeeded(n))
		m := r.resampler.Resample(r.inputBuffer[:n], out)
		r.output = out[:m]
	}

	n := copy(samples, r.output)
	r.output = r.output[n:]
	return n, nil
}

func (r *ResampledSource) Format() audio.Format {
	format := r.source.Format()
	format.SampleRate = r.targetRate
	return format
}

func (r *ResampledSource) Close() error {
	return r.source.Close()
}
