// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Interpolates across chunk boundaries using the previous chunk's last frame
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // read position relative to the current chunk; -1 is lastSample
	lastSample []int32 // final frame of the previous chunk, one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// Resample converts interleaved input at inputRate into interleaved output
// at outputRate and returns the number of output samples written. Input
// frames that do not fit in output are dropped.
func (r *Resampler) Resample(input []int32, output []int32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / r.channels

	frame := func(i, ch int) int32 {
		if i < 0 {
			return r.lastSample[ch]
		}
		return input[i*r.channels+ch]
	}

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(math.Floor(r.position))
		if inputIdx+1 >= inputFrames {
			break
		}
		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(frame(inputIdx, ch))
			s2 := float64(frame(inputIdx+1, ch))
			output[outIdx*r.channels+ch] = int32(s1*(1.0-frac) + s2*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	copy(r.lastSample, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.position = max(r.position-float64(inputFrames), -1)

	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	clear(r.lastSample)
}

// Ratio returns input frames consumed per output frame.
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames)/r.ratio)) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
