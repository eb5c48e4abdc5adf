// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines the Format type and sample conversion functions
// Package audio provides fundamental audio types and utilities for hi-res audio processing.
//
// Decoded sources carry int32 samples in the 24-bit range. Format describes
// a source (codec, sample rate, channels, native bit depth).
//
// It also provides utilities for converting between different sample formats:
//   - 16-bit ↔ 24-bit conversions
//   - int32 ↔ packed byte conversions
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "flac",
//	    SampleRate: 96000,
//	    Channels:   2,
//	    BitDepth:   24,
//	}
//
//	// Convert 16-bit sample to 24-bit range
//	sample24 := audio.SampleFromInt16(sample16)
package audio
