// ABOUTME: Audio source package for file playback and test tones
// ABOUTME: Provides the Source interface and MP3, FLAC, Opus, PCM implementations
// Package decode provides audio sources for various codecs.
//
// Supports: PCM (16-bit and 24-bit raw files), Ogg Opus, FLAC, MP3 and a
// sine test tone.
//
// All sources implement the Source interface and output int32 samples
// in 24-bit range. A Reader converts a source to the device rate, channel
// count and sample format.
//
// Example:
//
//	src, err := decode.Open("track.flac", decode.Options{})
//	r, err := decode.NewReader(src, decode.Target{
//	    SampleRate: 48000,
//	    Channels:   2,
//	    Format:     driver.FormatS16LE,
//	})
//	n, err := r.Read(period)
package decode
