// ABOUTME: Software gain for backends without an amplifier volume control
// ABOUTME: Scales S16LE frames by a 0-100 percentage with clipping protection
package driver

import "encoding/binary"

// ApplyGain scales the S16LE samples in src by percent and writes them to
// dst, which must be at least len(src) bytes. A trailing odd byte is copied.
func ApplyGain(dst, src []byte, percent int) {
	multiplier := gainMultiplier(percent)

	n := len(src) &^ 1
	for i := 0; i < n; i += 2 {
		sample := int16(binary.LittleEndian.Uint16(src[i:]))
		scaled := int32(float64(sample) * multiplier)

		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		binary.LittleEndian.PutUint16(dst[i:], uint16(int16(scaled)))
	}
	if n < len(src) {
		dst[n] = src[n]
	}
}

// gainMultiplier converts a 0-100 percentage to a linear multiplier.
func gainMultiplier(percent int) float64 {
	if percent <= 0 {
		return 0.0
	}
	if percent >= 100 {
		return 1.0
	}
	return float64(percent) / 100.0
}
