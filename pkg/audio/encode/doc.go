// ABOUTME: PCM packing for device sample formats
// ABOUTME: Turns 24-bit range int32 samples into S16/S24/S32 little-endian bytes
// Package encode packs decoded samples into the byte layout a PCM device
// expects.
//
// All encoders accept int32 samples in 24-bit range. S24_LE uses a 4-byte
// container with the sample in the low 24 bits.
//
// Example:
//
//	encoder, err := encode.NewPCM(driver.FormatS16LE)
//	data, err := encoder.Encode(samples)
package encode
