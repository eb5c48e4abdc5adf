// ABOUTME: Tests for software gain
// ABOUTME: Verifies scaling, clamping and odd trailing bytes
package driver

import (
	"encoding/binary"
	"testing"
)

func TestGainMultiplier(t *testing.T) {
	tests := []struct {
		percent  int
		expected float64
	}{
		{100, 1.0},
		{50, 0.5},
		{0, 0.0},
		{-5, 0.0},
		{150, 1.0},
	}

	for _, tt := range tests {
		result := gainMultiplier(tt.percent)
		if result != tt.expected {
			t.Errorf("percent=%d: expected %f, got %f", tt.percent, tt.expected, result)
		}
	}
}

func TestApplyGain(t *testing.T) {
	samples := []int16{1000, -1000, 500, -32768}
	src := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(src[i*2:], uint16(s))
	}

	dst := make([]byte, len(src))
	ApplyGain(dst, src, 50)

	want := []int16{500, -500, 250, -16384}
	for i, w := range want {
		got := int16(binary.LittleEndian.Uint16(dst[i*2:]))
		if got != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, got)
		}
	}
}

func TestApplyGainInPlaceFullVolume(t *testing.T) {
	buf := []byte{0x34, 0x12, 0xff}
	ApplyGain(buf, buf, 100)

	if buf[0] != 0x34 || buf[1] != 0x12 {
		t.Errorf("full volume changed samples: %x", buf)
	}
	if buf[2] != 0xff {
		t.Errorf("trailing byte not preserved: %x", buf[2])
	}
}
