// ABOUTME: Tests for the ALSA driver backend
// ABOUTME: Covers latency from period geometry and routing validation
package alsa

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

var _ driver.Ops = (*Module)(nil)

func TestLatencyMicros(t *testing.T) {
	tests := []struct {
		name                string
		period, count, rate uint32
		want                uint32
	}{
		{"cd quality", 1024, 4, 44100, 92879},
		{"48k short", 240, 2, 48000, 10000},
		{"zero rate", 256, 4, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, latencyMicros(tt.period, tt.count, tt.rate))
		})
	}
}

func TestRouteWithoutDevice(t *testing.T) {
	h := driver.NewHandle(driver.Config{}, nil, New())
	err := New().Route(h, driver.Device(0x80000000), driver.ModeNormal, driver.TTYOff)
	assert.Error(t, err, "unknown device bits are rejected before any manager call")
}
