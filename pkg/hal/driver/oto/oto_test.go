// ABOUTME: Tests for the oto driver backend
// ABOUTME: Covers volume mapping, buffer sizing and open failures without hardware
package oto

import (
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

var _ driver.Ops = (*Module)(nil)

func TestPlayerVolume(t *testing.T) {
	tests := []struct {
		percent  int
		expected float64
	}{
		{100, 1.0},
		{50, 0.5},
		{0, 0.0},
		{-10, 0.0},
		{200, 1.0},
	}

	for _, tt := range tests {
		result := playerVolume(tt.percent)
		if result != tt.expected {
			t.Errorf("percent=%d: expected %f, got %f", tt.percent, tt.expected, result)
		}
	}
}

func TestBufferDuration(t *testing.T) {
	cfg := driver.Config{Rate: 48000, Channels: 2, PeriodSize: 480, PeriodCount: 4}
	if got := bufferDuration(cfg); got != 40*time.Millisecond {
		t.Errorf("expected 40ms, got %v", got)
	}

	cfg.Rate = 0
	if got := bufferDuration(cfg); got != 0 {
		t.Errorf("expected 0 for zero rate, got %v", got)
	}
}

func TestOpenRejectsUnsupportedFormat(t *testing.T) {
	m := New()
	h := driver.NewHandle(driver.Config{
		Rate: 48000, Channels: 2, Format: driver.FormatS32LE, PeriodSize: 480, PeriodCount: 4,
	}, nil, m)

	if err := m.Open(h); err == nil {
		t.Fatal("expected error for S32LE")
	}
	if h.Conn != nil {
		t.Error("connection must stay nil after a failed open")
	}
}

func TestVolumeBeforeOpen(t *testing.T) {
	m := New()
	if err := m.SetLPAVolume(40); err != nil {
		t.Fatalf("SetLPAVolume: %v", err)
	}
	if m.volume != 0.4 {
		t.Errorf("expected 0.4, got %f", m.volume)
	}
}

func TestStandbyAndCloseWithoutConnection(t *testing.T) {
	m := New()
	h := driver.NewHandle(driver.Config{}, nil, m)
	if err := m.Standby(h); err != nil {
		t.Errorf("Standby: %v", err)
	}
	if err := m.Close(h); err != nil {
		t.Errorf("Close: %v", err)
	}
}
