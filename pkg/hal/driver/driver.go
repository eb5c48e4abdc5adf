// ABOUTME: Driver handle and driver operations shared by streams and backends
// ABOUTME: A Handle is owned by the hardware interface and borrowed by its streams
package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
)

// ErrBadState reports a PCM in a bad or corrupted state. Backends wrap their
// native errno (EBADFD on Linux) so callers can match it with errors.Is.
var ErrBadState = errors.New("pcm: stream in bad state")

// PCM is an open connection to a playback device.
type PCM interface {
	// Write transfers p and returns the number of frames the device accepted.
	Write(p []byte) (int, error)

	// PeriodSize returns the frames in one hardware transfer.
	PeriodSize() uint32

	// FrameSize returns the bytes in one frame.
	FrameSize() uint32

	// Close releases the device.
	Close() error
}

// SampleFormat is the PCM sample encoding.
type SampleFormat int

const (
	FormatS16LE SampleFormat = iota
	FormatS24LE
	FormatS32LE
)

// BytesPerSample returns the container size of one sample.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatS16LE:
		return 2
	case FormatS24LE, FormatS32LE:
		return 4
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatS16LE:
		return "S16_LE"
	case FormatS24LE:
		return "S24_LE"
	case FormatS32LE:
		return "S32_LE"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// ParseSampleFormat parses the String form of a SampleFormat. The
// underscore is optional.
func ParseSampleFormat(s string) (SampleFormat, error) {
	for f := FormatS16LE; f <= FormatS32LE; f++ {
		if strings.EqualFold(f.String(), s) || strings.EqualFold(strings.ReplaceAll(f.String(), "_", ""), s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown sample format %q", s)
}

// Config describes how a backend opens the device.
type Config struct {
	Card        uint
	Device      uint
	Rate        uint32
	Channels    uint32
	Format      SampleFormat
	PeriodSize  uint32 // frames
	PeriodCount uint32
}

// FrameSize returns the bytes in one frame for this configuration.
func (c Config) FrameSize() uint32 {
	return c.Channels * uint32(c.Format.BytesPerSample())
}

// Validate checks that the configuration can open a device.
func (c Config) Validate() error {
	switch {
	case c.Rate == 0:
		return errors.New("driver: sample rate must be positive")
	case c.Channels == 0:
		return errors.New("driver: channel count must be positive")
	case c.Format.BytesPerSample() == 0:
		return fmt.Errorf("driver: unsupported format %v", c.Format)
	case c.PeriodSize == 0:
		return errors.New("driver: period size must be positive")
	case c.PeriodCount == 0:
		return errors.New("driver: period count must be positive")
	}
	return nil
}

// Ops is the set of operations a backend provides for a Handle.
type Ops interface {
	// Open connects h to the device. On failure h.Conn stays nil.
	Open(h *Handle) error

	// Close releases h.Conn and leaves it nil.
	Close(h *Handle) error

	// Standby puts the device into low-power idle.
	Standby(h *Handle) error

	// Route binds the handle's outputs for the given devices and modes.
	Route(h *Handle, devices Device, mode Mode, tty TTYMode) error

	// SetLPAVolume sets the low-power amplifier volume in percent (0..100).
	SetLPAVolume(percent int) error
}

// Handle is the driver-side state of one output. The hardware interface owns
// it; streams hold a reference and must serialize access themselves.
type Handle struct {
	// Conn is the open PCM, or nil when the device is closed.
	Conn PCM

	// UseCase is the routing profile the handle is bound to.
	UseCase ucm.UseCase

	Config Config

	// LatencyMicros is the device-reported output latency.
	LatencyMicros uint32

	// Devices is the currently routed output mask.
	Devices Device

	UCM    ucm.Manager
	Module Ops
}

// NewHandle creates a closed handle.
func NewHandle(cfg Config, mgr ucm.Manager, module Ops) *Handle {
	return &Handle{
		Config: cfg,
		UCM:    mgr,
		Module: module,
	}
}

// SetUseCase validates and stores a use-case name.
func (h *Handle) SetUseCase(name string) error {
	u, err := ucm.ParseUseCase(name)
	if err != nil {
		return err
	}
	h.UseCase = u
	return nil
}

// IsOpen reports whether the handle has a live connection.
func (h *Handle) IsOpen() bool {
	return h.Conn != nil
}

// PeriodBytes returns the bytes in one period of the open connection, falling
// back to the configuration when closed.
func (h *Handle) PeriodBytes() int {
	if h.Conn != nil {
		return int(h.Conn.PeriodSize() * h.Conn.FrameSize())
	}
	return int(h.Config.PeriodSize * h.Config.FrameSize())
}
