// ABOUTME: Shared stream state and format accessors
// ABOUTME: Validates stream parameters against the driver handle; owns the stream mutex
package stream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

var (
	// ErrInvalidMode is returned by Open for an unknown audio mode.
	ErrInvalidMode = errors.New("stream: invalid audio mode")

	// ErrUnsupportedFormat is returned by Open when the stream parameters
	// differ from what the driver handle is configured for.
	ErrUnsupportedFormat = errors.New("stream: unsupported format")
)

// Parent is the hardware interface a stream belongs to.
type Parent interface {
	Mode() driver.Mode
	TTYMode() driver.TTYMode
}

// Params are the format parameters a stream is created with.
type Params struct {
	Devices  driver.Device
	Format   driver.SampleFormat
	Channels uint32
	Rate     uint32
}

// base holds what every stream shares: the borrowed driver handle, the
// requested routing and format, and the mutex serializing public calls.
type base struct {
	mu     sync.Mutex
	parent Parent
	handle *driver.Handle
	params Params
	mode   driver.Mode
}

func newBase(parent Parent, h *driver.Handle, p Params) base {
	return base{parent: parent, handle: h, params: p}
}

// open validates the requested parameters. It does no device I/O.
// Must hold mu.
func (b *base) open(mode driver.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	cfg := b.handle.Config
	switch {
	case b.params.Channels == 0 || b.params.Rate == 0:
		return fmt.Errorf("%w: channels and rate must be set", ErrUnsupportedFormat)
	case b.params.Format != cfg.Format:
		return fmt.Errorf("%w: format %v, device uses %v", ErrUnsupportedFormat, b.params.Format, cfg.Format)
	case b.params.Channels != cfg.Channels:
		return fmt.Errorf("%w: %d channels, device uses %d", ErrUnsupportedFormat, b.params.Channels, cfg.Channels)
	case b.params.Rate != cfg.Rate:
		return fmt.Errorf("%w: %dHz, device uses %dHz", ErrUnsupportedFormat, b.params.Rate, cfg.Rate)
	case b.params.Devices&^driver.DeviceOutAll != 0:
		return fmt.Errorf("%w: unknown output devices %#x", ErrUnsupportedFormat, uint32(b.params.Devices))
	}

	b.mode = mode
	return nil
}

// close releases the driver connection. Must hold mu.
func (b *base) close() error {
	if b.handle.Conn == nil {
		return nil
	}
	if err := b.handle.Module.Close(b.handle); err != nil {
		return fmt.Errorf("close device: %w", err)
	}
	return nil
}

// Channels returns the channel count.
func (b *base) Channels() uint32 {
	return b.params.Channels
}

// Format returns the sample format.
func (b *base) Format() driver.SampleFormat {
	return b.params.Format
}

// SampleRate returns the sample rate in Hz.
func (b *base) SampleRate() uint32 {
	return b.params.Rate
}

// Devices returns the output device mask the stream routes to.
func (b *base) Devices() driver.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params.Devices
}

// SetDevices changes the output device mask. It takes effect the next time
// the device is opened.
func (b *base) SetDevices(d driver.Device) error {
	if d&^driver.DeviceOutAll != 0 {
		return fmt.Errorf("%w: unknown output devices %#x", ErrUnsupportedFormat, uint32(d))
	}
	b.mu.Lock()
	b.params.Devices = d
	b.mu.Unlock()
	return nil
}

// BufferSize returns the bytes in one period; writes are most efficient in
// multiples of it.
func (b *base) BufferSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handle.PeriodBytes()
}
