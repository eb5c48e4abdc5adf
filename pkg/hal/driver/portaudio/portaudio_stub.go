//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package portaudio

import (
	"errors"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

// ErrNotEnabled is returned by Open when built without the portaudio tag.
var ErrNotEnabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// Module is a placeholder that cannot open devices.
type Module struct{}

// New creates a PortAudio module.
func New() *Module {
	return &Module{}
}

// Open always fails.
func (m *Module) Open(h *driver.Handle) error {
	return ErrNotEnabled
}

func (m *Module) Close(h *driver.Handle) error {
	h.Conn = nil
	return nil
}

func (m *Module) Standby(h *driver.Handle) error {
	return nil
}

func (m *Module) Route(h *driver.Handle, devices driver.Device, mode driver.Mode, tty driver.TTYMode) error {
	return driver.BaseRoute(h, devices, mode, tty)
}

func (m *Module) SetLPAVolume(percent int) error {
	return nil
}

// Terminate is a no-op.
func (m *Module) Terminate() error {
	return nil
}
