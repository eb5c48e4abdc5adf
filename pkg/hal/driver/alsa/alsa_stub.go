//go:build !linux

// ABOUTME: ALSA stub for platforms without kernel PCM devices
// ABOUTME: Every open fails so callers can fall back to another backend
package alsa

import (
	"errors"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

// ErrUnsupported is returned by Open on platforms without ALSA.
var ErrUnsupported = errors.New("alsa: not supported on this platform")

// Module is a placeholder that cannot open devices.
type Module struct{}

// New creates an ALSA module.
func New() *Module {
	return &Module{}
}

func (m *Module) Open(h *driver.Handle) error {
	return ErrUnsupported
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
