// ABOUTME: Audio modes, TTY modes, output device bits and UCM routing
// ABOUTME: BaseRoute is shared by backends to enable the devices in a mask
package driver

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
)

var log = logging.WithTag("driver")

// Mode is the global audio mode of the hardware interface.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRingtone
	ModeInCall
	ModeInCommunication
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeRingtone:
		return "ringtone"
	case ModeInCall:
		return "in_call"
	case ModeInCommunication:
		return "in_communication"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= ModeNormal && m <= ModeInCommunication
}

// TTYMode selects teletypewriter routing during calls.
type TTYMode int

const (
	TTYOff TTYMode = iota
	TTYFull
	TTYVCO
	TTYHCO
)

func (t TTYMode) String() string {
	switch t {
	case TTYOff:
		return "tty_off"
	case TTYFull:
		return "tty_full"
	case TTYVCO:
		return "tty_vco"
	case TTYHCO:
		return "tty_hco"
	default:
		return fmt.Sprintf("TTYMode(%d)", int(t))
	}
}

// Device is a bitmask of output devices.
type Device uint32

const (
	DeviceOutEarpiece        Device = 0x1
	DeviceOutSpeaker         Device = 0x2
	DeviceOutWiredHeadset    Device = 0x4
	DeviceOutWiredHeadphone  Device = 0x8
	DeviceOutBluetoothSCO    Device = 0x10
	DeviceOutAuxDigital      Device = 0x400
	DeviceOutAnlgDockHeadset Device = 0x800

	DeviceOutAll = DeviceOutEarpiece | DeviceOutSpeaker | DeviceOutWiredHeadset |
		DeviceOutWiredHeadphone | DeviceOutBluetoothSCO | DeviceOutAuxDigital |
		DeviceOutAnlgDockHeadset
)

var deviceNames = []struct {
	bit  Device
	name string
}{
	{DeviceOutEarpiece, "Earpiece"},
	{DeviceOutSpeaker, "Speaker"},
	{DeviceOutWiredHeadset, "Headset"},
	{DeviceOutWiredHeadphone, "Headphones"},
	{DeviceOutBluetoothSCO, "BT SCO"},
	{DeviceOutAuxDigital, "HDMI"},
	{DeviceOutAnlgDockHeadset, "Dock"},
}

// DeviceNames returns the UCM device names for the bits set in d.
func DeviceNames(d Device) []string {
	var names []string
	for _, dn := range deviceNames {
		if d&dn.bit != 0 {
			names = append(names, dn.name)
		}
	}
	return names
}

func (d Device) String() string {
	names := DeviceNames(d)
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// BaseRoute enables the UCM devices for the requested mask and disables those
// no longer routed. In call mode a TTY setting redirects voice to the headset.
func BaseRoute(h *Handle, devices Device, mode Mode, tty TTYMode) error {
	if devices&^DeviceOutAll != 0 {
		return fmt.Errorf("route: unknown device bits %#x", uint32(devices&^DeviceOutAll))
	}

	if tty != TTYOff {
		if mode == ModeInCall {
			devices = DeviceOutWiredHeadset
		} else {
			log.Debug("route: %v ignored outside a call", tty)
		}
	}

	for _, name := range DeviceNames(h.Devices &^ devices) {
		if err := h.UCM.Set(ucm.IdentDisableDevice, name); err != nil {
			return fmt.Errorf("route: disable %s: %w", name, err)
		}
	}
	for _, name := range DeviceNames(devices) {
		if err := h.UCM.Set(ucm.IdentEnableDevice, name); err != nil {
			return fmt.Errorf("route: enable %s: %w", name, err)
		}
	}

	log.Verbose("route: use case %q devices %v mode %v", h.UseCase, devices, mode)
	h.Devices = devices
	return nil
}

// ParseDevices converts UCM device names, matched case-insensitively, into
// a mask.
func ParseDevices(names []string) (Device, error) {
	var d Device
	for _, name := range names {
		found := false
		for _, dn := range deviceNames {
			if strings.EqualFold(dn.name, name) {
				d |= dn.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown output device %q", name)
		}
	}
	return d, nil
}

// ParseMode parses the String form of a Mode.
func ParseMode(s string) (Mode, error) {
	for m := ModeNormal; m <= ModeInCommunication; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown audio mode %q", s)
}
