// ABOUTME: Playback stream: lazy device open, period-sized write loop, power lock
// ABOUTME: Also reports latency, render position and low-power amplifier volume
package stream

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/wakelock"
)

var log = logging.WithTag("PlaybackStream")

// DefaultLockTag names the wake lock held while a stream is playing.
const DefaultLockTag = "AudioOutLock"

var (
	// ErrDeviceUnavailable means the device could not be opened. No bytes
	// were consumed; the caller should retry on its next write.
	ErrDeviceUnavailable = errors.New("stream: device unavailable")

	// ErrInvalidOperation means the active use case does not support the
	// requested control.
	ErrInvalidOperation = errors.New("stream: invalid operation")
)

// Options configure a PlaybackStream beyond its format.
type Options struct {
	// ID identifies the stream in logs.
	ID string

	// LockTag names the wake lock; DefaultLockTag if empty.
	LockTag string

	// Locker takes the wake lock; wakelock.Nop if nil.
	Locker wakelock.Locker
}

// PlaybackStream is one output stream on a shared driver handle.
//
// Every public method holds the stream mutex for its whole duration. The
// use-case manager is shared between streams and is not protected by it.
type PlaybackStream struct {
	base

	id      string
	lockTag string
	locker  wakelock.Locker

	framesWritten uint64
	powerLockHeld bool

	// scratch pads a short final chunk to a full period.
	scratch []byte
}

// NewPlayback creates a stream on h. The device is not opened until the
// first Write.
func NewPlayback(parent Parent, h *driver.Handle, p Params, opts Options) *PlaybackStream {
	if opts.LockTag == "" {
		opts.LockTag = DefaultLockTag
	}
	if opts.Locker == nil {
		opts.Locker = wakelock.Nop{}
	}
	return &PlaybackStream{
		base:    newBase(parent, h, p),
		id:      opts.ID,
		lockTag: opts.LockTag,
		locker:  opts.Locker,
	}
}

// ID returns the stream identifier.
func (s *PlaybackStream) ID() string {
	return s.id
}

// Open validates the stream parameters for mode. No device I/O happens
// here; the device is opened by the first Write.
func (s *PlaybackStream) Open(mode driver.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.open(mode)
}

// Write plays buf, one period at a time, and returns the bytes consumed.
//
// If the device is closed it is routed and opened first; when that fails
// Write returns 0 and ErrDeviceUnavailable. A bad-state error from the
// driver triggers a re-open and the chunk is retried; a second bad state
// before any chunk succeeds is returned. If the re-open fails Write returns
// ErrDeviceUnavailable wrapping the reason. Any other driver error ends the
// call and is returned with the bytes sent before it.
//
// A final chunk shorter than a period is zero-padded to a full period but
// counted at its real length, so Write never reports more than len(buf).
func (s *PlaybackStream) Write(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Verbose("write: stream %s %d bytes", s.id, len(buf))

	if !s.powerLockHeld {
		if err := s.locker.Acquire(s.lockTag); err != nil {
			log.Warn("write: acquire wake lock %q: %v", s.lockTag, err)
		} else {
			s.powerLockHeld = true
		}
	}

	h := s.handle
	if h.Conn == nil {
		if err := s.openDevice(); err != nil {
			log.Error("write: device open failed: %v", err)
			return 0, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
	}

	period := h.PeriodBytes()
	if period <= 0 {
		return 0, fmt.Errorf("write: invalid period size %d", period)
	}

	sent := 0
	reopened := false
	var reopenErr error
	for h.Conn != nil && sent < len(buf) {
		chunk := s.chunk(buf[sent:], period)

		n, err := h.Conn.Write(chunk)
		if errors.Is(err, driver.ErrBadState) {
			if reopened {
				return sent, fmt.Errorf("write: %w after re-open", err)
			}
			// The driver cannot recover this state itself.
			log.Warn("write: %v, re-opening device", err)
			reopened = true
			if reopenErr = h.Module.Open(h); reopenErr != nil {
				log.Error("write: re-open failed: %v", reopenErr)
			}
			continue
		}
		if err != nil {
			return sent, err
		}

		s.framesWritten += uint64(n)
		sent += min(period, len(buf)-sent)
		reopened = false
	}

	if sent < len(buf) {
		if reopenErr != nil {
			return sent, fmt.Errorf("%w: %w", ErrDeviceUnavailable, reopenErr)
		}
		return sent, ErrDeviceUnavailable
	}
	return sent, nil
}

// openDevice selects a use case, routes and opens the device. Must hold mu.
func (s *PlaybackStream) openDevice() error {
	h := s.handle

	verb, err := h.UCM.Get(ucm.IdentVerb)
	if err != nil {
		log.Warn("write: query active verb: %v", err)
		verb = ""
	}

	useCase := ucm.ModPlayMusic
	if verb == "" || verb == ucm.VerbInactive {
		useCase = ucm.VerbHiFi
	}
	if err := h.SetUseCase(useCase); err != nil {
		return err
	}

	if err := h.Module.Route(h, s.params.Devices, s.parent.Mode(), s.parent.TTYMode()); err != nil {
		log.Warn("write: route %v: %v", s.params.Devices, err)
	}

	ident := ucm.IdentEnableMod
	if h.UseCase.IsVerb() {
		ident = ucm.IdentVerb
	}
	if err := h.UCM.Set(ident, string(h.UseCase)); err != nil {
		log.Warn("write: set %s %q: %v", ident, h.UseCase, err)
	}

	if err := h.Module.Open(h); err != nil {
		return err
	}
	if h.Conn == nil {
		return errors.New("driver left the device closed")
	}
	log.Debug("write: stream %s opened %q on %v", s.id, h.UseCase, h.Devices)
	return nil
}

// chunk returns the next period of p, zero-padding a short remainder.
func (s *PlaybackStream) chunk(p []byte, period int) []byte {
	if len(p) >= period {
		return p[:period]
	}
	if len(s.scratch) != period {
		s.scratch = make([]byte, period)
	}
	n := copy(s.scratch, p)
	clear(s.scratch[n:])
	return s.scratch
}

// Standby idles the device, releases the wake lock and resets the render
// position. It is safe to call repeatedly.
func (s *PlaybackStream) Standby() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Verbose("standby: stream %s", s.id)

	err := s.handle.Module.Standby(s.handle)
	if err != nil {
		log.Warn("standby: %v", err)
		err = fmt.Errorf("standby: %w", err)
	}

	s.releasePowerLock()
	s.framesWritten = 0
	return err
}

// Close releases the device connection and the wake lock. It is safe to
// call repeatedly; a later Write opens the device again.
func (s *PlaybackStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Verbose("close: stream %s", s.id)

	err := s.close()
	if err != nil {
		log.Warn("close: %v", err)
	}

	s.releasePowerLock()
	return err
}

// releasePowerLock drops the wake lock if held. Must hold mu.
func (s *PlaybackStream) releasePowerLock() {
	if !s.powerLockHeld {
		return
	}
	if err := s.locker.Release(s.lockTag); err != nil {
		log.Warn("release wake lock %q: %v", s.lockTag, err)
	}
	s.powerLockHeld = false
}

// SetVolume sets the low-power amplifier volume from a stereo pair in
// [0.0, 1.0]. Only the low-power use cases support it; others return
// ErrInvalidOperation.
func (s *PlaybackStream) SetVolume(left, right float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.handle.UseCase.LowPower() {
		return fmt.Errorf("%w: volume on use case %q", ErrInvalidOperation, s.handle.UseCase)
	}

	volume := (left + right) / 2
	if volume < 0.0 {
		log.Warn("setVolume(%f) under 0.0, assuming 0.0", volume)
		volume = 0.0
	} else if volume > 1.0 {
		log.Warn("setVolume(%f) over 1.0, assuming 1.0", volume)
		volume = 1.0
	}

	percent := lpaPercent(volume)
	log.Verbose("setting LPA volume to %d (range 0 to 100)", percent)
	if err := s.handle.Module.SetLPAVolume(percent); err != nil {
		log.Warn("setLpaVolume(%d): %v", percent, err)
	}
	return nil
}

// lpaPercent maps a volume in [0,1] to the amplifier's 0..100 scale.
func lpaPercent(volume float32) int {
	percent := int(math.RoundToEven(float64(volume)*100.0 + 0.5))
	return max(0, min(100, percent))
}

// Latency returns the output latency in milliseconds, rounded up.
func (s *PlaybackStream) Latency() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return latencyMillis(s.handle.LatencyMicros)
}

// latencyMillis converts driver latency to milliseconds, rounding up.
func latencyMillis(micros uint32) uint32 {
	return (micros + 999) / 1000
}

// RenderPosition returns the frames written since the stream last left
// standby. These are frames the driver accepted, not frames confirmed
// played, so the value runs ahead of the DAC by up to the device buffer.
func (s *PlaybackStream) RenderPosition() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint32(s.framesWritten), nil
}

// Channels returns the channel count.
func (s *PlaybackStream) Channels() uint32 {
	return s.base.Channels()
}

// Dump writes diagnostics to w. There are none.
func (s *PlaybackStream) Dump(w io.Writer, args []string) error {
	return nil
}

// Status is a snapshot of stream state for display.
type Status struct {
	ID            string
	UseCase       ucm.UseCase
	Devices       driver.Device
	Open          bool
	PowerLockHeld bool
	FramesWritten uint64
	LatencyMs     uint32
}

// Status returns a snapshot of the stream.
func (s *PlaybackStream) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:            s.id,
		UseCase:       s.handle.UseCase,
		Devices:       s.params.Devices,
		Open:          s.handle.Conn != nil,
		PowerLockHeld: s.powerLockHeld,
		FramesWritten: s.framesWritten,
		LatencyMs:     latencyMillis(s.handle.LatencyMicros),
	}
}
