// ABOUTME: Hardware interface owning the driver handle and its output stream
// ABOUTME: Tracks the audio and TTY modes streams consult when routing
package hal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/stream"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/wakelock"
)

var log = logging.WithTag("AudioHardware")

var (
	// ErrStreamBusy is returned when an output stream is already open.
	ErrStreamBusy = errors.New("hal: output stream already open")

	// ErrUnknownStream is returned when closing a stream this interface
	// did not open.
	ErrUnknownStream = errors.New("hal: unknown stream")
)

// Config describes the hardware interface.
type Config struct {
	// Card names the sound card for the use-case manager.
	Card string

	// Driver is the device configuration for the output handle.
	Driver driver.Config

	// Module is the driver backend.
	Module driver.Ops

	// UCM is the use-case manager; a fresh ucm.Mgr for Card if nil.
	UCM ucm.Manager

	// Locker takes wake locks for streams; wakelock.Nop if nil.
	Locker wakelock.Locker

	// LockTag names the output wake lock; stream.DefaultLockTag if empty.
	LockTag string
}

// Hardware owns the driver handle shared by its output stream.
type Hardware struct {
	mu      sync.Mutex
	handle  *driver.Handle
	locker  wakelock.Locker
	lockTag string
	mode    driver.Mode
	tty     driver.TTYMode
	output  *stream.PlaybackStream
}

// New creates a hardware interface in normal mode with no open streams.
func New(cfg Config) (*Hardware, error) {
	if cfg.Module == nil {
		return nil, errors.New("hal: no driver module")
	}
	if err := cfg.Driver.Validate(); err != nil {
		return nil, err
	}
	if cfg.UCM == nil {
		cfg.UCM = ucm.New(cfg.Card)
	}
	if cfg.Locker == nil {
		cfg.Locker = wakelock.Nop{}
	}

	return &Hardware{
		handle:  driver.NewHandle(cfg.Driver, cfg.UCM, cfg.Module),
		locker:  cfg.Locker,
		lockTag: cfg.LockTag,
		mode:    driver.ModeNormal,
		tty:     driver.TTYOff,
	}, nil
}

// Mode returns the current audio mode.
func (hw *Hardware) Mode() driver.Mode {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.mode
}

// SetMode changes the audio mode used by the next routing.
func (hw *Hardware) SetMode(mode driver.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", stream.ErrInvalidMode, mode)
	}
	hw.mu.Lock()
	hw.mode = mode
	hw.mu.Unlock()
	log.Debug("mode set to %v", mode)
	return nil
}

// TTYMode returns the current TTY mode.
func (hw *Hardware) TTYMode() driver.TTYMode {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.tty
}

// SetTTYMode changes the TTY mode used by the next routing.
func (hw *Hardware) SetTTYMode(tty driver.TTYMode) {
	hw.mu.Lock()
	hw.tty = tty
	hw.mu.Unlock()
}

// Handle returns the driver handle. Streams borrow it; callers must not
// use it while a stream is writing.
func (hw *Hardware) Handle() *driver.Handle {
	return hw.handle
}

// OpenOutputStream creates and opens the output stream. Only one output may
// be open at a time.
func (hw *Hardware) OpenOutputStream(p stream.Params) (*stream.PlaybackStream, error) {
	hw.mu.Lock()
	defer hw.mu.Unlock()

	if hw.output != nil {
		return nil, ErrStreamBusy
	}

	s := stream.NewPlayback(hw, hw.handle, p, stream.Options{
		ID:      uuid.NewString(),
		LockTag: hw.lockTag,
		Locker:  hw.locker,
	})
	if err := s.Open(hw.mode); err != nil {
		return nil, fmt.Errorf("open output stream: %w", err)
	}

	hw.output = s
	log.Info("output stream %s opened: %dHz %dch %v on %v",
		s.ID(), p.Rate, p.Channels, p.Format, p.Devices)
	return s, nil
}

// CloseOutputStream closes s and forgets it.
func (hw *Hardware) CloseOutputStream(s *stream.PlaybackStream) error {
	hw.mu.Lock()
	if hw.output == nil || hw.output != s {
		hw.mu.Unlock()
		return ErrUnknownStream
	}
	hw.output = nil
	hw.mu.Unlock()

	log.Info("output stream %s closed", s.ID())
	return s.Close()
}

// Close tears down the open output stream, if any.
func (hw *Hardware) Close() error {
	hw.mu.Lock()
	s := hw.output
	hw.mu.Unlock()

	if s == nil {
		return nil
	}
	return hw.CloseOutputStream(s)
}
