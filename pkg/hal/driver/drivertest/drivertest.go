// ABOUTME: Scripted driver backend for tests
// ABOUTME: Records driver calls and plays back per-chunk write results
package drivertest

import (
	"errors"
	"sync"

	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

// ErrOpenFailed is returned by Open when Module.FailOpen is set.
var ErrOpenFailed = errors.New("drivertest: open failed")

// Result is the outcome of one PCM write. A zero Result means "accept the
// whole chunk".
type Result struct {
	Frames int
	Err    error
}

// Frames returns a Result accepting n frames.
func Frames(n int) Result { return Result{Frames: n} }

// Fail returns a Result failing with err.
func Fail(err error) Result { return Result{Err: err} }

// Module is a driver.Ops that records calls. Every PCM it opens draws write
// results from the same script, so a re-open continues where the old
// connection stopped.
type Module struct {
	mu sync.Mutex

	// FailOpen makes Open leave the handle closed.
	FailOpen bool

	// FailOpens fails this many opens before Open starts succeeding.
	FailOpens int

	// LatencyMicros is stored into the handle on Open.
	LatencyMicros uint32

	// RouteErr, StandbyErr and VolumeErr are returned by the matching calls.
	RouteErr   error
	StandbyErr error
	VolumeErr  error

	script []Result

	Opens    int
	Closes   int
	Standbys int
	Routes   int
	Volumes  []int

	// RoutedUseCases records h.UseCase at each Route call.
	RoutedUseCases []string

	// Written collects every chunk handed to a PCM, in order.
	Written [][]byte
}

// NewModule creates a module that plays back script, then accepts every
// chunk once the script is exhausted.
func NewModule(script ...Result) *Module {
	return &Module{script: script}
}

// Script replaces the remaining write results.
func (m *Module) Script(results ...Result) {
	m.mu.Lock()
	m.script = results
	m.mu.Unlock()
}

// Open implements driver.Ops.
func (m *Module) Open(h *driver.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Opens++
	if h.Conn != nil {
		_ = h.Conn.Close()
		h.Conn = nil
	}
	if m.FailOpen {
		return ErrOpenFailed
	}
	if m.FailOpens > 0 {
		m.FailOpens--
		return ErrOpenFailed
	}
	h.Conn = &PCM{
		module:     m,
		periodSize: h.Config.PeriodSize,
		frameSize:  h.Config.FrameSize(),
	}
	h.LatencyMicros = m.LatencyMicros
	return nil
}

// Close implements driver.Ops.
func (m *Module) Close(h *driver.Handle) error {
	m.mu.Lock()
	m.Closes++
	m.mu.Unlock()

	if h.Conn == nil {
		return nil
	}
	err := h.Conn.Close()
	h.Conn = nil
	return err
}

// Standby implements driver.Ops.
func (m *Module) Standby(h *driver.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Standbys++
	return m.StandbyErr
}

// Route implements driver.Ops using driver.BaseRoute.
func (m *Module) Route(h *driver.Handle, devices driver.Device, mode driver.Mode, tty driver.TTYMode) error {
	m.mu.Lock()
	m.Routes++
	m.RoutedUseCases = append(m.RoutedUseCases, string(h.UseCase))
	err := m.RouteErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return driver.BaseRoute(h, devices, mode, tty)
}

// SetLPAVolume implements driver.Ops.
func (m *Module) SetLPAVolume(percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Volumes = append(m.Volumes, percent)
	return m.VolumeErr
}

// Counts returns a snapshot of the call counters.
func (m *Module) Counts() (opens, closes, standbys, routes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Opens, m.Closes, m.Standbys, m.Routes
}

// Chunks returns a copy of every chunk written so far.
func (m *Module) Chunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.Written...)
}

func (m *Module) next(p []byte, frameSize uint32) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Written = append(m.Written, append([]byte(nil), p...))
	if len(m.script) == 0 {
		return Frames(len(p) / int(frameSize))
	}
	r := m.script[0]
	m.script = m.script[1:]
	if r.Err == nil && r.Frames == 0 {
		r.Frames = len(p) / int(frameSize)
	}
	return r
}

// PCM is a connection opened by Module.
type PCM struct {
	module     *Module
	periodSize uint32
	frameSize  uint32

	mu     sync.Mutex
	closed bool
}

// Write implements driver.PCM.
func (p *PCM) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, driver.ErrBadState
	}

	r := p.module.next(b, p.frameSize)
	if r.Err != nil {
		return 0, r.Err
	}
	return r.Frames, nil
}

// PeriodSize implements driver.PCM.
func (p *PCM) PeriodSize() uint32 { return p.periodSize }

// FrameSize implements driver.PCM.
func (p *PCM) FrameSize() uint32 { return p.frameSize }

// Close implements driver.PCM.
func (p *PCM) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
