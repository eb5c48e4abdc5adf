//go:build portaudio

// ABOUTME: PortAudio driver backend using blocking stream writes
// ABOUTME: Cross-platform audio output with software LPA gain
package portaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

var log = logging.WithTag("portaudio")

// Module plays through the default PortAudio output device.
type Module struct {
	mu          sync.Mutex
	initialized bool
	gain        int
}

// New creates a PortAudio module at full volume.
func New() *Module {
	return &Module{gain: 100}
}

func (m *Module) volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gain
}

// Open initializes PortAudio once and opens a blocking output stream.
func (m *Module) Open(h *driver.Handle) error {
	if h.Conn != nil {
		_ = h.Conn.Close()
		h.Conn = nil
	}

	cfg := h.Config
	if cfg.Format != driver.FormatS16LE {
		return fmt.Errorf("portaudio: unsupported format %v", cfg.Format)
	}

	m.mu.Lock()
	if !m.initialized {
		if err := portaudio.Initialize(); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		m.initialized = true
	}
	m.mu.Unlock()

	c := &conn{
		module:     m,
		buffer:     make([]int16, cfg.PeriodSize*cfg.Channels),
		periodSize: cfg.PeriodSize,
		frameSize:  cfg.FrameSize(),
	}
	stream, err := portaudio.OpenDefaultStream(0, int(cfg.Channels), float64(cfg.Rate), int(cfg.PeriodSize), &c.buffer)
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	c.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start stream: %w", err)
	}
	c.running = true

	h.Conn = c
	h.LatencyMicros = uint32(stream.Info().OutputLatency.Microseconds())
	log.Debug("opened default output: %dHz %dch latency=%dus", cfg.Rate, cfg.Channels, h.LatencyMicros)
	return nil
}

// Close stops and closes the stream. PortAudio stays initialized until
// Terminate.
func (m *Module) Close(h *driver.Handle) error {
	if h.Conn == nil {
		return nil
	}
	err := h.Conn.Close()
	h.Conn = nil
	return err
}

// Standby stops the stream; the next write restarts it.
func (m *Module) Standby(h *driver.Handle) error {
	c, ok := h.Conn.(*conn)
	if !ok || c == nil {
		return nil
	}
	return c.stop()
}

// Route applies the device selection through the use-case manager.
func (m *Module) Route(h *driver.Handle, devices driver.Device, mode driver.Mode, tty driver.TTYMode) error {
	return driver.BaseRoute(h, devices, mode, tty)
}

// SetLPAVolume sets the software gain applied to subsequent writes.
func (m *Module) SetLPAVolume(percent int) error {
	m.mu.Lock()
	m.gain = max(0, min(100, percent))
	m.mu.Unlock()
	return nil
}

// Terminate releases PortAudio. Call after the last Close.
func (m *Module) Terminate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return nil
	}
	m.initialized = false
	return portaudio.Terminate()
}

type conn struct {
	module     *Module
	stream     *portaudio.Stream
	buffer     []int16
	scratch    []byte
	periodSize uint32
	frameSize  uint32
	running    bool
	closed     bool
}

func (c *conn) stop() error {
	if !c.running || c.closed {
		return nil
	}
	c.running = false
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("portaudio: stop: %w", err)
	}
	return nil
}

// Write sends p one period at a time. A short tail is padded with silence.
func (c *conn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, fmt.Errorf("portaudio: write on closed stream: %w", driver.ErrBadState)
	}
	if !c.running {
		if err := c.stream.Start(); err != nil {
			return 0, fmt.Errorf("portaudio: restart: %w", err)
		}
		c.running = true
	}

	data := p
	if gain := c.module.volume(); gain < 100 {
		if cap(c.scratch) < len(p) {
			c.scratch = make([]byte, len(p))
		}
		data = c.scratch[:len(p)]
		driver.ApplyGain(data, p, gain)
	}

	periodBytes := len(c.buffer) * 2
	frames := 0
	for off := 0; off < len(data); off += periodBytes {
		chunk := data[off:min(off+periodBytes, len(data))]
		for i := range c.buffer {
			if i*2+1 < len(chunk) {
				c.buffer[i] = int16(binary.LittleEndian.Uint16(chunk[i*2:]))
			} else {
				c.buffer[i] = 0
			}
		}

		if err := c.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return frames, fmt.Errorf("portaudio: write: %w", err)
		}
		frames += len(chunk) / int(c.frameSize)
	}
	return frames, nil
}

func (c *conn) PeriodSize() uint32 { return c.periodSize }

func (c *conn) FrameSize() uint32 { return c.frameSize }

func (c *conn) Close() error {
	if c.closed {
		return nil
	}
	stopErr := c.stop()
	c.closed = true
	if err := c.stream.Close(); err != nil {
		return err
	}
	return stopErr
}
