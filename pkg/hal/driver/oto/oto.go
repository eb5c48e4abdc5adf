// ABOUTME: Host audio driver backend built on the oto library
// ABOUTME: Streams PCM through a pipe into a persistent oto player
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

var log = logging.WithTag("oto")

// ErrFormatChanged is returned when a device is opened with a different rate
// or channel count than the process-wide oto context.
var ErrFormatChanged = errors.New("oto: context already initialized with another format")

// Module plays through the host sound server. Oto allows one context per
// process, so every open must share the first open's rate and channels.
type Module struct {
	mu       sync.Mutex
	otoCtx   *oto.Context
	rate     uint32
	channels uint32
	volume   float64
	current  *conn
}

// New creates an oto module at full volume.
func New() *Module {
	return &Module{volume: 1.0}
}

func (m *Module) context(cfg driver.Config) (*oto.Context, error) {
	if cfg.Format != driver.FormatS16LE {
		return nil, fmt.Errorf("oto: unsupported format %v", cfg.Format)
	}

	if m.otoCtx != nil {
		if m.rate != cfg.Rate || m.channels != cfg.Channels {
			return nil, fmt.Errorf("%w: %dHz %dch -> %dHz %dch",
				ErrFormatChanged, m.rate, m.channels, cfg.Rate, cfg.Channels)
		}
		if err := m.otoCtx.Resume(); err != nil {
			return nil, fmt.Errorf("oto: resume context: %w", err)
		}
		return m.otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(cfg.Rate),
		ChannelCount: int(cfg.Channels),
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferDuration(cfg),
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	m.otoCtx = ctx
	m.rate = cfg.Rate
	m.channels = cfg.Channels
	log.Info("oto context initialized: %dHz, %d channels", cfg.Rate, cfg.Channels)
	return ctx, nil
}

// Open starts a player for h, replacing any existing connection.
func (m *Module) Open(h *driver.Handle) error {
	if h.Conn != nil {
		_ = h.Conn.Close()
		h.Conn = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, err := m.context(h.Config)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.SetVolume(m.volume)
	player.Play()

	c := &conn{
		module:     m,
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
		periodSize: h.Config.PeriodSize,
		frameSize:  h.Config.FrameSize(),
	}
	m.current = c
	h.Conn = c
	h.LatencyMicros = uint32(bufferDuration(h.Config).Microseconds())
	return nil
}

// Close stops the player and leaves h closed. The oto context stays alive
// for the next open.
func (m *Module) Close(h *driver.Handle) error {
	if h.Conn == nil {
		return nil
	}
	err := h.Conn.Close()
	h.Conn = nil
	return err
}

// Standby pauses the player and suspends the context until the next write.
func (m *Module) Standby(h *driver.Handle) error {
	c, ok := h.Conn.(*conn)
	if !ok || c == nil {
		return nil
	}
	c.pause()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.otoCtx == nil {
		return nil
	}
	if err := m.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("oto: suspend: %w", err)
	}
	return nil
}

// Route applies the device selection through the use-case manager.
func (m *Module) Route(h *driver.Handle, devices driver.Device, mode driver.Mode, tty driver.TTYMode) error {
	return driver.BaseRoute(h, devices, mode, tty)
}

// SetLPAVolume maps percent onto the player volume.
func (m *Module) SetLPAVolume(percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.volume = playerVolume(percent)
	if m.current != nil {
		m.current.player.SetVolume(m.volume)
	}
	log.Debug("volume set to %d%%", percent)
	return nil
}

func (m *Module) resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.otoCtx == nil {
		return nil
	}
	return m.otoCtx.Resume()
}

func (m *Module) release(c *conn) {
	m.mu.Lock()
	if m.current == c {
		m.current = nil
	}
	m.mu.Unlock()
}

type conn struct {
	module     *Module
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	periodSize uint32
	frameSize  uint32

	mu     sync.Mutex
	paused bool
	closed bool
}

func (c *conn) pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.paused {
		return
	}
	c.player.Pause()
	c.paused = true
}

// Write feeds the pipe. It blocks until the player has consumed p.
func (c *conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, fmt.Errorf("oto: write on closed player: %w", driver.ErrBadState)
	}
	if c.paused {
		if err := c.module.resume(); err != nil {
			c.mu.Unlock()
			return 0, fmt.Errorf("oto: resume: %w", err)
		}
		c.player.Play()
		c.paused = false
	}
	c.mu.Unlock()

	n, err := c.pipeWriter.Write(p)
	if err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return 0, fmt.Errorf("oto: pipe write: %w", driver.ErrBadState)
		}
		return 0, fmt.Errorf("pipe write failed: %w", err)
	}
	return n / int(c.frameSize), nil
}

func (c *conn) PeriodSize() uint32 { return c.periodSize }

func (c *conn) FrameSize() uint32 { return c.frameSize }

func (c *conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.pipeWriter.Close()
	err := c.player.Close()
	c.pipeReader.Close()
	c.module.release(c)
	return err
}

// bufferDuration is the playback time of the configured ring buffer.
func bufferDuration(cfg driver.Config) time.Duration {
	if cfg.Rate == 0 {
		return 0
	}
	frames := time.Duration(cfg.PeriodSize) * time.Duration(cfg.PeriodCount)
	return frames * time.Second / time.Duration(cfg.Rate)
}

// playerVolume converts a 0-100 percentage to oto's 0..1 volume.
func playerVolume(percent int) float64 {
	if percent <= 0 {
		return 0.0
	}
	if percent >= 100 {
		return 1.0
	}
	return float64(percent) / 100.0
}
