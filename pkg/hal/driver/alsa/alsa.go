//go:build linux

// ABOUTME: Kernel PCM driver backend built on the pure-Go tinyalsa port
// ABOUTME: Opens hw:card,device and maps bad-state write failures to driver.ErrBadState
package alsa

import (
	"fmt"
	"sync"

	tinyalsa "github.com/gen2brain/alsa"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/ucm"
)

var log = logging.WithTag("alsa")

// Module drives kernel PCM devices. LPA volume is applied as software gain.
type Module struct {
	mu   sync.Mutex
	gain int
}

// New creates an ALSA module at full volume.
func New() *Module {
	return &Module{gain: 100}
}

func (m *Module) volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gain
}

// Open opens hw:Card,Device with the handle's configuration, replacing any
// existing connection.
func (m *Module) Open(h *driver.Handle) error {
	if h.Conn != nil {
		_ = h.Conn.Close()
		h.Conn = nil
	}

	cfg := h.Config
	format, err := pcmFormat(cfg.Format)
	if err != nil {
		return err
	}

	pcm, err := tinyalsa.PcmOpen(cfg.Card, cfg.Device, tinyalsa.PCM_OUT, &tinyalsa.Config{
		Channels:    cfg.Channels,
		Rate:        cfg.Rate,
		PeriodSize:  cfg.PeriodSize,
		PeriodCount: cfg.PeriodCount,
		Format:      format,
	})
	if err != nil {
		return errors.Wrapf(err, "alsa: open hw:%d,%d", cfg.Card, cfg.Device)
	}

	h.Conn = &conn{pcm: pcm, module: m, format: cfg.Format}
	h.LatencyMicros = latencyMicros(pcm.PeriodSize(), pcm.PeriodCount(), pcm.Rate())

	log.Debug("opened hw:%d,%d period=%d count=%d latency=%dus",
		cfg.Card, cfg.Device, pcm.PeriodSize(), pcm.PeriodCount(), h.LatencyMicros)
	return nil
}

// Close closes the connection and drops the handle's use case.
func (m *Module) Close(h *driver.Handle) error {
	var err error
	if h.Conn != nil {
		err = h.Conn.Close()
		h.Conn = nil
	}

	if h.UseCase != "" && h.UCM != nil {
		ident, value := ucm.IdentDisableMod, h.UseCase.String()
		if h.UseCase.IsVerb() {
			ident, value = ucm.IdentVerb, ucm.VerbInactive
		}
		if uerr := h.UCM.Set(ident, value); uerr != nil {
			log.Warn("failed to drop use case %s: %v", h.UseCase, uerr)
		}
	}

	if err != nil {
		return errors.Wrap(err, "alsa: close")
	}
	return nil
}

// Standby drops pending frames and re-prepares the device so the next write
// starts it again.
func (m *Module) Standby(h *driver.Handle) error {
	c, ok := h.Conn.(*conn)
	if !ok || c == nil {
		return nil
	}
	if err := c.pcm.Stop(); err != nil {
		return errors.Wrap(err, "alsa: standby")
	}
	if err := c.pcm.Prepare(); err != nil {
		return errors.Wrap(err, "alsa: prepare after standby")
	}
	return nil
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

type conn struct {
	pcm     *tinyalsa.PCM
	module  *Module
	format  driver.SampleFormat
	scratch []byte
}

func (c *conn) Write(p []byte) (int, error) {
	buf := p
	if gain := c.module.volume(); gain < 100 && c.format == driver.FormatS16LE {
		if cap(c.scratch) < len(p) {
			c.scratch = make([]byte, len(p))
		}
		buf = c.scratch[:len(p)]
		driver.ApplyGain(buf, p, gain)
	}

	n, err := c.pcm.Write(buf)
	if err != nil {
		if errors.Is(err, unix.EBADFD) {
			return 0, fmt.Errorf("alsa: write: %w: %w", driver.ErrBadState, err)
		}
		return 0, errors.Wrap(err, "alsa: write")
	}
	return n, nil
}

func (c *conn) PeriodSize() uint32 { return c.pcm.PeriodSize() }

func (c *conn) FrameSize() uint32 { return c.pcm.FrameSize() }

func (c *conn) Close() error { return c.pcm.Close() }

func pcmFormat(f driver.SampleFormat) (tinyalsa.PcmFormat, error) {
	switch f {
	case driver.FormatS16LE:
		return tinyalsa.SNDRV_PCM_FORMAT_S16_LE, nil
	case driver.FormatS24LE:
		return tinyalsa.SNDRV_PCM_FORMAT_S24_LE, nil
	case driver.FormatS32LE:
		return tinyalsa.SNDRV_PCM_FORMAT_S32_LE, nil
	default:
		return 0, fmt.Errorf("alsa: unsupported format %v", f)
	}
}
