// ABOUTME: Main player application orchestration
// ABOUTME: Pulls periods from a decoded source and drives the HAL output stream
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/stream"
)

var log = logging.WithTag("player")

// Defaults for zero Config fields.
const (
	DefaultRetryDelay     = 50 * time.Millisecond
	DefaultStatusInterval = 250 * time.Millisecond
)

// Config holds player configuration
type Config struct {
	// Hardware owns the output; the player opens and closes its stream.
	Hardware *hal.Hardware

	// Params describe the output stream.
	Params stream.Params

	// Source is read until it ends. The player closes it.
	Source decode.Source

	// Title is shown in status updates.
	Title string

	// Volume is the initial volume in percent.
	Volume int

	// RetryDelay is the pause between attempts while the device is
	// unavailable.
	RetryDelay time.Duration

	// MaxRetries bounds consecutive failed writes; 0 retries until the
	// context ends.
	MaxRetries int

	// StatusInterval is how often Status receives a snapshot.
	StatusInterval time.Duration
}

// Status is a snapshot of the player for display
type Status struct {
	Title    string
	Source   audio.Format
	Stream   stream.Status
	Params   stream.Params
	Volume   int
	Paused   bool
	Finished bool
	Retries  uint64
}

// Player represents the main player application
type Player struct {
	config Config
	hw     *hal.Hardware
	stream *stream.PlaybackStream
	reader *decode.Reader

	volumeCh chan int
	pauseCh  chan bool
	statusCh chan Status

	volume   int
	paused   bool
	finished bool
	retries  uint64
}

// New opens the output stream and prepares the source for its format.
func New(config Config) (*Player, error) {
	if config.Hardware == nil {
		return nil, errors.New("player: no hardware")
	}
	if config.Source == nil {
		return nil, errors.New("player: no source")
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.StatusInterval <= 0 {
		config.StatusInterval = DefaultStatusInterval
	}
	config.Volume = max(0, min(100, config.Volume))

	reader, err := decode.NewReader(config.Source, decode.Target{
		SampleRate: int(config.Params.Rate),
		Channels:   int(config.Params.Channels),
		Format:     config.Params.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("player: %w", err)
	}

	s, err := config.Hardware.OpenOutputStream(config.Params)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("player: %w", err)
	}

	return &Player{
		config:   config,
		hw:       config.Hardware,
		stream:   s,
		reader:   reader,
		volumeCh: make(chan int, 10),
		pauseCh:  make(chan bool, 1),
		statusCh: make(chan Status, 10),
		volume:   config.Volume,
	}, nil
}

// SetVolume requests a volume change in percent.
func (p *Player) SetVolume(volume int) {
	select {
	case p.volumeCh <- volume:
	default:
		log.Debug("volume request dropped, queue full")
	}
}

// SetPaused requests pause or resume. Pausing puts the device in standby.
func (p *Player) SetPaused(paused bool) {
	// Only the latest request matters.
	select {
	case <-p.pauseCh:
	default:
	}
	p.pauseCh <- paused
}

// Status delivers periodic snapshots. Updates are dropped if unread.
func (p *Player) Status() <-chan Status {
	return p.statusCh
}

// Run plays the source until it ends or ctx is done. The device is in
// standby when Run returns.
func (p *Player) Run(ctx context.Context) error {
	format := p.reader.Format()
	log.Info("Playing %q: %v -> %dHz %dch %v on %v", p.config.Title, format,
		p.config.Params.Rate, p.config.Params.Channels, p.config.Params.Format, p.config.Params.Devices)

	ticker := time.NewTicker(p.config.StatusInterval)
	defer ticker.Stop()

	p.applyVolume(p.volume)

	buf := make([]byte, p.hw.Handle().PeriodBytes())
	for {
		if p.paused {
			select {
			case <-ctx.Done():
				return nil
			case v := <-p.volumeCh:
				p.applyVolume(v)
			case paused := <-p.pauseCh:
				p.setPaused(paused)
			case <-ticker.C:
				p.publish()
			}
			continue
		}

		select {
		case <-ctx.Done():
			p.standby()
			return nil
		case v := <-p.volumeCh:
			p.applyVolume(v)
		case paused := <-p.pauseCh:
			p.setPaused(paused)
			continue
		case <-ticker.C:
			p.publish()
		default:
		}

		n, err := io.ReadFull(p.reader, buf)
		if n > 0 {
			if werr := p.write(ctx, buf[:n]); werr != nil {
				p.standby()
				if ctx.Err() != nil {
					return nil
				}
				return werr
			}
		}

		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			log.Info("End of stream after %d frames", p.stream.Status().FramesWritten)
			p.standby()
			p.finished = true
			p.publish()
			return nil
		}
		if err != nil {
			p.standby()
			return fmt.Errorf("read source: %w", err)
		}
	}
}

// write hands data to the stream, retrying while the device is unavailable.
func (p *Player) write(ctx context.Context, data []byte) error {
	for attempt := 1; ; attempt++ {
		n, err := p.stream.Write(data)
		if err == nil {
			return nil
		}
		if !errors.Is(err, stream.ErrDeviceUnavailable) && !errors.Is(err, driver.ErrBadState) {
			return fmt.Errorf("write: %w", err)
		}

		data = data[n:]
		p.retries++
		if p.config.MaxRetries > 0 && attempt >= p.config.MaxRetries {
			return fmt.Errorf("write: giving up after %d attempts: %w", attempt, err)
		}
		log.Debug("Device unavailable (attempt %d), retrying in %v: %v", attempt, p.config.RetryDelay, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.config.RetryDelay):
		}
	}
}

// applyVolume uses the amplifier when the use case has one and software
// gain otherwise.
func (p *Player) applyVolume(volume int) {
	volume = max(0, min(100, volume))
	p.volume = volume

	level := float32(volume) / 100
	err := p.stream.SetVolume(level, level)
	switch {
	case err == nil:
		p.reader.SetGain(100)
	case errors.Is(err, stream.ErrInvalidOperation):
		p.reader.SetGain(volume)
	default:
		log.Warn("set volume %d: %v", volume, err)
	}
	log.Debug("Volume set to %d", volume)
}

func (p *Player) setPaused(paused bool) {
	if paused == p.paused {
		return
	}
	p.paused = paused
	if paused {
		p.standby()
		log.Info("Paused")
	} else {
		log.Info("Resumed")
	}
	p.publish()
}

func (p *Player) standby() {
	if err := p.stream.Standby(); err != nil {
		log.Warn("standby: %v", err)
	}
}

func (p *Player) snapshot() Status {
	return Status{
		Title:    p.config.Title,
		Source:   p.reader.Format(),
		Stream:   p.stream.Status(),
		Params:   p.config.Params,
		Volume:   p.volume,
		Paused:   p.paused,
		Finished: p.finished,
		Retries:  p.retries,
	}
}

func (p *Player) publish() {
	select {
	case p.statusCh <- p.snapshot():
	default:
		// Don't block if channel is full
	}
}

// Close closes the output stream and the source.
func (p *Player) Close() error {
	err := p.hw.CloseOutputStream(p.stream)
	if cerr := p.reader.Close(); err == nil {
		err = cerr
	}
	return err
}
