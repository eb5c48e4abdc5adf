// ABOUTME: Entry point for the HAL playback host
// ABOUTME: Builds the hardware interface from config and plays a file through it
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/resonate-hal/internal/app"
	"github.com/Resonate-Protocol/resonate-hal/internal/config"
	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/internal/ui"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver/alsa"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver/oto"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver/portaudio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/stream"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/wakelock"
)

var log = logging.WithTag("halplay")

func main() {
	flag.Parse()

	if flagHelp {
		printHelp()
		return
	}
	if flagVersion {
		printVersion()
		return
	}

	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if flagWriteConfig != "" {
		if err := config.SaveConfig(flagWriteConfig, cfg); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Configuration written to %s\n", flagWriteConfig)
		return
	}

	useTUI := !flagNoTUI
	closeLog, err := setupLogging(cfg.Log, useTUI)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	if err := run(cfg, flag.Arg(0), useTUI); err != nil {
		log.Error("%v", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, path string, useTUI bool) error {
	module, cleanup, err := newModule(cfg.Backend)
	if err != nil {
		return err
	}
	defer cleanup()

	hw, params, err := newHardware(cfg, module)
	if err != nil {
		return err
	}
	defer hw.Close()

	raw, err := config.NewRawFormat(cfg.Playback)
	if err != nil {
		return err
	}
	src, err := decode.Open(path, decode.Options{Loop: cfg.Playback.Loop, Raw: raw})
	if err != nil {
		return err
	}

	title := path
	if title == "" {
		title = fmt.Sprintf("%gHz test tone", decode.DefaultToneFrequency)
	}

	player, err := app.New(app.Config{
		Hardware: hw,
		Params:   params,
		Source:   src,
		Title:    title,
		Volume:   cfg.Playback.Volume,
	})
	if err != nil {
		src.Close()
		return err
	}
	defer player.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if !useTUI {
		return player.Run(ctx)
	}

	ctrl := ui.NewControl()
	tui := ui.New(ctrl)
	go tui.Follow(player.Status(), ctx.Done())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-ctrl.Volume:
				player.SetVolume(v)
			case paused := <-ctrl.Pause:
				player.SetPaused(paused)
			case <-ctrl.Quit:
				cancel()
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- player.Run(ctx)
		tui.Stop()
	}()

	tuiErr := tui.Run()
	cancel()
	if err := <-errCh; err != nil {
		return err
	}
	if tuiErr != nil {
		return fmt.Errorf("tui: %w", tuiErr)
	}
	return nil
}

// newModule selects the driver backend. The cleanup function releases
// backend-wide resources.
func newModule(backend string) (driver.Ops, func(), error) {
	switch backend {
	case config.BackendALSA:
		return alsa.New(), func() {}, nil
	case config.BackendOto:
		return oto.New(), func() {}, nil
	case config.BackendPortAudio:
		m := portaudio.New()
		return m, func() {
			if err := m.Terminate(); err != nil {
				log.Warn("portaudio terminate: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func newHardware(cfg *config.Config, module driver.Ops) (*hal.Hardware, stream.Params, error) {
	dc, err := cfg.DriverConfig()
	if err != nil {
		return nil, stream.Params{}, err
	}
	devices, err := cfg.OutputDevices()
	if err != nil {
		return nil, stream.Params{}, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, stream.Params{}, err
	}

	var locker wakelock.Locker = wakelock.Nop{}
	if cfg.WakeLock.Mode == config.WakeLockSysfs {
		locker = wakelock.NewSysfs(cfg.WakeLock.Dir)
	}

	hw, err := hal.New(hal.Config{
		Card:    cfg.Card,
		Driver:  dc,
		Module:  module,
		Locker:  locker,
		LockTag: cfg.WakeLock.Tag,
	})
	if err != nil {
		return nil, stream.Params{}, err
	}
	if err := hw.SetMode(mode); err != nil {
		return nil, stream.Params{}, err
	}

	return hw, stream.Params{
		Devices:  devices,
		Format:   dc.Format,
		Channels: dc.Channels,
		Rate:     dc.Rate,
	}, nil
}

// setupLogging applies levels and directs output. With the TUI active logs
// go only to the file, or are discarded without one.
func setupLogging(lc config.LogConfig, useTUI bool) (func(), error) {
	level, err := logging.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	logging.DefaultLogger.SetLevel(level)
	for tag, name := range lc.Tags {
		l, err := logging.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("log level for %s: %w", tag, err)
		}
		logging.SetTagLevel(tag, l)
	}

	var f *os.File
	if lc.File != "" {
		f, err = os.OpenFile(lc.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}

	switch {
	case useTUI && f != nil:
		logging.DefaultLogger.SetOutput(f)
	case useTUI:
		logging.DefaultLogger.SetOutput(io.Discard)
	case f != nil:
		logging.DefaultLogger.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	return func() {
		if f != nil {
			_ = f.Close()
		}
	}, nil
}
