// ABOUTME: Command line flags for the playback host
// ABOUTME: Flags override values loaded from the YAML configuration
package main

import (
	"fmt"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/resonate-hal/internal/config"
	"github.com/Resonate-Protocol/resonate-hal/internal/version"
)

var (
	flagConfig      string
	flagWriteConfig string
	flagBackend     string
	flagCard        uint
	flagDevice      uint
	flagPeriodSize  uint32
	flagPeriodCount uint32
	flagRoute       []string
	flagVolume      int
	flagLoop        bool
	flagWakeLock    string
	flagLogFile     string
	flagLogLevel    string
	flagNoTUI       bool
	flagHelp        bool
	flagVersion     bool
)

func init() {
	flag.StringVarP(&flagConfig, "config", "c", "halplay.yaml", "Configuration file")
	flag.StringVar(&flagWriteConfig, "write-config", "", "Write the effective configuration to FILE and exit")
	flag.StringVarP(&flagBackend, "backend", "b", "", "Driver backend")
	flag.UintVar(&flagCard, "card", 0, "PCM card number")
	flag.UintVarP(&flagDevice, "device", "d", 0, "PCM device number")
	flag.Uint32Var(&flagPeriodSize, "period-size", 0, "Frames per period")
	flag.Uint32Var(&flagPeriodCount, "period-count", 0, "Periods in the ring buffer")
	flag.StringSliceVarP(&flagRoute, "route", "r", nil, "Output devices")
	flag.IntVar(&flagVolume, "volume", -1, "Initial volume in percent")
	flag.BoolVarP(&flagLoop, "loop", "l", false, "Restart the file at end of stream")
	flag.StringVar(&flagWakeLock, "wake-lock", "", "Wake lock mode")
	flag.StringVar(&flagLogFile, "log-file", "", "Log file path")
	flag.StringVar(&flagLogLevel, "log-level", "", "Log level")
	flag.BoolVar(&flagNoTUI, "no-tui", false, "Disable TUI, stream logs to stderr")

	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")

	flag.Usage = printHelp
}

const helpString = `Play an audio file through the audio hardware layer

Usage: halplay [OPTION]... [FILE]

With no FILE a 440Hz test tone is played. FILE may be .mp3, .flac,
.opus, .ogg or headerless .pcm/.raw.

Configuration:
  -c, --config=FILE        YAML configuration (default: halplay.yaml)
      --write-config=FILE  Write the effective configuration and exit

Output:
  -b, --backend=NAME       alsa, oto or portaudio (default: alsa)
      --card=NUM           PCM card (default: 0)
  -d, --device=NUM         PCM device (default: 0)
      --period-size=NUM    Frames per period (default: 1024)
      --period-count=NUM   Periods in the ring buffer (default: 4)
  -r, --route=LIST         Output devices, e.g. Speaker,Headset
      --volume=NUM         Initial volume in percent (default: 100)
  -l, --loop               Restart FILE at end of stream
      --wake-lock=MODE     sysfs or none (default: none)

Logging:
      --log-file=FILE      Append logs to FILE
      --log-level=LEVEL    error, warn, info, debug or verbose
      --no-tui             Disable the TUI and stream logs to stderr

Miscellaneous:
  -h, --help               Prints this help message and exits
  -v, --version            Prints version information and exits
`

func printHelp() {
	fmt.Print(helpString)
}

func printVersion() {
	fmt.Println(color.New(color.Bold).Sprint(version.Product), version.Version)
	fmt.Println(version.Manufacturer)
}

// applyFlags overrides cfg with flags the user set explicitly.
func applyFlags(cfg *config.Config) {
	if flag.CommandLine.Changed("backend") {
		cfg.Backend = flagBackend
	}
	if flag.CommandLine.Changed("card") {
		cfg.Device.Card = flagCard
	}
	if flag.CommandLine.Changed("device") {
		cfg.Device.Device = flagDevice
	}
	if flag.CommandLine.Changed("period-size") {
		cfg.Device.PeriodSize = flagPeriodSize
	}
	if flag.CommandLine.Changed("period-count") {
		cfg.Device.PeriodCount = flagPeriodCount
	}
	if flag.CommandLine.Changed("route") {
		cfg.Routing.Devices = flagRoute
	}
	if flag.CommandLine.Changed("volume") {
		cfg.Playback.Volume = flagVolume
	}
	if flag.CommandLine.Changed("loop") {
		cfg.Playback.Loop = flagLoop
	}
	if flag.CommandLine.Changed("wake-lock") {
		cfg.WakeLock.Mode = flagWakeLock
	}
	if flag.CommandLine.Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
	if flag.CommandLine.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
}
