// ABOUTME: YAML configuration for the playback host
// ABOUTME: Selects the driver backend, device geometry, routing and wake locks
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Resonate-Protocol/resonate-hal/internal/logging"
	"github.com/Resonate-Protocol/resonate-hal/pkg/audio"
	"github.com/Resonate-Protocol/resonate-hal/pkg/hal/driver"
)

// Backends understood by the host.
const (
	BackendALSA      = "alsa"
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
)

// Wake-lock modes.
const (
	WakeLockSysfs = "sysfs"
	WakeLockNone  = "none"
)

// Config represents the application configuration
type Config struct {
	// Driver backend: alsa, oto or portaudio
	Backend string `yaml:"backend"`

	// Card name for the use-case manager
	Card string `yaml:"card"`

	Device   DeviceConfig   `yaml:"device"`
	Routing  RoutingConfig  `yaml:"routing"`
	WakeLock WakeLockConfig `yaml:"wake_lock"`
	Log      LogConfig      `yaml:"log"`
	Playback PlaybackConfig `yaml:"playback"`
}

// DeviceConfig describes the PCM device and its ring buffer
type DeviceConfig struct {
	Card        uint   `yaml:"card"`
	Device      uint   `yaml:"device"`
	Rate        uint32 `yaml:"rate"`
	Channels    uint32 `yaml:"channels"`
	Format      string `yaml:"format"`
	PeriodSize  uint32 `yaml:"period_size"`
	PeriodCount uint32 `yaml:"period_count"`
}

// RoutingConfig selects output devices and the audio mode
type RoutingConfig struct {
	Devices []string `yaml:"devices"`
	Mode    string   `yaml:"mode"`
}

// WakeLockConfig selects how streams hold the system awake
type WakeLockConfig struct {
	Mode string `yaml:"mode"`
	Dir  string `yaml:"dir,omitempty"`
	Tag  string `yaml:"tag,omitempty"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`

	// Per-tag levels, e.g. {PlaybackStream: debug}
	Tags map[string]string `yaml:"tags,omitempty"`
}

// PlaybackConfig controls the host player
type PlaybackConfig struct {
	Loop   bool `yaml:"loop"`
	Volume int  `yaml:"volume"`

	// Layout of headerless .pcm files
	RawRate     int `yaml:"raw_rate"`
	RawChannels int `yaml:"raw_channels"`
	RawBitDepth int `yaml:"raw_bit_depth"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendALSA,
		Card:    "default",
		Device: DeviceConfig{
			Card:        0,
			Device:      0,
			Rate:        48000,
			Channels:    2,
			Format:      driver.FormatS16LE.String(),
			PeriodSize:  1024,
			PeriodCount: 4,
		},
		Routing: RoutingConfig{
			Devices: []string{"Speaker"},
			Mode:    driver.ModeNormal.String(),
		},
		WakeLock: WakeLockConfig{
			Mode: WakeLockNone,
			Dir:  "/sys/power",
		},
		Log: LogConfig{
			Level: "info",
		},
		Playback: PlaybackConfig{
			Volume:      100,
			RawRate:     48000,
			RawChannels: 2,
			RawBitDepth: 16,
		},
	}
}

// LoadConfig loads configuration from file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every field that can be rejected before opening hardware.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendALSA, BackendOto, BackendPortAudio:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if _, err := c.DriverConfig(); err != nil {
		return err
	}
	if _, err := c.OutputDevices(); err != nil {
		return err
	}
	if _, err := c.Mode(); err != nil {
		return err
	}

	switch c.WakeLock.Mode {
	case WakeLockSysfs, WakeLockNone:
	default:
		return fmt.Errorf("unknown wake lock mode %q", c.WakeLock.Mode)
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	for tag, level := range c.Log.Tags {
		if _, err := logging.ParseLevel(level); err != nil {
			return fmt.Errorf("log tag %s: %w", tag, err)
		}
	}

	if c.Playback.Volume < 0 || c.Playback.Volume > 100 {
		return fmt.Errorf("volume must be 0-100, got %d", c.Playback.Volume)
	}
	if _, err := NewRawFormat(c.Playback); err != nil {
		return err
	}
	return nil
}

// DriverConfig converts the device section for driver backends.
func (c *Config) DriverConfig() (driver.Config, error) {
	format, err := driver.ParseSampleFormat(c.Device.Format)
	if err != nil {
		return driver.Config{}, err
	}
	dc := driver.Config{
		Card:        c.Device.Card,
		Device:      c.Device.Device,
		Rate:        c.Device.Rate,
		Channels:    c.Device.Channels,
		Format:      format,
		PeriodSize:  c.Device.PeriodSize,
		PeriodCount: c.Device.PeriodCount,
	}
	if err := dc.Validate(); err != nil {
		return driver.Config{}, err
	}
	return dc, nil
}

// OutputDevices returns the routing device mask.
func (c *Config) OutputDevices() (driver.Device, error) {
	return driver.ParseDevices(c.Routing.Devices)
}

// Mode returns the configured audio mode.
func (c *Config) Mode() (driver.Mode, error) {
	return driver.ParseMode(c.Routing.Mode)
}

// NewRawFormat describes headerless PCM files.
func NewRawFormat(p PlaybackConfig) (audio.Format, error) {
	f := audio.Format{
		Codec:      "pcm",
		SampleRate: p.RawRate,
		Channels:   p.RawChannels,
		BitDepth:   p.RawBitDepth,
	}
	if err := f.Validate(); err != nil {
		return audio.Format{}, fmt.Errorf("raw format: %w", err)
	}
	if f.BitDepth != 16 && f.BitDepth != 24 {
		return audio.Format{}, fmt.Errorf("raw format: unsupported bit depth %d", f.BitDepth)
	}
	return f, nil
}
