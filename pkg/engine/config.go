package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ltyridium/LumaFlow/pkg/spectro"
	"github.com/ltyridium/LumaFlow/pkg/tilecache"
	"github.com/ltyridium/LumaFlow/pkg/timeline"
)

// Display contains viewer window settings.
type Display struct {
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	Colormap     string  `toml:"colormap"`
	PixelsPerBin float64 `toml:"pixels_per_bin"`
}

// Audio contains spectrogram source settings.
type Audio struct {
	ChannelMode   string `toml:"channel_mode"`
	TrackStoreDir string `toml:"track_store_dir"`
}

// Render contains worker pool and cache settings.
type Render struct {
	Workers       int `toml:"workers"`
	QueueDepth    int `toml:"queue_depth"`
	CacheCapacity int `toml:"cache_capacity"`
}

// Calibration contains the display color correction curve.
type Calibration struct {
	Gamma     float64 `toml:"gamma"`
	RedGain   float64 `toml:"red_gain"`
	GreenGain float64 `toml:"green_gain"`
	BlueGain  float64 `toml:"blue_gain"`
}

// Stream contains the event stream server settings.
type Stream struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Config is the full viewer/engine configuration.
type Config struct {
	Display     Display     `toml:"display"`
	Audio       Audio       `toml:"audio"`
	Render      Render      `toml:"render"`
	Calibration Calibration `toml:"calibration"`
	Stream      Stream      `toml:"stream"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Display: Display{
			Width:        1280,
			Height:       720,
			Colormap:     spectro.DefaultColormap,
			PixelsPerBin: 6,
		},
		Audio: Audio{
			ChannelMode:   spectro.ChannelMix,
			TrackStoreDir: "data/tracks",
		},
		Render: Render{
			Workers:       4,
			QueueDepth:    64,
			CacheCapacity: tilecache.DefaultCapacity,
		},
		Calibration: Calibration{
			Gamma:     timeline.DefaultGamma,
			RedGain:   timeline.DefaultRedGain,
			GreenGain: timeline.DefaultGreenGain,
			BlueGain:  timeline.DefaultBlueGain,
		},
		Stream: Stream{
			Enabled: false,
			Bind:    "127.0.0.1:8974",
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an
// error; the defaults are returned as-is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size %dx%d is not positive", c.Display.Width, c.Display.Height)
	}
	if c.Display.PixelsPerBin <= 0 {
		return fmt.Errorf("pixels_per_bin %.2f is not positive", c.Display.PixelsPerBin)
	}
	switch c.Audio.ChannelMode {
	case spectro.ChannelMix, spectro.ChannelLeft, spectro.ChannelRight:
	default:
		return fmt.Errorf("unknown channel_mode %q", c.Audio.ChannelMode)
	}
	if c.Calibration.Gamma <= 0 {
		return fmt.Errorf("gamma %.2f is not positive", c.Calibration.Gamma)
	}
	return nil
}

// LUT builds the color calibration table from the config.
func (c *Config) LUT() *timeline.ColorLUT {
	lut := timeline.NewColorLUT(c.Calibration.Gamma, c.Calibration.RedGain, c.Calibration.GreenGain, c.Calibration.BlueGain)
	return &lut
}
