package dusk

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the deserialized game configuration. Every field has a working
// default so a missing file runs the defaults.
type Config struct {
	Window WindowConfig `toml:"window"`
	Camera CameraConfig `toml:"camera"`
	Sim    SimConfig    `toml:"simulation"`
	Log    LogConfig    `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type CameraConfig struct {
	Zoom float32 `toml:"zoom"`
	PPUX float32 `toml:"ppu_x"`
	PPUY float32 `toml:"ppu_y"`
}

type SimConfig struct {
	FixedHz int `toml:"fixed_hz"`
}

type LogConfig struct {
	Prefix string `toml:"prefix"`
	Debug  bool   `toml:"debug"`
}

func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Title: "Dusk Hollow", Width: 1280, Height: 720},
		Camera: CameraConfig{Zoom: 1, PPUX: 32, PPUY: 16},
		Sim:    SimConfig{FixedHz: 60},
		Log:    LogConfig{Prefix: "dusk"},
	}
}

// LoadConfig reads the TOML file over the defaults. A missing file is not an
// error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FixedStep converts the configured simulation rate to a step duration.
func (c Config) FixedStep() time.Duration {
	hz := c.Sim.FixedHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}
