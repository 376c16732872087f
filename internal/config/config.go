// Package config loads airsketch settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server struct {
		Addr   string `yaml:"addr"`
		WebDir string `yaml:"web_dir"`
	} `yaml:"server"`

	Camera struct {
		DeviceID int `yaml:"device_id"`
		Width    int `yaml:"width"`
		Height   int `yaml:"height"`
		FPS      int `yaml:"fps"`
	} `yaml:"camera"`

	Detector struct {
		MaxHands              int     `yaml:"max_hands"`
		MinConfidence         float64 `yaml:"min_confidence"`
		MinTrackingConfidence float64 `yaml:"min_tracking_confidence"`
	} `yaml:"detector"`

	Gesture struct {
		// DebounceFrames > 1 enables pose hysteresis.
		DebounceFrames int `yaml:"debounce_frames"`
	} `yaml:"gesture"`

	Canvas struct {
		Color     string `yaml:"color"`
		ExportDir string `yaml:"export_dir"`
	} `yaml:"canvas"`

	Log struct {
		Dir   string `yaml:"dir"`
		Level string `yaml:"level"`
	} `yaml:"log"`

	Debug bool `yaml:"debug"`
	Tray  bool `yaml:"tray"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Camera.Width = 640
	cfg.Camera.Height = 480
	cfg.Camera.FPS = 15
	cfg.Detector.MaxHands = 1
	cfg.Detector.MinConfidence = 0.7
	cfg.Detector.MinTrackingConfidence = 0.5
	cfg.Gesture.DebounceFrames = 1
	cfg.Canvas.Color = "#ff3b30"
	cfg.Canvas.ExportDir = "."
	cfg.Log.Level = "info"
	cfg.Tray = true
	return &cfg
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("AIRSKETCH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("AIRSKETCH_WEB_DIR"); v != "" {
		c.Server.WebDir = v
	}
	if v := os.Getenv("AIRSKETCH_CAMERA"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AIRSKETCH_CAMERA: %w", err)
		}
		c.Camera.DeviceID = id
	}
	if v := os.Getenv("AIRSKETCH_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("AIRSKETCH_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AIRSKETCH_DEBUG: %w", err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size %dx%d must be positive", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera fps %d must be positive", c.Camera.FPS)
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		return fmt.Errorf("detector min_confidence %f out of [0,1]", c.Detector.MinConfidence)
	}
	if c.Detector.MinTrackingConfidence < 0 || c.Detector.MinTrackingConfidence > 1 {
		return fmt.Errorf("detector min_tracking_confidence %f out of [0,1]", c.Detector.MinTrackingConfidence)
	}
	if c.Gesture.DebounceFrames < 0 {
		return fmt.Errorf("gesture debounce_frames %d must not be negative", c.Gesture.DebounceFrames)
	}
	return nil
}
