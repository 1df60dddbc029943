package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jai2010/CollabCanvas/internal/domain"
	"github.com/jai2010/CollabCanvas/internal/reactions"
	"github.com/jai2010/CollabCanvas/internal/transport"
)

// Config holds all client configuration
type Config struct {
	Endpoint         string
	HandshakeTimeout time.Duration

	Canvas  CanvasConfig
	Logging LoggingConfig
}

// CanvasConfig holds the canvas and reaction list settings
type CanvasConfig struct {
	Width      int // cells
	Height     int // cells
	CellWidth  float64
	CellHeight float64
	Capacity   int
	Window     time.Duration
	LocalEcho  bool
	Animation  time.Duration
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	File   string // empty discards, the terminal belongs to the UI
	Level  string
	Format string // "json" or "text"
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Endpoint:         transport.DefaultEndpoint,
		HandshakeTimeout: 10 * time.Second,
		Canvas: CanvasConfig{
			Width:      64,
			Height:     16,
			CellWidth:  10,
			CellHeight: 24,
			Capacity:   500,
			Animation:  600 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid endpoint scheme (must be ws or wss): %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("invalid endpoint: missing host")
	}

	if c.Canvas.Width < 1 || c.Canvas.Height < 1 {
		return fmt.Errorf("invalid canvas size: %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.CellWidth <= 0 || c.Canvas.CellHeight <= 0 {
		return fmt.Errorf("invalid cell size: %gx%g", c.Canvas.CellWidth, c.Canvas.CellHeight)
	}
	if c.Canvas.Capacity < 0 {
		return fmt.Errorf("invalid capacity (must be 0 or more): %d", c.Canvas.Capacity)
	}
	if c.Canvas.Window < 0 || c.Canvas.Animation < 0 || c.HandshakeTimeout < 0 {
		return errors.New("durations must not be negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	return nil
}

// Surface is the canvas size in the units sent on the wire
func (c *Config) Surface() domain.Surface {
	return domain.Surface{
		Width:  float64(c.Canvas.Width) * c.Canvas.CellWidth,
		Height: float64(c.Canvas.Height) * c.Canvas.CellHeight,
	}
}

func (c *Config) ListOptions() reactions.Options {
	return reactions.Options{
		Capacity: c.Canvas.Capacity,
		Window:   c.Canvas.Window,
	}
}
