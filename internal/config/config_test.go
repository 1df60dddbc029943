package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Endpoint != "ws://localhost:3000/api/ws" {
		t.Fatalf("endpoint: got %q", cfg.Endpoint)
	}

	s := cfg.Surface()
	if s.Width != 640 || s.Height != 384 {
		t.Fatalf("surface: got %vx%v want 640x384", s.Width, s.Height)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{name: "wss", modify: func(c *Config) { c.Endpoint = "wss://canvas.example.com/api/ws" }},
		{name: "http scheme", modify: func(c *Config) { c.Endpoint = "http://localhost:3000/api/ws" }, want: "scheme"},
		{name: "no host", modify: func(c *Config) { c.Endpoint = "ws:///api/ws" }, want: "missing host"},
		{name: "zero width", modify: func(c *Config) { c.Canvas.Width = 0 }, want: "canvas size"},
		{name: "zero cell", modify: func(c *Config) { c.Canvas.CellHeight = 0 }, want: "cell size"},
		{name: "negative capacity", modify: func(c *Config) { c.Canvas.Capacity = -1 }, want: "capacity"},
		{name: "unbounded", modify: func(c *Config) { c.Canvas.Capacity = 0 }},
		{name: "negative window", modify: func(c *Config) { c.Canvas.Window = -time.Second }, want: "negative"},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "trace" }, want: "log level"},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, want: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("validate: got %v want error containing %q", err, tt.want)
			}
		})
	}
}

func TestListOptions(t *testing.T) {
	cfg := Default()
	cfg.Canvas.Window = time.Minute

	opts := cfg.ListOptions()
	if opts.Capacity != 500 || opts.Window != time.Minute {
		t.Fatalf("list options: got %+v", opts)
	}
}
