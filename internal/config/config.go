package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/inamate/inamate/pathedit/internal/engine"
	"github.com/inamate/inamate/pathedit/internal/subpath"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	OperatorKey    string `envconfig:"OPERATOR_KEY"`
	RequireAuth    bool   `envconfig:"REQUIRE_AUTH" default:"false"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	HighlightStrokeWidth float64  `envconfig:"HIGHLIGHT_STROKE_WIDTH" default:"1"`
	Palette              []string `envconfig:"PALETTE"`
	JointTolerance       float64  `envconfig:"JOINT_TOLERANCE" default:"0.1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.SlogLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SlogLevel parses LOG_LEVEL (debug, info, warn, error).
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}

// CORSOrigins returns ALLOWED_ORIGINS as full origins.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Origins returns ALLOWED_ORIGINS as host patterns for websocket.Accept.
func (c *Config) Origins() []string {
	origins := c.CORSOrigins()
	for i, o := range origins {
		o = strings.TrimPrefix(o, "http://")
		origins[i] = strings.TrimPrefix(o, "https://")
	}
	return origins
}

// EngineOptions maps the editing settings onto session options.
func (c *Config) EngineOptions(logger *slog.Logger) engine.Options {
	var palette subpath.Palette
	for _, color := range c.Palette {
		if color = strings.TrimSpace(color); color != "" {
			palette = append(palette, color)
		}
	}
	return engine.Options{
		Logger:               logger,
		Palette:              palette,
		HighlightStrokeWidth: c.HighlightStrokeWidth,
		JointTolerance:       c.JointTolerance,
	}
}
