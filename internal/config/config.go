// Package config holds the server settings. Defaults are overridden by
// CHESS_* environment variables, which are overridden by command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr          string
	AllowOrigins  string
	Clock         time.Duration // per player
	MatchInterval time.Duration // matchmaking and timeout sweep period
	LogLevel      string
}

func Default() Config {
	return Config{
		Addr:          ":3000",
		AllowOrigins:  "http://localhost:5173",
		Clock:         10 * time.Minute,
		MatchInterval: time.Second,
		LogLevel:      "info",
	}
}

var levels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load builds a Config from getenv and the command-line args (without the
// program name).
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&cfg.AllowOrigins, "origins", cfg.AllowOrigins, "Comma-separated CORS origins")
	fs.DurationVar(&cfg.Clock, "clock", cfg.Clock, "Time per player")
	fs.DurationVar(&cfg.MatchInterval, "match-interval", cfg.MatchInterval, "Matchmaking tick")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "trace, debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv(getenv func(string) string) error {
	if v := getenv("CHESS_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("CHESS_ALLOW_ORIGINS"); v != "" {
		c.AllowOrigins = v
	}
	if v := getenv("CHESS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	for name, dst := range map[string]*time.Duration{
		"CHESS_CLOCK":          &c.Clock,
		"CHESS_MATCH_INTERVAL": &c.MatchInterval,
	} {
		v := getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
		*dst = d
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalidConfig)
	case c.Clock <= 0:
		return fmt.Errorf("%w: clock must be positive, got %s", ErrInvalidConfig, c.Clock)
	case c.MatchInterval <= 0:
		return fmt.Errorf("%w: match interval must be positive, got %s", ErrInvalidConfig, c.MatchInterval)
	}
	if _, ok := levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// Level returns the fiber log level named by LogLevel.
func (c Config) Level() log.Level {
	return levels[strings.ToLower(c.LogLevel)]
}
