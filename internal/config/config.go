// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the werewolf server.
type Config struct {
	Addr       string        `env:"WEREWOLF_ADDR" envDefault:":8080"`
	DBPath     string        `env:"WEREWOLF_DB_PATH"`
	VoteWindow time.Duration `env:"WEREWOLF_VOTE_WINDOW" envDefault:"90s"`
	MinPlayers int           `env:"WEREWOLF_MIN_PLAYERS" envDefault:"4"`
	MaxPlayers int           `env:"WEREWOLF_MAX_PLAYERS" envDefault:"12"`
	// PublicURL is the base used in join QR codes; empty means the request host.
	PublicURL string `env:"WEREWOLF_PUBLIC_URL"`
	LogLevel  string `env:"WEREWOLF_LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.MinPlayers < 3 {
		return fmt.Errorf("WEREWOLF_MIN_PLAYERS must be at least 3, got %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("WEREWOLF_MAX_PLAYERS (%d) must not be below WEREWOLF_MIN_PLAYERS (%d)", c.MaxPlayers, c.MinPlayers)
	}
	if c.VoteWindow < 0 {
		return fmt.Errorf("WEREWOLF_VOTE_WINDOW must not be negative")
	}
	return nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
