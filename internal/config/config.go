// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/pefman/cosmic-race/internal/game"
)

// Config is the game server configuration.
type Config struct {
	Port     string `env:"PORT"`
	GamePort string `env:"GAME_PORT" envDefault:"8081"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Locale   string `env:"LOCALE" envDefault:"pt-BR"`

	// StatsAPIBase points at the stats service; empty keeps results in-process.
	StatsAPIBase string `env:"STATS_API_BASE"`

	BoardSize        int           `env:"BOARD_SIZE" envDefault:"30"`
	RollDisplayDelay time.Duration `env:"ROLL_DISPLAY_DELAY" envDefault:"1500ms"`
	HandoffDelay     time.Duration `env:"HANDOFF_DELAY" envDefault:"2s"`
	ThinkingDelay    time.Duration `env:"THINKING_DELAY" envDefault:"2s"`
	VictoryDelay     time.Duration `env:"VICTORY_DELAY" envDefault:"1s"`
	SpeechPause      time.Duration `env:"SPEECH_PAUSE" envDefault:"150ms"`

	RollKey    string `env:"ROLL_KEY" envDefault:"Enter"`
	VoiceKey   string `env:"VOICE_KEY" envDefault:"Space"`
	RestartKey string `env:"RESTART_KEY" envDefault:"KeyR"`

	InputRate  float64 `env:"INPUT_RATE" envDefault:"5"`
	InputBurst int     `env:"INPUT_BURST" envDefault:"10"`
}

// StatsConfig is the stats API configuration.
type StatsConfig struct {
	Port     string `env:"PORT"`
	APIPort  string `env:"STATS_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the game server configuration.
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

func (c Config) Validate() error {
	var errs []error
	if c.BoardSize <= 0 {
		errs = append(errs, fmt.Errorf("BOARD_SIZE must be positive, got %d", c.BoardSize))
	}
	for name, d := range map[string]time.Duration{
		"ROLL_DISPLAY_DELAY": c.RollDisplayDelay,
		"HANDOFF_DELAY":      c.HandoffDelay,
		"THINKING_DELAY":     c.ThinkingDelay,
		"VICTORY_DELAY":      c.VictoryDelay,
		"SPEECH_PAUSE":       c.SpeechPause,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", name, d))
		}
	}
	if c.InputRate <= 0 || c.InputBurst <= 0 {
		errs = append(errs, errors.New("INPUT_RATE and INPUT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// ListenAddr prefers PORT (as set by most hosts) over GAME_PORT.
func (c Config) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return ":" + c.GamePort
}

func (c Config) Game() game.Config {
	return game.Config{
		BoardSize:        c.BoardSize,
		RollDisplayDelay: c.RollDisplayDelay,
		HandoffDelay:     c.HandoffDelay,
		ThinkingDelay:    c.ThinkingDelay,
		VictoryDelay:     c.VictoryDelay,
	}
}

func (c Config) Keys() game.Keys {
	return game.Keys{Roll: c.RollKey, Voice: c.VoiceKey, Restart: c.RestartKey}
}

// LoadStats parses the stats API configuration.
func LoadStats() (StatsConfig, error) {
	var cfg StatsConfig
	if err := ParseEnv(&cfg); err != nil {
		return StatsConfig{}, err
	}
	return cfg, nil
}

func (c StatsConfig) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return ":" + c.APIPort
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
