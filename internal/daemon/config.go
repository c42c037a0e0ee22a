// Package daemon manages the Citadel daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/infra/showapi"
)

// EnvPrefix prefixes every environment override, e.g. CITADEL_API_PORT.
const EnvPrefix = "CITADEL"

// Config holds all daemon configuration.
type Config struct {
	API         APIConfig         `toml:"api"`
	Storage     StorageConfig     `toml:"storage"`
	Provider    ProviderConfig    `toml:"provider"`
	Progression ProgressionConfig `toml:"progression"`
	Logging     LoggingConfig     `toml:"logging"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins" split_words:"true"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver    string `toml:"driver"` // sqlite | redis
	RedisURL  string `toml:"redis_url" split_words:"true"`
	KeyPrefix string `toml:"key_prefix" split_words:"true"`
}

// ProviderConfig controls the show data client.
type ProviderConfig struct {
	BaseURL string `toml:"base_url" split_words:"true"`
	Timeout string `toml:"timeout"`
}

// ProgressionConfig tunes the fixed rewards.
type ProgressionConfig struct {
	DropChance    float64 `toml:"drop_chance" split_words:"true"`
	LocationXP    int     `toml:"location_xp" split_words:"true"`
	DropXP        int     `toml:"drop_xp" split_words:"true"`
	DailyXP       int     `toml:"daily_xp" split_words:"true"`
	QuizBaseXP    int     `toml:"quiz_base_xp" split_words:"true"`
	QuizQuestions int     `toml:"quiz_questions" split_words:"true"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"` // json | console
	File     string `toml:"file"`
}

// TelemetryConfig controls metrics exposure.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	pc := progression.DefaultConfig()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8137,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Driver:    "sqlite",
			RedisURL:  "redis://localhost:6379/0",
			KeyPrefix: "citadel:",
		},
		Provider: ProviderConfig{
			BaseURL: showapi.DefaultBaseURL,
			Timeout: "10s",
		},
		Progression: ProgressionConfig{
			DropChance:    pc.DropChance,
			LocationXP:    pc.LocationXP,
			DropXP:        pc.DropXP,
			DailyXP:       pc.DailyXP,
			QuizBaseXP:    pc.QuizBaseXP,
			QuizQuestions: 10,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// Engine converts the progression section to engine settings.
func (p ProgressionConfig) Engine() progression.Config {
	return progression.Config{
		DropChance: p.DropChance,
		LocationXP: p.LocationXP,
		DropXP:     p.DropXP,
		DailyXP:    p.DailyXP,
		QuizBaseXP: p.QuizBaseXP,
	}
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("storage.driver must be sqlite or redis, got %q", c.Storage.Driver)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	if c.Progression.DropChance < 0 || c.Progression.DropChance > 1 {
		return fmt.Errorf("progression.drop_chance must be within [0,1], got %v", c.Progression.DropChance)
	}
	if c.Progression.LocationXP < 0 || c.Progression.DropXP < 0 || c.Progression.DailyXP < 0 || c.Progression.QuizBaseXP < 0 {
		return fmt.Errorf("progression xp values must be non-negative")
	}
	if c.Progression.QuizQuestions <= 0 {
		return fmt.Errorf("progression.quiz_questions must be positive")
	}
	return nil
}

// LoadConfig reads $CITADEL_HOME/config.toml over the defaults, then applies
// CITADEL_* environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := ConfigPath()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("stat config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveConfig writes the config to $CITADEL_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// ConfigPath is the location of the config file.
func ConfigPath() string {
	return filepath.Join(citadelHome(), "config.toml")
}

// citadelHome returns the Citadel data directory.
func citadelHome() string {
	if env := os.Getenv("CITADEL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".citadel")
}

// CitadelHome is exported for use by other packages.
func CitadelHome() string {
	return citadelHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
