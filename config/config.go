// Package config loads Pulse settings from a YAML file, a .env file and the
// environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pulse/engine"
)

// Config is the full application configuration.
type Config struct {
	Engine   engine.Config  `yaml:"engine"`
	Server   ServerConfig   `yaml:"server"`
	Sources  SourcesConfig  `yaml:"sources"`
	Narrator NarratorConfig `yaml:"narrator"`
	Notify   NotifyConfig   `yaml:"notify"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	MaxUploadMB   int64         `yaml:"max_upload_mb"`
	MaxSessions   int           `yaml:"max_sessions"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	NotifyOnAlert bool          `yaml:"notify_on_alert"`
}

// SourcesConfig holds connection strings for database-backed tables.
type SourcesConfig struct {
	Postgres string `yaml:"postgres"`
	MySQL    string `yaml:"mysql"`
	Mongo    string `yaml:"mongo"`
}

type NarratorConfig struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

type NotifyConfig struct {
	SlackWebhook string `yaml:"slack_webhook"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: engine.DefaultConfig(),
		Server: ServerConfig{
			Addr:         ":8080",
			MaxUploadMB:  50,
			MaxSessions:  100,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Narrator: NarratorConfig{
			Model: "gemini-2.5-flash-lite",
		},
	}
}

// Load reads path (optional), then .env, then environment overrides.
// Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ Pulse: ignoring .env: %v", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays PULSE_* and GEMINI_API_KEY variables.
func applyEnv(cfg *Config) error {
	cfg.Server.Addr = getEnv("PULSE_ADDR", cfg.Server.Addr)
	cfg.Sources.Postgres = getEnv("PULSE_POSTGRES_DSN", cfg.Sources.Postgres)
	cfg.Sources.MySQL = getEnv("PULSE_MYSQL_DSN", cfg.Sources.MySQL)
	cfg.Sources.Mongo = getEnv("PULSE_MONGO_URI", cfg.Sources.Mongo)
	cfg.Narrator.APIKey = getEnv("GEMINI_API_KEY", cfg.Narrator.APIKey)
	cfg.Narrator.Model = getEnv("PULSE_GEMINI_MODEL", cfg.Narrator.Model)
	cfg.Notify.SlackWebhook = getEnv("PULSE_SLACK_WEBHOOK", cfg.Notify.SlackWebhook)

	floats := []struct {
		key string
		dst *float64
	}{
		{"PULSE_DECLINE_THRESHOLD", &cfg.Engine.DeclineThreshold},
		{"PULSE_HIGH_SEVERITY_THRESHOLD", &cfg.Engine.HighSeverityThreshold},
		{"PULSE_HIGH_RISK_CUTOFF", &cfg.Engine.HighRiskCutoff},
		{"PULSE_MEDIUM_RISK_CUTOFF", &cfg.Engine.MediumRiskCutoff},
		{"PULSE_CONCENTRATION_THRESHOLD", &cfg.Engine.ConcentrationThreshold},
	}
	for _, f := range floats {
		if v, ok := os.LookupEnv(f.key); ok {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", f.key, v, err)
			}
			*f.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"PULSE_INACTIVITY_DAYS", &cfg.Engine.InactivityCeilingDays},
		{"PULSE_TREND_MONTHS", &cfg.Engine.TrendMonths},
		{"PULSE_MAX_SESSIONS", &cfg.Server.MaxSessions},
	}
	for _, i := range ints {
		if v, ok := os.LookupEnv(i.key); ok {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s=%q: %w", i.key, v, err)
			}
			*i.dst = parsed
		}
	}
	return nil
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
