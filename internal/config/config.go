// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"live-caption-room-service/internal/events"
	"live-caption-room-service/internal/ingest"
)

// Config is the complete service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Rooms         RoomsConfig         `yaml:"rooms"`
	Audio         AudioConfig         `yaml:"audio"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Translation   TranslationConfig   `yaml:"translation"`
	Kafka         events.Config       `yaml:"kafka"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Address         string `yaml:"address"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

// RoomsConfig contains room registry configuration.
type RoomsConfig struct {
	QueueCapacity    int `yaml:"queue_capacity"`
	RoomTTLMinutes   int `yaml:"room_ttl_minutes"`
	SweepIntervalSec int `yaml:"sweep_interval_seconds"`
}

// AudioConfig contains windowing and reconciliation parameters.
type AudioConfig struct {
	SampleRate      int     `yaml:"sample_rate"`
	Policy          string  `yaml:"policy"` // incremental | silence
	MinChunkSeconds float64 `yaml:"min_chunk_seconds"`
	SilenceFlushMs  int     `yaml:"silence_flush_ms"`
	MaxWindowSec    int     `yaml:"max_window_seconds"`
	VADThreshold    float64 `yaml:"vad_threshold"`
	FlushAfterSec   float64 `yaml:"flush_after_seconds"`
	ContextWords    int     `yaml:"context_words"`
}

// TranscriptionConfig selects and configures the STT backend.
type TranscriptionConfig struct {
	Backend      string `yaml:"backend"` // mock | google
	LanguageCode string `yaml:"language_code"`
}

// TranslationConfig selects and configures the translation backend.
type TranslationConfig struct {
	Backend    string `yaml:"backend"` // mock | deepl
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	SourceLang string `yaml:"source_lang"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			ShutdownSeconds: 10,
		},
		Rooms: RoomsConfig{
			QueueCapacity:    256,
			RoomTTLMinutes:   60,
			SweepIntervalSec: 60,
		},
		Audio: AudioConfig{
			SampleRate:      16000,
			Policy:          ingest.PolicyIncremental,
			MinChunkSeconds: 1,
			SilenceFlushMs:  700,
			MaxWindowSec:    30,
			FlushAfterSec:   15,
			ContextWords:    200,
		},
		Transcription: TranscriptionConfig{
			Backend:      "mock",
			LanguageCode: "en-US",
		},
		Translation: TranslationConfig{
			Backend:    "mock",
			SourceLang: "en",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and validates the configuration file. An empty path returns
// the defaults. The DeepL API key may also come from the DEEPL_API_KEY
// environment variable, which keeps the secret out of the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if cfg.Translation.APIKey == "" {
		cfg.Translation.APIKey = os.Getenv("DEEPL_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Rooms.Validate(); err != nil {
		return fmt.Errorf("rooms config: %w", err)
	}
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}
	if err := c.Translation.Validate(); err != nil {
		return fmt.Errorf("translation config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates server configuration.
func (s *ServerConfig) Validate() error {
	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if s.ShutdownSeconds < 1 {
		return fmt.Errorf("shutdown_seconds must be at least 1, got %d", s.ShutdownSeconds)
	}
	return nil
}

// Validate validates room registry configuration.
func (r *RoomsConfig) Validate() error {
	if r.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1, got %d", r.QueueCapacity)
	}
	if r.RoomTTLMinutes < 0 {
		return fmt.Errorf("room_ttl_minutes cannot be negative, got %d", r.RoomTTLMinutes)
	}
	if r.SweepIntervalSec < 1 {
		return fmt.Errorf("sweep_interval_seconds must be at least 1, got %d", r.SweepIntervalSec)
	}
	return nil
}

// Validate validates audio configuration.
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000, got %d", a.SampleRate)
	}
	if a.Policy != ingest.PolicyIncremental && a.Policy != ingest.PolicySilence {
		return fmt.Errorf("policy must be %q or %q, got %q", ingest.PolicyIncremental, ingest.PolicySilence, a.Policy)
	}
	if a.MinChunkSeconds <= 0 {
		return fmt.Errorf("min_chunk_seconds must be positive, got %f", a.MinChunkSeconds)
	}
	if a.SilenceFlushMs < 100 {
		return fmt.Errorf("silence_flush_ms must be at least 100, got %d", a.SilenceFlushMs)
	}
	if a.MaxWindowSec < 1 {
		return fmt.Errorf("max_window_seconds must be at least 1, got %d", a.MaxWindowSec)
	}
	if a.VADThreshold < 0 || a.VADThreshold > 1 {
		return fmt.Errorf("vad_threshold must be between 0 and 1, got %f", a.VADThreshold)
	}
	if a.FlushAfterSec <= 0 {
		return fmt.Errorf("flush_after_seconds must be positive, got %f", a.FlushAfterSec)
	}
	if a.ContextWords < 1 {
		return fmt.Errorf("context_words must be at least 1, got %d", a.ContextWords)
	}
	return nil
}

// Validate validates transcription configuration.
func (t *TranscriptionConfig) Validate() error {
	switch t.Backend {
	case "mock", "google":
	default:
		return fmt.Errorf("backend must be mock or google, got %q", t.Backend)
	}
	if t.LanguageCode == "" {
		return fmt.Errorf("language_code cannot be empty")
	}
	return nil
}

// Validate validates translation configuration.
func (t *TranslationConfig) Validate() error {
	switch t.Backend {
	case "mock":
	case "deepl":
		if t.APIKey == "" {
			return fmt.Errorf("deepl backend requires api_key (or DEEPL_API_KEY)")
		}
	default:
		return fmt.Errorf("backend must be mock or deepl, got %q", t.Backend)
	}
	return nil
}

// Validate validates logging configuration.
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of trace, debug, info, warn, error; got %q", l.Level)
	}
	switch l.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be json or console, got %q", l.Format)
	}
	return nil
}
