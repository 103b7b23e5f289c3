// Package config persists application settings as a JSON file and layers
// environment overrides on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"

	"github.com/xb0or/Gemini-TTS/internal/gemini"
	"github.com/xb0or/Gemini-TTS/internal/voices"
)

// Version is written into every saved configuration file.
const Version = "1.0.0"

// DefaultBaseURL is the Gemini API endpoint used when none is configured.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

const defaultLogFile = "gemini-tts.log"

// Config is the persisted application configuration. Field names follow the
// on-disk JSON schema.
type Config struct {
	APIKey         string         `json:"api_key" mapstructure:"api_key" env:"GTTS_API_KEY"`
	BaseURL        string         `json:"base_url" mapstructure:"base_url" env:"GTTS_BASE_URL"`
	Model          string         `json:"model" mapstructure:"model" env:"GTTS_MODEL"`
	DefaultVoice   string         `json:"default_voice" mapstructure:"default_voice"`
	DefaultOutput  string         `json:"default_output" mapstructure:"default_output"`
	InputTextPath  string         `json:"input_text_path" mapstructure:"input_text_path"`
	Voices         []voices.Voice `json:"voices" mapstructure:"voices"`
	VoicesCachedAt int64          `json:"voices_cached_at" mapstructure:"voices_cached_at"`
	DebugEnabled   bool           `json:"debug_enabled" mapstructure:"debug_enabled" env:"GTTS_DEBUG"`
	LogFile        string         `json:"log_file" mapstructure:"log_file"`
	BatchTasksPath string         `json:"batch_tasks_path" mapstructure:"batch_tasks_path"`
	MultiDelaySecs float64        `json:"multi_delay_seconds" mapstructure:"multi_delay_seconds"`
	Version        string         `json:"version" mapstructure:"version"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:       DefaultBaseURL,
		Model:         gemini.DefaultModel,
		DefaultVoice:  "Zephyr",
		DefaultOutput: "output.wav",
		InputTextPath: "input.txt",
		Voices:        voices.Defaults(),
		LogFile:       defaultLogFile,
		Version:       Version,
	}
}

// DefaultPath returns the per-user configuration file location, falling
// back to the working directory when the user scope is unavailable.
func DefaultPath() string {
	scope := gap.NewScope(gap.User, "gemini-tts")
	path, err := scope.ConfigPath("config.json")
	if err != nil {
		log.Warn("cannot determine user config dir, using working directory", "err", err)
		return "config.json"
	}
	return path
}

// Load reads the configuration at path, creating it with defaults when
// absent and restoring defaults when the file is unreadable or corrupt.
// Environment overrides (GTTS_*) are applied after the file is read.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("apply environment overrides: %w", err)
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		log.Warn("configuration file corrupted, restoring defaults", "path", path, "err", err)
		cfg := Default()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Warn("configuration file corrupted, restoring defaults", "path", path, "err", err)
		cfg = Default()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration as pretty-printed JSON, creating parent
// directories as needed.
func Save(path string, cfg Config) error {
	cfg.normalize()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}
	return nil
}

// normalize fills empty fields with defaults and repairs out-of-range
// values so a loaded config is always usable.
func (c *Config) normalize() {
	def := Default()

	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.DefaultVoice == "" {
		c.DefaultVoice = def.DefaultVoice
	}
	if c.DefaultOutput == "" {
		c.DefaultOutput = def.DefaultOutput
	}
	if c.InputTextPath == "" {
		c.InputTextPath = def.InputTextPath
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.MultiDelaySecs < 0 {
		c.MultiDelaySecs = 0
	}
	if c.VoicesCachedAt < 0 {
		c.VoicesCachedAt = 0
	}

	c.Voices = voices.Normalize(c.Voices)
	c.Version = Version
}

// Delay returns the configured inter-task delay as a duration.
func (c *Config) Delay() time.Duration {
	if c.MultiDelaySecs <= 0 {
		return 0
	}
	return time.Duration(c.MultiDelaySecs * float64(time.Second))
}

// VoicesCachedTime returns the voice cache timestamp; zero when the cache
// has never been refreshed.
func (c *Config) VoicesCachedTime() time.Time {
	if c.VoicesCachedAt <= 0 {
		return time.Time{}
	}
	return time.Unix(c.VoicesCachedAt, 0)
}
