// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/util"
)

// DefaultAPIURL is the hosted backend.
const DefaultAPIURL = "https://pratham-ai-backend.onrender.com/api"

// =============================================================================
// CONFIG STRUCT
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
	Speech  SpeechConfig  `toml:"speech"`
	Server  ServerConfig  `toml:"server"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
}

// SessionConfig controls where the identity is stored.
type SessionConfig struct {
	// File is the storage key holding the logged-in username.
	File string `toml:"file"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// UIConfig controls rendering.
type UIConfig struct {
	// Markdown renders AI messages as markdown.
	Markdown bool `toml:"markdown"`
	// Theme is "auto", "dark" or "light".
	Theme string `toml:"theme"`
}

// SpeechConfig configures speech-to-text.
type SpeechConfig struct {
	// Command is an external transcriber printing JSON lines. Empty disables
	// speech input.
	Command []string `toml:"command"`
}

// ServerConfig configures `pratham serve`.
type ServerConfig struct {
	Addr      string  `toml:"addr"`
	DBPath    string  `toml:"db_path"`
	RateLimit float64 `toml:"rate_limit"` // requests per second per client
	Burst     int     `toml:"burst"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Dir returns the configuration directory, ~/.pratham.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pratham"), nil
}

// Path returns the default config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		API: APIConfig{BaseURL: DefaultAPIURL},
		Log: LogConfig{Level: "info", Format: "text"},
		UI:  UIConfig{Markdown: true, Theme: "auto"},
		Server: ServerConfig{
			Addr:      "127.0.0.1:8080",
			RateLimit: 5,
			Burst:     20,
		},
	}
	if dir, err := Dir(); err == nil {
		cfg.Session.File = filepath.Join(dir, "username")
		cfg.Log.File = filepath.Join(dir, "pratham.log")
		cfg.Server.DBPath = filepath.Join(dir, "server.db")
	}
	return cfg
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the default config file. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the config at path, then applies .env and environment
// overrides, and validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path with mode 0600.
func Save(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# Pratham AI client configuration\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// =============================================================================
// OVERRIDES AND DEFAULTS
// =============================================================================

// ApplyEnvOverrides applies PRATHAM_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PRATHAM_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("PRATHAM_SESSION_FILE"); v != "" {
		c.Session.File = v
	}
	if v := os.Getenv("PRATHAM_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PRATHAM_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("PRATHAM_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("PRATHAM_SPEECH_COMMAND"); v != "" {
		c.Speech.Command = strings.Fields(v)
	}
	if v := os.Getenv("PRATHAM_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PRATHAM_SERVER_DB"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("PRATHAM_MARKDOWN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.UI.Markdown = b
		}
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	def := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	c.API.BaseURL = strings.TrimSuffix(c.API.BaseURL, "/")
	if c.Session.File == "" {
		c.Session.File = def.Session.File
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = def.Server.DBPath
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = def.Server.RateLimit
	}
	if c.Server.Burst == 0 {
		c.Server.Burst = def.Server.Burst
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("%q must be an absolute http(s) URL", c.API.BaseURL),
		})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format %q, must be text or json", c.Log.Format),
		})
	}

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q, must be auto, dark or light", c.UI.Theme),
		})
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_limit", Message: "must not be negative"})
	}
	if c.Server.Burst < 0 {
		errs = append(errs, ValidationError{Field: "server.burst", Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
