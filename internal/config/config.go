// Package config handles configuration loading for nutribuddy.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// Environment variables that override file values
const (
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvServerURL      = "NUTRIBUDDY_SERVER_URL"
	EnvListenAddr     = "NUTRIBUDDY_ADDR"
	EnvModel          = "NUTRIBUDDY_MODEL"
	EnvRequestTimeout = "NUTRIBUDDY_REQUEST_TIMEOUT"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style"`              // glamour style name or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji"`       // Convert :emoji: to unicode
	PreserveNewLines bool   `json:"preserve_newlines"`  // Preserve original line breaks
	TableWrap        bool   `json:"table_wrap"`         // Enable word wrap in table cells
	InlineTableLinks bool   `json:"inline_table_links"` // Render links inline in tables
}

// Config represents the user configuration
type Config struct {
	// ServerURL is the backend the terminal client talks to.
	ServerURL string `json:"server_url" validate:"required,url"`
	// ListenAddr is where `serve` binds.
	ListenAddr   string `json:"listen_addr" validate:"required"`
	DefaultModel string `json:"default_model" validate:"required"`
	// RequestTimeout bounds a single chat request, in seconds.
	RequestTimeout int `json:"request_timeout" validate:"min=1,max=600"`
	// CacheSize is the number of replies the backend keeps; 0 disables the cache.
	CacheSize int `json:"cache_size" validate:"min=0"`
	// RateLimit is the number of chat requests per minute allowed per client IP.
	RateLimit       int            `json:"rate_limit" validate:"min=1"`
	Verbose         bool           `json:"verbose"`
	CopyToClipboard bool           `json:"copy_to_clipboard"`
	TUITheme        string         `json:"tui_theme,omitempty" validate:"omitempty,oneof=tokyonight catppuccin nord dracula"`
	Markdown        MarkdownConfig `json:"markdown"`

	// APIKey is only ever read from the environment.
	APIKey string `json:"-"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       "http://localhost:3000",
		ListenAddr:      "0.0.0.0:3000",
		DefaultModel:    "fast",
		RequestTimeout:  60,
		CacheSize:       256,
		RateLimit:       20,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// Timeout returns RequestTimeout as a duration
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// fs is the filesystem used by LoadConfig and SaveConfig; tests swap it out.
var fs = afero.NewOsFs()

// validate is shared; validator caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".nutribuddy"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := fs.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk and applies environment overrides
func LoadConfig() (Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return ApplyEnv(DefaultConfig()), err
	}

	cfg, err := LoadConfigFrom(fs, configPath)
	return ApplyEnv(cfg), err
}

// LoadConfigFrom reads a config file from the given filesystem.
// A missing file yields the defaults.
func LoadConfigFrom(fsys afero.Fs, path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	return SaveConfigTo(fs, filepath.Join(configDir, "config.json"), cfg)
}

// SaveConfigTo writes cfg as indented JSON to path on the given filesystem
func SaveConfigTo(fsys afero.Fs, path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fsys, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables on cfg
func ApplyEnv(cfg Config) Config {
	if v := os.Getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.DefaultModel = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.RequestTimeout = secs
		}
	}
	return cfg
}

// Validate checks cfg against its field constraints
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// AvailableModels returns a list of available model aliases
func AvailableModels() []string {
	return []string{
		"fast",
		"lite",
		"pro",
	}
}
