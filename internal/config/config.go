// Package config handles configuration loading and validation for klosachat.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	apierrors "github.com/diogo/klosachat/internal/errors"
)

// EndpointEnvVar names the environment variable holding the endpoint URL
const EndpointEnvVar = "KLOSANOW_AI_ENDPOINT_URL"

// MarkdownConfig configures reply rendering
type MarkdownConfig struct {
	Style            string `json:"style" toml:"style"` // "dark", "light", "notty" or path to JSON theme
	EnableEmoji      bool   `json:"enable_emoji" toml:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines" toml:"preserve_newlines"`
	TableWrap        bool   `json:"table_wrap" toml:"table_wrap"`
}

// Config represents the user configuration.
// File values are overlaid by environment variables, which are in turn
// overlaid by command-line flags.
type Config struct {
	// EndpointURL is the chat endpoint receiving the conversation. Required.
	EndpointURL string `json:"endpoint_url" toml:"endpoint_url" env:"KLOSANOW_AI_ENDPOINT_URL"`
	// RequestTimeout is the transport timeout in seconds. Zero disables it.
	RequestTimeout int    `json:"request_timeout" toml:"request_timeout" env:"KLOSACHAT_REQUEST_TIMEOUT"`
	Proxy          string `json:"proxy,omitempty" toml:"proxy" env:"KLOSACHAT_PROXY"`
	UserAgent      string `json:"user_agent,omitempty" toml:"user_agent" env:"KLOSACHAT_USER_AGENT"`

	LogLevel string `json:"log_level" toml:"log_level" env:"KLOSACHAT_LOG_LEVEL"`
	LogFile  string `json:"log_file,omitempty" toml:"log_file" env:"KLOSACHAT_LOG_FILE"`

	CopyToClipboard bool           `json:"copy_to_clipboard" toml:"copy_to_clipboard" env:"KLOSACHAT_COPY_TO_CLIPBOARD"`
	TUITheme        string         `json:"tui_theme,omitempty" toml:"tui_theme" env:"KLOSACHAT_TUI_THEME"`
	Markdown        MarkdownConfig `json:"markdown" toml:"markdown"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
	}
}

// DefaultConfig returns the default configuration. EndpointURL has no default.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:  0,
		LogLevel:        "info",
		CopyToClipboard: false,
		TUITheme:        "harbor",
		Markdown:        DefaultMarkdownConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".klosachat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path of the config file in use.
// config.toml wins over config.json when both exist; when neither exists
// the JSON path is returned.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	tomlPath := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetLogPath returns the log file path from config, defaulting to the config dir
func GetLogPath(cfg Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "klosachat.log"), nil
}

// LoadConfig loads the configuration from the default location and the environment
func LoadConfig() (Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom loads configuration from path, then applies the environment.
// A missing file is not an error.
func LoadConfigFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err == nil {
		if err := decodeConfig(path, data, &cfg); err != nil {
			return DefaultConfig(), err
		}
	}

	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func decodeConfig(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// SaveConfig saves the configuration to the JSON config file
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings the client cannot start without.
// A missing endpoint yields apierrors.ErrMissingEndpoint.
func (c Config) Validate() error {
	endpoint := strings.TrimSpace(c.EndpointURL)
	if endpoint == "" {
		return apierrors.NewConfigError("endpoint_url",
			fmt.Sprintf("%s is not set; export it or add endpoint_url to the config file", EndpointEnvVar),
			apierrors.ErrMissingEndpoint)
	}

	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apierrors.NewConfigError("endpoint_url",
			fmt.Sprintf("%q is not an absolute http(s) URL", endpoint),
			apierrors.ErrInvalidEndpoint)
	}

	if c.RequestTimeout < 0 {
		return apierrors.NewConfigError("request_timeout", "must not be negative", nil)
	}

	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			return apierrors.NewConfigError("proxy", err.Error(), nil)
		}
	}

	return nil
}

// Endpoint returns the trimmed endpoint URL
func (c Config) Endpoint() string {
	return strings.TrimSpace(c.EndpointURL)
}
