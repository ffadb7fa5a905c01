package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// DefaultServiceURL is the vendor translation API endpoint.
const DefaultServiceURL = "http://uat-integration.thebigword.com/drupal/api"

// APIVersion is the vendor translation API version.
const APIVersion = "1"

// CallbackPath is the route on which the connector receives vendor
// notifications, relative to the provider's callback base URL.
const CallbackPath = "/callback"

// ProviderConfig holds the configuration for one translator provider
// instance. The client contact key is not stored here; it lives in the
// system keyring, looked up by the provider ID.
type ProviderConfig struct {
	// ID is the unique identifier for this provider instance.
	ID string `mapstructure:"id" yaml:"id"`

	// Label is the user-defined name for this provider instance.
	Label string `mapstructure:"label" yaml:"label"`

	// ServiceURL is the root URL of the vendor translation API.
	ServiceURL string `mapstructure:"service_url" yaml:"service_url"`

	// CallbackBaseURL is the externally reachable base URL of this
	// connector, sent to the vendor so it can deliver notifications.
	CallbackBaseURL string `mapstructure:"callback_base_url" yaml:"callback_base_url"`

	// RequesterName and RequesterEmail identify the CMS user on whose
	// behalf projects are created.
	RequesterName  string `mapstructure:"requester_name" yaml:"requester_name"`
	RequesterEmail string `mapstructure:"requester_email" yaml:"requester_email"`

	// Review controls the default workflow: localize and review versus
	// localize only.
	Review bool `mapstructure:"review" yaml:"review"`

	// Enabled controls whether this provider is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PollIntervalSec is how often (in seconds) to pull remote
	// translations for this provider.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// ServerConfig holds settings for the callback HTTP server.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
}

// DatabaseConfig holds settings for the local SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level connector configuration.
type AppConfig struct {
	Providers []ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Server    ServerConfig     `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig   `mapstructure:"database" yaml:"database"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/translation-connector/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "translation-connector", "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Providers: []ProviderConfig{},
		Server: ServerConfig{
			ListenAddr: ":8085",
		},
		Database: DatabaseConfig{
			Path: filepath.Join(filepath.Dir(DefaultConfigPath()), "connector.db"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.listen_addr", ":8085")
	v.SetDefault("database.path", defaultAppConfig().Database.Path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Apply defaults for each provider entry.
	for i := range cfg.Providers {
		if cfg.Providers[i].ServiceURL == "" {
			cfg.Providers[i].ServiceURL = DefaultServiceURL
		}
		if cfg.Providers[i].PollIntervalSec == 0 {
			cfg.Providers[i].PollIntervalSec = 300
		}
		if !cfg.Providers[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset as true.
			key := fmt.Sprintf("providers.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Providers[i].Enabled = true
			}
		}
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("providers", cfg.Providers)
	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
