package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the aerochat client.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Debug   bool          `mapstructure:"debug"`
}

// APIConfig holds backend connection configuration.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig holds local state configuration.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// UploadConfig holds document upload configuration.
type UploadConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// PricingConfig holds the per-1000-token rates used for cost estimates.
// Defaults are the published Claude 3 Haiku rates.
type PricingConfig struct {
	InputPer1K  float64 `mapstructure:"input_per_1k"`
	OutputPer1K float64 `mapstructure:"output_per_1k"`
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultStateDir())
	}

	v.SetEnvPrefix("AEROCHAT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.request_timeout", 30*time.Second)

	v.SetDefault("storage.path", filepath.Join(defaultStateDir(), "aerochat.db"))

	v.SetDefault("upload.poll_interval", time.Second)

	v.SetDefault("pricing.input_per_1k", 0.00025)
	v.SetDefault("pricing.output_per_1k", 0.00125)

	v.SetDefault("debug", false)
}

// defaultStateDir returns ~/.aerochat, falling back to the working
// directory when the home directory cannot be resolved.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".aerochat")
}
