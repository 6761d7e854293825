package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything a fresh checkout can run with.
	v.SetDefault("server.port", 8989)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("storage.output_dir", "output")
	v.SetDefault("generation.max_concurrent", 2)

	// Optional config file: ./config.yaml (or any extension viper knows).
	v.SetConfigName("config")
	v.AddConfigPath(".")

	// Environment variables with IMAGEFORGE_ prefix override file values,
	// e.g. IMAGEFORGE_DATABASE_URL, IMAGEFORGE_SERVER_PORT.
	v.SetEnvPrefix("IMAGEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; env vars may carry everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
