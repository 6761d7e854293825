package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// StorageConfig describes where generated artifacts are written.
type StorageConfig struct {
	// OutputDir is the root directory for saved images. Every artifact
	// path must resolve inside it.
	OutputDir string `mapstructure:"output_dir" validate:"required"`
}

// GenerationConfig holds the named generation-service entries plus the
// process-wide concurrency bound.
type GenerationConfig struct {
	// Default names the entry used when a request does not specify one.
	// When empty, the first configured entry is the default.
	Default string `mapstructure:"default"`

	// MaxConcurrent bounds both the worker-pool size and per-batch
	// download concurrency. Clamped to [1, 10] at read time.
	MaxConcurrent int `mapstructure:"max_concurrent"`

	// Configs lists the available generation-service endpoints.
	Configs []APIConfig `mapstructure:"configs" validate:"required,min=1,dive"`
}

// APIConfig is one named generation-service endpoint entry.
type APIConfig struct {
	Name    string `mapstructure:"name"     validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Proxy   string `mapstructure:"proxy"`
}
