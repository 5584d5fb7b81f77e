package common

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Portal      PortalConfig  `toml:"portal"`
	HTTP        HTTPConfig    `toml:"http"`
	Output      OutputConfig  `toml:"output"`
	Logging     LoggingConfig `toml:"logging"`
}

// PortalConfig identifies the target portal and the credential pair used to
// log into it. The tool targets a single fixed site; there is no multi-site
// or multi-tenant support.
type PortalConfig struct {
	BaseURL    string `toml:"base_url" validate:"required,url"`     // Portal host (login, settings, user list)
	APIBaseURL string `toml:"api_base_url" validate:"required,url"` // Second host receiving the signed settings payload
	Username   string `toml:"username" validate:"required"`
	Password   string `toml:"password" validate:"required"`
}

type HTTPConfig struct {
	Timeout   string `toml:"timeout"`    // e.g., "30s" - per-request timeout
	RateLimit int    `toml:"rate_limit"` // Max requests per second
	UserAgent string `toml:"user_agent"`
}

type OutputConfig struct {
	Path string `toml:"path" validate:"required"` // Merged roster file, overwritten each run
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Portal: PortalConfig{
			BaseURL:    "https://hub.example.com",
			APIBaseURL: "https://api.hub.example.com",
			Username:   "roster-bot",
			Password:   "",
		},
		HTTP: HTTPConfig{
			Timeout:   "30s",
			RateLimit: 5,
			UserAgent: "rosterpull/" + GetVersion(),
		},
		Output: OutputConfig{
			Path: "users.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration by layering TOML files over the defaults.
// Later files override earlier ones; environment variables override files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides lets credentials come from the environment so they can
// stay out of checked-in config files.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("ROSTERPULL_USERNAME"); v != "" {
		config.Portal.Username = v
	}
	if v := os.Getenv("ROSTERPULL_PASSWORD"); v != "" {
		config.Portal.Password = v
	}
	if v := os.Getenv("ROSTERPULL_OUTPUT"); v != "" {
		config.Output.Path = v
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, outputPath string) {
	if outputPath != "" {
		config.Output.Path = outputPath
	}
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	return nil
}

// RequestTimeout parses the configured HTTP timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.HTTP.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.HTTP.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid http timeout %q: %w", c.HTTP.Timeout, err)
	}
	return d, nil
}
