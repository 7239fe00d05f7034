// Package config provides configuration management for the PubMed MCP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides of any config key,
// e.g. PUBMEDMCP_NCBI_THROTTLE.
const EnvPrefix = "PUBMEDMCP"

// Throttle modes accepted by ncbi.throttle.
const (
	ThrottleFixed       = "fixed"
	ThrottleTokenBucket = "token_bucket"
	ThrottleNone        = "none"
)

// Config holds all configuration for the PubMed MCP server.
type Config struct {
	// Server contains HTTP listener settings.
	Server ServerConfig `mapstructure:"server"`
	// NCBI contains E-utilities client settings.
	NCBI NCBIConfig `mapstructure:"ncbi"`
	// MCP contains tool host identity settings.
	MCP MCPConfig `mapstructure:"mcp"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host" validate:"required"`
	// Port is the HTTP port (default: 8000, also read from PORT).
	Port int `mapstructure:"port"`
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// NCBIConfig holds E-utilities settings.
type NCBIConfig struct {
	// BaseURL is the E-utilities root.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Tool identifies this program to NCBI (also read from NCBI_TOOL).
	Tool string `mapstructure:"tool" validate:"required"`
	// Email is the contact address sent to NCBI (also read from NCBI_EMAIL).
	Email string `mapstructure:"email" validate:"required"`
	// APIKey is loaded from NCBI_API_KEY only.
	APIKey string `mapstructure:"-"`
	// Timeout is the per-request deadline.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// Throttle selects the wait strategy: fixed, token_bucket or none.
	Throttle string `mapstructure:"throttle"`
	// Delay is the pause before each request in fixed mode.
	Delay time.Duration `mapstructure:"delay" validate:"gte=0"`
	// RateLimit is the requests per second in token_bucket mode.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
	// Burst is the bucket size in token_bucket mode.
	Burst int `mapstructure:"burst" validate:"gte=0"`
	// DefaultRetMax is the search size used when a caller omits retmax.
	DefaultRetMax int `mapstructure:"default_retmax" validate:"min=1,max=10000"`
}

// MCPConfig holds the identity the tool host reports to clients.
type MCPConfig struct {
	// Name is the server name reported during initialization.
	Name string `mapstructure:"name" validate:"required"`
	// Version is the server version reported during initialization.
	// Empty means the build version.
	Version string `mapstructure:"version"`
	// Instructions is the usage hint sent to clients.
	Instructions string `mapstructure:"instructions"`
	// EndpointPath is where the streamable HTTP transport is mounted.
	EndpointPath string `mapstructure:"endpoint_path" validate:"required,startswith=/"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// Address returns the HTTP listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pubmed-mcp")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// bindLegacyEnv binds the unprefixed variable names deployments already use.
// The prefixed name is listed first and wins when both are set.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port": {EnvPrefix + "_SERVER_PORT", "PORT"},
		"ncbi.tool":   {EnvPrefix + "_NCBI_TOOL", "NCBI_TOOL"},
		"ncbi.email":  {EnvPrefix + "_NCBI_EMAIL", "NCBI_EMAIL"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	return nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.NCBI.APIKey = firstEnv(EnvPrefix+"_NCBI_API_KEY", "NCBI_API_KEY")
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return ""
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// NCBI defaults. NCBI allows 3 req/sec without an API key.
	v.SetDefault("ncbi.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/")
	v.SetDefault("ncbi.tool", "chatgpt-pubmed-mcp")
	v.SetDefault("ncbi.email", "your_email@example.com")
	v.SetDefault("ncbi.timeout", "30s")
	v.SetDefault("ncbi.throttle", ThrottleFixed)
	v.SetDefault("ncbi.delay", "400ms")
	v.SetDefault("ncbi.rate_limit", 3.0)
	v.SetDefault("ncbi.burst", 1)
	v.SetDefault("ncbi.default_retmax", 20)

	// MCP defaults
	v.SetDefault("mcp.name", "PubMed MCP")
	v.SetDefault("mcp.version", "")
	v.SetDefault("mcp.instructions", "Search PubMed and fetch abstracts by PMID via NCBI E-utilities.")
	v.SetDefault("mcp.endpoint_path", "/mcp")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.NCBI.Throttle {
	case ThrottleFixed, ThrottleNone:
	case ThrottleTokenBucket:
		if c.NCBI.RateLimit <= 0 {
			return fmt.Errorf("ncbi rate_limit must be positive for %s throttle", ThrottleTokenBucket)
		}
		if c.NCBI.Burst < 1 {
			return fmt.Errorf("ncbi burst must be at least 1 for %s throttle", ThrottleTokenBucket)
		}
	default:
		return fmt.Errorf("invalid ncbi throttle: %q", c.NCBI.Throttle)
	}

	if c.Metrics.Enabled {
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
		}
		if c.Metrics.Path == c.MCP.EndpointPath {
			return fmt.Errorf("metrics path %q collides with mcp endpoint path", c.Metrics.Path)
		}
	}

	return nil
}

// formatValidationError reports the first failing field by its config key.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Errorf("invalid %s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("invalid %s: failed %s", fe.Namespace(), fe.Tag())
}
