// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server    ServerConfig       `yaml:"server"`
	Database  DatabaseConfig     `yaml:"database"`
	Auth      AuthConfig         `yaml:"auth"`
	Providers ProvidersConfig    `yaml:"providers"`
	Rates     map[string]float64 `yaml:"rates"`
	CORS      CORSConfig         `yaml:"cors"`
	Logging   LoggingConfig      `yaml:"logging"`
	Metrics   MetricsConfig      `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// WriteTimeout stays zero unless overridden: chat streams run
	// longer than any sane fixed deadline.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite"
	DSN    string `yaml:"dsn"`
}

// AuthConfig configures bearer-token authentication.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// ProvidersConfig holds the upstream provider credentials.
type ProvidersConfig struct {
	OpenRouter   OpenRouterConfig   `yaml:"openrouter"`
	ElevenLabs   ElevenLabsConfig   `yaml:"elevenlabs"`
	Speechmatics SpeechmaticsConfig `yaml:"speechmatics"`
}

// OpenRouterConfig configures the chat-completion provider.
type OpenRouterConfig struct {
	APIKey       string `yaml:"api_key"`
	ProvisionKey string `yaml:"provision_key,omitempty"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url,omitempty"`
	Referer      string `yaml:"referer,omitempty"`
	Title        string `yaml:"title,omitempty"`
}

// ElevenLabsConfig configures the primary STT provider.
type ElevenLabsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// SpeechmaticsConfig configures the alternate STT provider.
type SpeechmaticsConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Region  string `yaml:"region"` // "eu" or "us"
	TTLSecs int    `yaml:"ttl_secs"`
}

// CORSConfig configures allowed browser origins. The webview cases
// (tauri:// schemes, literal "null") are always allowed.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variables always override file-based configuration.
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	VOXGATE_AUTH_JWT_SECRET          - Token signing secret (required)
//	VOXGATE_DATABASE_DSN             - Database path (default: voxgate.db)
//	VOXGATE_SERVER_HOST              - Server host (default: 0.0.0.0)
//	VOXGATE_SERVER_PORT              - Server port (default: 8080)
//	VOXGATE_OPENROUTER_API_KEY       - OpenRouter API key
//	VOXGATE_OPENROUTER_PROVISION_KEY - OpenRouter key-provisioning secret
//	VOXGATE_OPENROUTER_MODEL         - Chat model id
//	VOXGATE_ELEVENLABS_API_KEY       - ElevenLabs API key
//	VOXGATE_SPEECHMATICS_API_KEY     - Speechmatics API key
//	VOXGATE_SPEECHMATICS_REGION      - Speechmatics region: eu or us
//	VOXGATE_CORS_ORIGINS             - Comma-separated allowed origins
//	VOXGATE_LOG_LEVEL                - Log level: debug, info, warn, error
//	VOXGATE_LOG_FORMAT               - Log format: json or console
//	VOXGATE_METRICS_ENABLED          - Enable /metrics endpoint
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables. This is the recommended method for Docker deployments.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set VOXGATE_AUTH_JWT_SECRET")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("VOXGATE_AUTH_JWT_SECRET") != ""
}

func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("VOXGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VOXGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VOXGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("VOXGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if v := os.Getenv("VOXGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("VOXGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Auth configuration
	if v := os.Getenv("VOXGATE_AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("VOXGATE_AUTH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}

	// Provider configuration
	if v := os.Getenv("VOXGATE_OPENROUTER_API_KEY"); v != "" {
		cfg.Providers.OpenRouter.APIKey = v
	}
	if v := os.Getenv("VOXGATE_OPENROUTER_PROVISION_KEY"); v != "" {
		cfg.Providers.OpenRouter.ProvisionKey = v
	}
	if v := os.Getenv("VOXGATE_OPENROUTER_MODEL"); v != "" {
		cfg.Providers.OpenRouter.Model = v
	}
	if v := os.Getenv("VOXGATE_OPENROUTER_BASE_URL"); v != "" {
		cfg.Providers.OpenRouter.BaseURL = v
	}
	if v := os.Getenv("VOXGATE_ELEVENLABS_API_KEY"); v != "" {
		cfg.Providers.ElevenLabs.APIKey = v
	}
	if v := os.Getenv("VOXGATE_SPEECHMATICS_API_KEY"); v != "" {
		cfg.Providers.Speechmatics.APIKey = v
	}
	if v := os.Getenv("VOXGATE_SPEECHMATICS_REGION"); v != "" {
		cfg.Providers.Speechmatics.Region = v
	}

	// CORS configuration
	if v := os.Getenv("VOXGATE_CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.Origins = origins
	}

	// Logging configuration
	if v := os.Getenv("VOXGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VOXGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("VOXGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "voxgate.db"
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 7 * 24 * time.Hour
	}

	if cfg.Providers.OpenRouter.Model == "" {
		cfg.Providers.OpenRouter.Model = "mistralai/ministral-8b-2512"
	}
	if cfg.Providers.Speechmatics.Region == "" {
		cfg.Providers.Speechmatics.Region = "eu"
	}
	if cfg.Providers.Speechmatics.TTLSecs == 0 {
		cfg.Providers.Speechmatics.TTLSecs = 120
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	validRegions := map[string]bool{"eu": true, "us": true}
	if !validRegions[cfg.Providers.Speechmatics.Region] {
		return fmt.Errorf("providers.speechmatics.region must be 'eu' or 'us', got %q", cfg.Providers.Speechmatics.Region)
	}

	for provider, rate := range cfg.Rates {
		if rate < 0 {
			return fmt.Errorf("rates[%s] must not be negative", provider)
		}
	}

	return nil
}
