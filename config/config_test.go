package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxway/voxgate/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15s

auth:
  jwt_secret: "super-secret"
  token_ttl: 24h

database:
  driver: "sqlite"
  dsn: ":memory:"

providers:
  openrouter:
    api_key: "sk-or-xxx"
    model: "mistralai/ministral-8b-2512"
  elevenlabs:
    api_key: "el-xxx"
  speechmatics:
    api_key: "sm-xxx"
    region: "us"
    ttl_secs: 60

rates:
  openrouter: 0.002
  elevenlabs: 0.1
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.JWTSecret != "super-secret" {
		t.Errorf("Auth.JWTSecret = %s, want super-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Providers.OpenRouter.APIKey != "sk-or-xxx" {
		t.Errorf("OpenRouter.APIKey = %s, want sk-or-xxx", cfg.Providers.OpenRouter.APIKey)
	}
	if cfg.Providers.Speechmatics.Region != "us" {
		t.Errorf("Speechmatics.Region = %s, want us", cfg.Providers.Speechmatics.Region)
	}
	if cfg.Providers.Speechmatics.TTLSecs != 60 {
		t.Errorf("Speechmatics.TTLSecs = %d, want 60", cfg.Providers.Speechmatics.TTLSecs)
	}
	if cfg.Rates["openrouter"] != 0.002 {
		t.Errorf("Rates[openrouter] = %f, want 0.002", cfg.Rates["openrouter"])
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
auth:
  jwt_secret: "super-secret"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.WriteTimeout != 0 {
		t.Errorf("default WriteTimeout = %v, want 0", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "voxgate.db" {
		t.Errorf("default Database.DSN = %s, want voxgate.db", cfg.Database.DSN)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("default Auth.TokenTTL = %v, want 168h", cfg.Auth.TokenTTL)
	}
	if cfg.Providers.OpenRouter.Model != "mistralai/ministral-8b-2512" {
		t.Errorf("default Model = %s", cfg.Providers.OpenRouter.Model)
	}
	if cfg.Providers.Speechmatics.Region != "eu" {
		t.Errorf("default Region = %s, want eu", cfg.Providers.Speechmatics.Region)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default Logging.Format = %s, want json", cfg.Logging.Format)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_OR_KEY", "sk-or-from-env")
	defer os.Unsetenv("TEST_OR_KEY")

	content := `
auth:
  jwt_secret: "super-secret"

providers:
  openrouter:
    api_key: "${TEST_OR_KEY}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Providers.OpenRouter.APIKey != "sk-or-from-env" {
		t.Errorf("OpenRouter.APIKey = %s, want sk-or-from-env", cfg.Providers.OpenRouter.APIKey)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	content := `
server:
  port: 8080
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for missing auth.jwt_secret")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	content := `
auth:
  jwt_secret: "super-secret"

logging:
  level: "verbose"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid logging.level")
	}
}

func TestLoad_InvalidRegion(t *testing.T) {
	content := `
auth:
  jwt_secret: "super-secret"

providers:
  speechmatics:
    region: "apac"
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid speechmatics region")
	}
}

func TestLoad_NegativeRate(t *testing.T) {
	content := `
auth:
  jwt_secret: "super-secret"

rates:
  openrouter: -0.5
`

	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("VOXGATE_AUTH_JWT_SECRET", "env-secret")
	os.Setenv("VOXGATE_SERVER_PORT", "9999")
	os.Setenv("VOXGATE_DATABASE_DSN", "/tmp/env-test.db")
	os.Setenv("VOXGATE_OPENROUTER_MODEL", "openai/gpt-4o-mini")
	os.Setenv("VOXGATE_LOG_LEVEL", "debug")
	os.Setenv("VOXGATE_METRICS_ENABLED", "true")
	defer func() {
		os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")
		os.Unsetenv("VOXGATE_SERVER_PORT")
		os.Unsetenv("VOXGATE_DATABASE_DSN")
		os.Unsetenv("VOXGATE_OPENROUTER_MODEL")
		os.Unsetenv("VOXGATE_LOG_LEVEL")
		os.Unsetenv("VOXGATE_METRICS_ENABLED")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("Auth.JWTSecret = %s, want env-secret", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/env-test.db" {
		t.Errorf("Database.DSN = %s, want /tmp/env-test.db", cfg.Database.DSN)
	}
	if cfg.Providers.OpenRouter.Model != "openai/gpt-4o-mini" {
		t.Errorf("Model = %s, want openai/gpt-4o-mini", cfg.Providers.OpenRouter.Model)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestLoadFromEnv_MissingRequired(t *testing.T) {
	os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")

	_, err := config.LoadFromEnv()
	if err == nil {
		t.Fatal("expected error for missing jwt secret")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	os.Setenv("VOXGATE_SERVER_PORT", "7777")
	os.Setenv("VOXGATE_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("VOXGATE_SERVER_PORT")
		os.Unsetenv("VOXGATE_LOG_LEVEL")
	}()

	content := `
auth:
  jwt_secret: "super-secret"
server:
  port: 8080
logging:
  level: "info"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	// File value should still be used for non-overridden
	if cfg.Auth.JWTSecret != "super-secret" {
		t.Errorf("Auth.JWTSecret = %s, want super-secret", cfg.Auth.JWTSecret)
	}
}

func TestEnvOverrides_CORSOrigins(t *testing.T) {
	os.Setenv("VOXGATE_AUTH_JWT_SECRET", "env-secret")
	os.Setenv("VOXGATE_CORS_ORIGINS", "http://localhost:3000, https://app.example.com")
	defer func() {
		os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")
		os.Unsetenv("VOXGATE_CORS_ORIGINS")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if len(cfg.CORS.Origins) != 2 {
		t.Fatalf("len(Origins) = %d, want 2", len(cfg.CORS.Origins))
	}
	if cfg.CORS.Origins[1] != "https://app.example.com" {
		t.Errorf("Origins[1] = %s, want https://app.example.com", cfg.CORS.Origins[1])
	}
}

func TestEnvOverrides_InvalidPort(t *testing.T) {
	os.Setenv("VOXGATE_AUTH_JWT_SECRET", "env-secret")
	os.Setenv("VOXGATE_SERVER_PORT", "not-a-number")
	defer func() {
		os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")
		os.Unsetenv("VOXGATE_SERVER_PORT")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	// Should use default port when env var is invalid
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestLoadWithFallback_FileExists(t *testing.T) {
	content := `
auth:
  jwt_secret: "file-secret"
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Auth.JWTSecret != "file-secret" {
		t.Errorf("Auth.JWTSecret = %s, want file-secret", cfg.Auth.JWTSecret)
	}
}

func TestLoadWithFallback_EnvOnly(t *testing.T) {
	os.Setenv("VOXGATE_AUTH_JWT_SECRET", "env-fallback-secret")
	defer os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")

	cfg, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Auth.JWTSecret != "env-fallback-secret" {
		t.Errorf("Auth.JWTSecret = %s, want env-fallback-secret", cfg.Auth.JWTSecret)
	}
}

func TestLoadWithFallback_NoConfig(t *testing.T) {
	os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")

	_, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error when no config available")
	}
}

func TestHasEnvConfig(t *testing.T) {
	os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")
	if config.HasEnvConfig() {
		t.Error("HasEnvConfig() = true, want false")
	}

	os.Setenv("VOXGATE_AUTH_JWT_SECRET", "secret")
	defer os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig() = false, want true")
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		os.Setenv("VOXGATE_AUTH_JWT_SECRET", "secret")
		os.Setenv("VOXGATE_METRICS_ENABLED", tt.value)

		cfg, err := config.LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv error: %v", err)
		}

		if cfg.Metrics.Enabled != tt.expected {
			t.Errorf("value=%q: Metrics.Enabled = %v, want %v", tt.value, cfg.Metrics.Enabled, tt.expected)
		}

		os.Unsetenv("VOXGATE_AUTH_JWT_SECRET")
		os.Unsetenv("VOXGATE_METRICS_ENABLED")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `
auth:
  jwt_secret: "super-secret"
  this is not valid yaml: [
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
