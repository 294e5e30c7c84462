package bootstrap_test

import (
	"context"
	"testing"

	"github.com/voxway/voxgate/bootstrap"
	"github.com/voxway/voxgate/config"
	"github.com/voxway/voxgate/domain/pricing"
)

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
		Auth:     config.AuthConfig{JWTSecret: "test-secret"},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func TestNew(t *testing.T) {
	a, err := bootstrap.New(testConfig(), "test")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if a.HTTPServer == nil {
		t.Error("HTTPServer not initialized")
	}
	if a.Auth == nil || a.Chat == nil || a.STT == nil || a.Admin == nil {
		t.Error("services not initialized")
	}
	if a.Metrics != nil {
		t.Error("metrics should be disabled by default")
	}
}

func TestApplyConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Rates = map[string]float64{pricing.ProviderOpenRouter: 0.001}

	a, err := bootstrap.New(cfg, "test")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	if got := a.Rates.Cost(pricing.ProviderOpenRouter, 2); got != 0.002 {
		t.Fatalf("initial Cost = %v, want 0.002", got)
	}

	next := testConfig()
	next.Rates = map[string]float64{pricing.ProviderOpenRouter: 0.005}
	a.ApplyConfig(next)

	if got := a.Rates.Cost(pricing.ProviderOpenRouter, 2); got != 0.01 {
		t.Errorf("Cost after ApplyConfig = %v, want 0.01", got)
	}
}

func TestSeedAdmin(t *testing.T) {
	a, err := bootstrap.New(testConfig(), "test")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	ctx := context.Background()

	u, err := a.SeedAdmin(ctx, "root@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SeedAdmin error: %v", err)
	}
	if !u.IsAdmin || u.Status != "active" {
		t.Errorf("seeded user = %+v, want active admin", u)
	}
	if u.STTMinutesLimit != 10000 || u.AICreditsLimit != 1000 {
		t.Errorf("seeded limits = %d/%f", u.STTMinutesLimit, u.AICreditsLimit)
	}

	// Seeding again upserts rather than failing on the duplicate email.
	again, err := a.SeedAdmin(ctx, "root@example.com", "newpassword99")
	if err != nil {
		t.Fatalf("SeedAdmin upsert error: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("upsert created a new user: %s != %s", again.ID, u.ID)
	}
}

func TestSeedAdminDefaults(t *testing.T) {
	a, err := bootstrap.New(testConfig(), "test")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	defer a.Shutdown()

	u, err := a.SeedAdmin(context.Background(), "", "")
	if err != nil {
		t.Fatalf("SeedAdmin error: %v", err)
	}
	if u.Email != bootstrap.DefaultAdminEmail {
		t.Errorf("Email = %s, want %s", u.Email, bootstrap.DefaultAdminEmail)
	}
}
