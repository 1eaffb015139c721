package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTTTL != "168h" {
		t.Errorf("JWTTTL = %q, want %q", cfg.JWTTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.RateLimitMax != 100 {
		t.Errorf("RateLimitMax = %d, want 100", cfg.RateLimitMax)
	}
	if cfg.RateLimitWindow != "15m" {
		t.Errorf("RateLimitWindow = %q, want %q", cfg.RateLimitWindow, "15m")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTSecret != "test-secret" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "test-secret")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range BCRYPT_COST")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is empty in production")
	}
}

func TestConfig_TokenTTL(t *testing.T) {
	cfg := &Config{JWTTTL: "24h"}
	if got := cfg.TokenTTL(); got != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", got)
	}
	cfg = &Config{JWTTTL: "garbage"}
	if got := cfg.TokenTTL(); got != 168*time.Hour {
		t.Errorf("TokenTTL fallback = %v, want 168h", got)
	}
}

func TestConfig_RateWindow(t *testing.T) {
	cfg := &Config{RateLimitWindow: "1m"}
	if got := cfg.RateWindow(); got != time.Minute {
		t.Errorf("RateWindow = %v, want 1m", got)
	}
	cfg = &Config{RateLimitWindow: ""}
	if got := cfg.RateWindow(); got != 15*time.Minute {
		t.Errorf("RateWindow fallback = %v, want 15m", got)
	}
}
