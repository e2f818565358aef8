package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.App.Port != "8081" {
		t.Fatalf("unexpected port %q", cfg.App.Port)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Fatalf("expected memory storage by default, got %q", cfg.Storage.Driver)
	}
	if cfg.Cart.StorageKey != "sweetTreatsCart" {
		t.Fatalf("unexpected storage key %q", cfg.Cart.StorageKey)
	}
	if cfg.Cart.PlaceholderImg != "img/default-product.png" {
		t.Fatalf("unexpected placeholder %q", cfg.Cart.PlaceholderImg)
	}
	if got := cfg.Cart.IdempotencyTTL; got != 24*time.Hour {
		t.Fatalf("expected idempotency ttl 24h, got %v", got)
	}
	if got := cfg.Cart.MaxOpenScopes; got != 1024 {
		t.Fatalf("expected 1024 open scopes, got %d", got)
	}
	if got := cfg.Cart.ScopeIdleTTL; got != 30*time.Minute {
		t.Fatalf("expected scope idle ttl 30m, got %v", got)
	}
	shipping, err := cfg.Cart.Shipping()
	if err != nil {
		t.Fatalf("Shipping() returned unexpected error: %v", err)
	}
	if shipping.StringFixed(2) != "100.00" {
		t.Fatalf("expected flat shipping 100.00, got %s", shipping.StringFixed(2))
	}
	if len(cfg.App.CORSOrigins) != 2 {
		t.Fatalf("unexpected cors origins %v", cfg.App.CORSOrigins)
	}
	if cfg.Redis.Enabled() || cfg.PubSub.Enabled() {
		t.Fatalf("optional dependencies should be disabled by default")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_StorageDrivers(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{name: "redis without endpoint", env: map[string]string{EnvStorageDriver: StorageDriverRedis}, wantErr: true},
		{name: "redis with url", env: map[string]string{EnvStorageDriver: StorageDriverRedis, EnvRedisURL: "redis://localhost:6379/0"}},
		{name: "sql without dsn", env: map[string]string{EnvStorageDriver: StorageDriverSQL}, wantErr: true},
		{name: "sql sqlite", env: map[string]string{EnvStorageDriver: StorageDriverSQL, EnvDBDSN: "file:cart.db"}},
		{name: "sql unknown dialect", env: map[string]string{EnvStorageDriver: StorageDriverSQL, EnvDBDSN: "x", EnvDBDriver: "mysql"}, wantErr: true},
		{name: "unknown driver", env: map[string]string{EnvStorageDriver: "etcd"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setMinimalEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if tc.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_RejectsBadShipping(t *testing.T) {
	for _, value := range []string{"-5", "free"} {
		setMinimalEnv(t)
		t.Setenv(EnvCartFlatShipping, value)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for shipping %q", value)
		}
	}
}

func TestLoad_PubSubNeedsProject(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvPubSubOrdersTopic, "orders")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without project id")
	}

	t.Setenv(EnvGCPProjectID, "project-123")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.PubSub.Enabled() {
		t.Fatal("expected pubsub enabled")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvStorageDriver, StorageDriverMemory)
	t.Setenv(EnvDBDriver, DBDriverSQLite)
	t.Setenv(EnvDBDSN, "")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvCartFlatShipping, "100.00")
	t.Setenv(EnvGCPProjectID, "")
	t.Setenv(EnvPubSubOrdersTopic, "")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
