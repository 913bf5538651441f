package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
storage:
  driver: postgres
discover:
  default_radius_km: 25
limits:
  likes_per_minute: 12
auth:
  jwt_access_ttl: 2h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Storage.Driver != StoragePostgres {
		t.Fatalf("unexpected storage driver: %s", cfg.Storage.Driver)
	}
	if cfg.Discover.DefaultRadiusKM != 25 {
		t.Fatalf("unexpected default radius: %d", cfg.Discover.DefaultRadiusKM)
	}
	if cfg.Limits.LikesPerMinute != 12 {
		t.Fatalf("unexpected likes/min: %d", cfg.Limits.LikesPerMinute)
	}
	if cfg.Auth.JWTAccessTTL != 2*time.Hour {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.JWTAccessTTL)
	}

	if cfg.Discover.MaxResults != 100 {
		t.Fatalf("discover max_results default should stay 100")
	}
	if cfg.Limits.LikesPer10Seconds != 10 {
		t.Fatalf("likes_per_10sec default should stay 10")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config with missing file: %v", err)
	}

	if cfg.Storage.Driver != StorageBadger || cfg.Storage.Badger.Dir != "" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Auth.JWTAccessTTL != 24*time.Hour {
		t.Fatalf("unexpected default access ttl: %s", cfg.Auth.JWTAccessTTL)
	}
	if cfg.Discover.DefaultRadiusKM != 50 {
		t.Fatalf("unexpected default radius: %d", cfg.Discover.DefaultRadiusKM)
	}
	if cfg.Postgres.MaxConns != 10 || cfg.Postgres.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected postgres pool defaults: %+v", cfg.Postgres)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_DRIVER", "POSTGRES")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("JWT_ACCESS_TTL", "30m")
	t.Setenv("POSTGRES_MAX_CONNS", "25")
	t.Setenv("POSTGRES_CONNECT_TIMEOUT", "2s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Driver != StoragePostgres {
		t.Fatalf("unexpected storage driver: %s", cfg.Storage.Driver)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("redis must be disabled by env")
	}
	if cfg.Auth.JWTAccessTTL != 30*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.JWTAccessTTL)
	}
	if cfg.Postgres.MaxConns != 25 || cfg.Postgres.ConnectTimeout != 2*time.Second {
		t.Fatalf("unexpected postgres pool settings: %+v", cfg.Postgres)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("STORAGE_DRIVER", "mongo")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for unsupported storage driver")
	}

	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when jwt secret is left at its default in production")
	}

	clearConfigEnv(t)
	t.Setenv("POSTGRES_MIN_CONNS", "20")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error when min_conns exceeds max_conns")
	}

	clearConfigEnv(t)
	t.Setenv("REDIS_DB", "one")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for malformed REDIS_DB")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"APP_VERSION",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"STORAGE_DRIVER",
		"BADGER_DIR",
		"POSTGRES_DSN",
		"POSTGRES_AUTO_MIGRATE",
		"POSTGRES_MAX_CONNS",
		"POSTGRES_MIN_CONNS",
		"POSTGRES_CONNECT_TIMEOUT",
		"BADGER_GC_INTERVAL",
		"REDIS_ENABLED",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"S3_ENABLED",
		"S3_ENDPOINT",
		"S3_ACCESS_KEY",
		"S3_SECRET_KEY",
		"S3_BUCKET",
		"S3_USE_SSL",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"BCRYPT_COST",
		"DISCOVER_DEFAULT_RADIUS_KM",
	} {
		t.Setenv(key, "")
	}
}
