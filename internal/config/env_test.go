package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_TIMEZONE", "")
	t.Setenv("JWT_TTL_HOURS", "")
	t.Setenv("ROUTE_CACHE_SIZE", "")
	t.Setenv("ROUTE_CACHE_TTL_SEC", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, ,http://driver.app")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv returned error: %v", err)
	}
	if env.AppAddr == "" || env.DBDriver != "mysql" {
		t.Fatalf("unexpected defaults: addr=%q driver=%q", env.AppAddr, env.DBDriver)
	}
	if env.Location == nil || env.Location.String() != "Asia/Jakarta" {
		t.Fatalf("location = %v, want Asia/Jakarta", env.Location)
	}
	if env.JWTTTL != 24*time.Hour {
		t.Fatalf("jwt ttl = %v", env.JWTTTL)
	}
	if len(env.CORSAllowedOrigins) != 2 {
		t.Fatalf("cors origins = %v", env.CORSAllowedOrigins)
	}
	if env.RouteCacheSize != 256 || env.RouteCacheTTL != 5*time.Minute {
		t.Fatalf("route cache = %d/%v", env.RouteCacheSize, env.RouteCacheTTL)
	}
}

func TestLoadEnvRejectsBadValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}

	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error when pgx has no DATABASE_URL")
	}

	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}

	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadEnv(); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}
}
