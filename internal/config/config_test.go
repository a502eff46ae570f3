package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg := Load()

	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("Expected HTTP_ADDR default ':8080', got '%s'", cfg.HTTP.Addr)
	}

	if cfg.Backend != BackendPostgres {
		t.Errorf("Expected BACKEND default 'postgres', got '%s'", cfg.Backend)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected DB_HOST default 'localhost', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("Expected DB_PORT default 5432, got %d", cfg.Database.Port)
	}

	if cfg.Database.Database != "resbar" {
		t.Errorf("Expected DB_NAME default 'resbar', got '%s'", cfg.Database.Database)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Expected REDIS_ADDR default 'localhost:6379', got '%s'", cfg.Redis.Addr)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Expected LOG_LEVEL default 'info', got '%s'", cfg.Log.Level)
	}

	if cfg.Floor.CanvasWidth != 1000 || cfg.Floor.CanvasHeight != 1000 {
		t.Errorf("Expected 1000x1000 canvas default, got %vx%v", cfg.Floor.CanvasWidth, cfg.Floor.CanvasHeight)
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Setenv("BACKEND", "supabase")
	os.Setenv("SUPABASE_URL", "https://example.supabase.co")
	os.Setenv("SUPABASE_ANON_KEY", "anon-key")
	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_PORT", "15432")
	os.Setenv("LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("BACKEND")
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_ANON_KEY")
		os.Unsetenv("DB_HOST")
		os.Unsetenv("DB_PORT")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg := Load()

	if cfg.Backend != BackendSupabase {
		t.Errorf("Expected BACKEND 'supabase', got '%s'", cfg.Backend)
	}

	if cfg.Supabase.URL != "https://example.supabase.co" {
		t.Errorf("Expected SUPABASE_URL 'https://example.supabase.co', got '%s'", cfg.Supabase.URL)
	}

	if cfg.Database.Host != "test-host" {
		t.Errorf("Expected DB_HOST 'test-host', got '%s'", cfg.Database.Host)
	}

	if cfg.Database.Port != 15432 {
		t.Errorf("Expected DB_PORT 15432, got %d", cfg.Database.Port)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected LOG_LEVEL 'debug', got '%s'", cfg.Log.Level)
	}
}

func TestParseInt_Invalid(t *testing.T) {
	if v := parseInt("not-a-number", 42); v != 42 {
		t.Errorf("Expected fallback 42, got %d", v)
	}
}
