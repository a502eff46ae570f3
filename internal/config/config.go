package config

import (
	"os"
	"strconv"
)

// Backend selects which collection-store implementation the service runs
// against.
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

// Config resbar-pos service configuration, resolved from the environment.
type Config struct {
	HTTP struct {
		Addr string
	}
	Backend  string
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
		MaxConns int
		MaxIdle  int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Supabase struct {
		URL     string
		AnonKey string
	}
	Log struct {
		Level  string
		Format string
	}
	Floor struct {
		// Canvas size in pixels used to clamp drag gestures server-side.
		CanvasWidth  float64
		CanvasHeight float64
	}
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.Backend = getEnv("BACKEND", BackendPostgres)

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "resbar")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Supabase.URL = getEnv("SUPABASE_URL", "")
	cfg.Supabase.AnonKey = getEnv("SUPABASE_ANON_KEY", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Floor.CanvasWidth = float64(parseInt(getEnv("FLOOR_CANVAS_WIDTH", "1000"), 1000))
	cfg.Floor.CanvasHeight = float64(parseInt(getEnv("FLOOR_CANVAS_HEIGHT", "1000"), 1000))

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
