package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port    string
	AppEnv  string
	BaseURL string

	DBDriver string

	SessionSecret string
	CSRFKey       string
	CookieSecure  bool

	AdminFee int64

	UploadDir      string
	StorageDriver  string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	RedisURL    string
	CorsOrigins []string

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	cfg := Config{
		Port:           envOrDefault("PORT", "8080"),
		AppEnv:         envOrDefault("APP_ENV", "development"),
		BaseURL:        strings.TrimRight(envOrDefault("BASE_URL", "http://localhost:8080"), "/"),
		DBDriver:       strings.ToLower(envOrDefault("DB_DRIVER", "mysql")),
		SessionSecret:  envOrDefault("SESSION_SECRET", ""),
		CSRFKey:        envOrDefault("CSRF_KEY", ""),
		CookieSecure:   envBool("COOKIE_SECURE", false),
		AdminFee:       int64(envOrInt("ADMIN_FEE", 50000)),
		UploadDir:      envOrDefault("UPLOAD_DIR", "uploads"),
		StorageDriver:  strings.ToLower(envOrDefault("STORAGE_DRIVER", "local")),
		SupabaseURL:    envOrDefault("SUPABASE_URL", ""),
		SupabaseKey:    envOrDefault("SUPABASE_KEY", ""),
		SupabaseBucket: envOrDefault("SUPABASE_BUCKET", "kos-images"),
		RedisURL:       envOrDefault("REDIS_URL", ""),
		CorsOrigins:    parseCSV(envOrDefault("CORS_ORIGINS", "")),
		AdminEmail:     envOrDefault("ADMIN_EMAIL", "admin@temankosan.id"),
		AdminPassword:  envOrDefault("ADMIN_PASSWORD", ""),
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("❌ SESSION_SECRET must be set in production")
		}
		log.Println("⚠️  SESSION_SECRET not set; using an insecure development secret")
		cfg.SessionSecret = "temankosan-dev-secret"
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func envOrDefault(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  %s=%q is not a number; using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
