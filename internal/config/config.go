package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	JWTSecret            string
	JWTIssuer            string
	AccessTTLSeconds     int64
	RefreshTTLSeconds    int64
	MediaStoragePath     string
	PublicBaseURL        string
	ForgotPasswordURL    string
	MailAPIURL           string
	MailAPIKey           string
	MailFromAddress      string
	MailFromName         string
	MetricsDiskPath      string
	MetricsSampleSeconds int
	CorsOrigins          []string
	MaxUploadBytes       int64
}

func Load() Config {
	return Config{
		DatabaseURL:          mustEnv("DATABASE_URL"),
		JWTSecret:            mustEnv("JWT_SECRET"),
		JWTIssuer:            envOr("JWT_ISSUER", "studyhive"),
		AccessTTLSeconds:     int64(envOrInt("ACCESS_TTL_SECONDS", 900)),
		RefreshTTLSeconds:    int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		MediaStoragePath:     envOr("MEDIA_STORAGE_PATH", "storage/media"),
		PublicBaseURL:        envOr("PUBLIC_BASE_URL", "http://localhost:8080"),
		ForgotPasswordURL:    envOr("FORGOT_PASSWORD_REDIRECT_URL", "http://localhost:5173/reset-password"),
		MailAPIURL:           envOr("MAIL_API_URL", ""),
		MailAPIKey:           envOr("MAIL_API_KEY", ""),
		MailFromAddress:      envOr("MAIL_FROM", "no-reply@studyhive.app"),
		MailFromName:         envOr("MAIL_FROM_NAME", "StudyHive"),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "storage/media"),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
		MaxUploadBytes:       int64(envOrInt("MAX_UPLOAD_BYTES", 5<<20)),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
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
