package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTTTL                 time.Duration
	AdminEmail             string
	AdminPasswordHash      string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	ProgressCacheTTL       time.Duration
	DashboardCacheTTL      time.Duration
	ProgressConcurrency    int
	UploadMaxSizeMB        int
	TutorDataPath          string
	TutorMinSimilarity     float64
	OpenAIAPIKey           string
	AIModel                string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LMS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "LMS Admin API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.ttl", "12h")
	v.SetDefault("cloudinary.folder", "lms")
	v.SetDefault("progress.cache_ttl", "5m")
	v.SetDefault("progress.fetch_concurrency", 4)
	v.SetDefault("dashboard.cache_ttl", "1m")
	v.SetDefault("upload.max_size_mb", 20)
	v.SetDefault("tutor.data_path", "appData/AITutorData.csv")
	v.SetDefault("tutor.min_similarity", 0.3)
	v.SetDefault("ai.model", "gpt-4o-mini")

	cacheTTL, err := parseDuration(v.GetString("progress.cache_ttl"), 5*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid progress cache ttl: %w", err)
	}

	dashboardTTL, err := parseDuration(v.GetString("dashboard.cache_ttl"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	jwtTTL, err := parseDuration(v.GetString("jwt.ttl"), 12*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 jwtTTL,
		AdminEmail:             strings.ToLower(strings.TrimSpace(v.GetString("admin.email"))),
		AdminPasswordHash:      v.GetString("admin.password_hash"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		ProgressCacheTTL:       cacheTTL,
		DashboardCacheTTL:      dashboardTTL,
		ProgressConcurrency:    v.GetInt("progress.fetch_concurrency"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		TutorDataPath:          v.GetString("tutor.data_path"),
		TutorMinSimilarity:     v.GetFloat64("tutor.min_similarity"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AIModel:                v.GetString("ai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" {
		return Config{}, fmt.Errorf("admin credentials must be provided")
	}

	if cfg.ProgressConcurrency <= 0 {
		cfg.ProgressConcurrency = 4
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 20
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
