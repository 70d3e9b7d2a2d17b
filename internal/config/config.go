package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage providers supported for section images.
const (
	StorageProviderMinio      = "minio"
	StorageProviderCloudinary = "cloudinary"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	AllowOrigins           string
	DatabaseURL            string
	RedisURL               string
	SessionCookieName      string
	SessionTTL             time.Duration
	StorageProvider        string
	MinioEndpoint          string
	MinioAccessKey         string
	MinioSecretKey         string
	MinioBucket            string
	MinioUseSSL            bool
	MinioPublicURL         string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	NATSURL                string
	NATSSubject            string
	AdminEmail             string
	AdminPassword          string
	LoginRateLimit         int
	LoginRateWindow        time.Duration
	ImageMaxSizeMB         int
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
	v.SetEnvPrefix("SPORT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sport Sections API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.allow_origins", "*")
	v.SetDefault("session.cookie", "session_id")
	v.SetDefault("session.ttl", "72h")
	v.SetDefault("storage.provider", StorageProviderMinio)
	v.SetDefault("minio.bucket", "bmstu-sport")
	v.SetDefault("minio.public_url", "http://localhost:9000")
	v.SetDefault("cloudinary.folder", "sport/sections")
	v.SetDefault("nats.subject", "sport.applications")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")
	v.SetDefault("image.max_size_mb", 5)

	sessionTTL, err := parseDuration(v.GetString("session.ttl"), "72h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid session ttl: %w", err)
	}

	loginWindow, err := parseDuration(v.GetString("login.rate_window"), "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		AllowOrigins:           normalizeOrigins(v.GetString("app.allow_origins")),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		SessionCookieName:      v.GetString("session.cookie"),
		SessionTTL:             sessionTTL,
		StorageProvider:        strings.ToLower(strings.TrimSpace(v.GetString("storage.provider"))),
		MinioEndpoint:          v.GetString("minio.endpoint"),
		MinioAccessKey:         v.GetString("minio.access_key"),
		MinioSecretKey:         v.GetString("minio.secret_key"),
		MinioBucket:            v.GetString("minio.bucket"),
		MinioUseSSL:            v.GetBool("minio.use_ssl"),
		MinioPublicURL:         strings.TrimRight(v.GetString("minio.public_url"), "/"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		AdminEmail:             strings.TrimSpace(v.GetString("admin.email")),
		AdminPassword:          v.GetString("admin.password"),
		LoginRateLimit:         v.GetInt("login.rate_limit"),
		LoginRateWindow:        loginWindow,
		ImageMaxSizeMB:         v.GetInt("image.max_size_mb"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("redis url must be provided")
	}

	switch cfg.StorageProvider {
	case StorageProviderMinio, StorageProviderCloudinary:
	default:
		return Config{}, fmt.Errorf("unsupported storage provider %q", cfg.StorageProvider)
	}

	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "session_id"
	}

	if cfg.ImageMaxSizeMB <= 0 {
		cfg.ImageMaxSizeMB = 5
	}

	return cfg, nil
}

func parseDuration(value, fallback string) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return time.ParseDuration(value)
}

func normalizeOrigins(raw string) string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}
