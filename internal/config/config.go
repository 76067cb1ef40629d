package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers understood by the API.
const (
	StorageJSON     = "json"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Upload drivers understood by the API.
const (
	UploadsLocal      = "local"
	UploadsCloudinary = "cloudinary"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                 string
	AppEnv                  string
	AppPort                 string
	LogLevel                string
	StorageDriver           string
	DataDir                 string
	DatabaseURL             string
	SQLitePath              string
	RedisURL                string
	NATSURL                 string
	EventsSubject           string
	JWTSecret               string
	GradebookCacheTTL       time.Duration
	UploadsDriver           string
	UploadsDir              string
	UploadsMaxBytes         int64
	CloudinaryCloudName     string
	CloudinaryAPIKey        string
	CloudinaryAPISecret     string
	CloudinaryUploadFolder  string
	SubmissionRatePerMinute int
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
	v.SetEnvPrefix("PORTAL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "School Portal API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", StorageJSON)
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("sqlite.path", "portal.db")
	v.SetDefault("events.subject", "portal.grades")
	v.SetDefault("gradebook.cache_ttl", "2m")
	v.SetDefault("uploads.driver", UploadsLocal)
	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.max_bytes", 10<<20)
	v.SetDefault("cloudinary.folder", "portal/submissions")
	v.SetDefault("ratelimit.submissions_per_minute", 10)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	ttlString := v.GetString("gradebook.cache_ttl")
	if ttlString == "" {
		ttlString = "2m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid gradebook cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		LogLevel:                strings.ToLower(v.GetString("log.level")),
		StorageDriver:           strings.ToLower(v.GetString("storage.driver")),
		DataDir:                 v.GetString("storage.data_dir"),
		DatabaseURL:             v.GetString("database.url"),
		SQLitePath:              v.GetString("sqlite.path"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		EventsSubject:           v.GetString("events.subject"),
		JWTSecret:               v.GetString("jwt.secret"),
		GradebookCacheTTL:       ttl,
		UploadsDriver:           strings.ToLower(v.GetString("uploads.driver")),
		UploadsDir:              v.GetString("uploads.dir"),
		UploadsMaxBytes:         v.GetInt64("uploads.max_bytes"),
		CloudinaryCloudName:     v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:        v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:     v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder:  v.GetString("cloudinary.folder"),
		SubmissionRatePerMinute: v.GetInt("ratelimit.submissions_per_minute"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.StorageDriver {
	case StorageJSON, StorageSQLite:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url is required for the postgres storage driver")
		}
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	switch cfg.UploadsDriver {
	case UploadsLocal, UploadsCloudinary:
	default:
		return Config{}, fmt.Errorf("unsupported uploads driver %q", cfg.UploadsDriver)
	}

	if cfg.UploadsMaxBytes <= 0 {
		cfg.UploadsMaxBytes = 10 << 20
	}

	if cfg.SubmissionRatePerMinute <= 0 {
		cfg.SubmissionRatePerMinute = 10
	}

	return cfg, nil
}
