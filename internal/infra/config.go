package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store driver names accepted by ARTWORK_STORE.
const (
	StoreDriverSupabase = "supabase"
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents application configuration loaded once from environment
// variables. It is immutable after LoadConfig; components receive it by
// injection, never by ambient lookup.
type Config struct {
	AppEnv string
	Port   string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryBaseURL      string
	CloudinaryUploadFolder string

	StoreDriver string
	DatabaseURL string
	SupabaseURL string
	SupabaseKey string

	GelatoWebhookURL string
	GelatoAPIKey     string

	RedisAddr         string
	RedisPassword     string
	ImageInfoCacheTTL time.Duration

	MaxFileSizeMB       float64
	MinDimensionPoster  int
	MinDimensionApparel int
	UpscalePixelLimit   int64

	BatchWorkers    int
	UploadTimeout   time.Duration
	WebhookTimeout  time.Duration
	RateLimitPerMin int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryBaseURL:      getEnv("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "portreo_artworks_production"),

		StoreDriver: getEnv("ARTWORK_STORE", StoreDriverSupabase),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SupabaseURL: os.Getenv("SUPABASE_URL"),
		SupabaseKey: os.Getenv("SUPABASE_KEY"),

		GelatoWebhookURL: os.Getenv("GELATO_WEBHOOK_URL"),
		GelatoAPIKey:     os.Getenv("GELATO_API_KEY"),

		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		ImageInfoCacheTTL: time.Minute * time.Duration(getEnvInt("IMAGE_INFO_CACHE_TTL_MINUTES", 10)),

		MaxFileSizeMB:       getEnvFloat("MAX_FILE_SIZE_MB", 50),
		MinDimensionPoster:  getEnvInt("MIN_DIMENSION_POSTER", 2000),
		MinDimensionApparel: getEnvInt("MIN_DIMENSION_APPAREL", 1500),
		UpscalePixelLimit:   int64(getEnvInt("UPSCALE_PIXEL_LIMIT", 4_200_000)),

		BatchWorkers:    getEnvInt("BATCH_WORKERS", 4),
		UploadTimeout:   time.Second * time.Duration(getEnvInt("UPLOAD_TIMEOUT_SECONDS", 60)),
		WebhookTimeout:  time.Second * time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 30)),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required")
	}

	switch cfg.StoreDriver {
	case StoreDriverSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for ARTWORK_STORE=supabase")
		}
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for ARTWORK_STORE=postgres")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported ARTWORK_STORE: %s", cfg.StoreDriver)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
