package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"upscaler/internal/cache"
	"upscaler/internal/cloudinary"
	"upscaler/internal/http/handlers"
	"upscaler/internal/http/httpapi"
	"upscaler/internal/infra"
	"upscaler/internal/middleware"
	"upscaler/internal/notify"
	"upscaler/internal/store"
	"upscaler/internal/upscale"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	var artworkStore store.ArtworkStore
	switch cfg.StoreDriver {
	case infra.StoreDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		artworkStore, err = store.NewPostgresStore(ctx, pool)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize postgres store")
		}
	case infra.StoreDriverSupabase:
		artworkStore, err = store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize supabase store")
		}
	default:
		artworkStore = store.NewMemoryStore()
		logger.Warn().Msg("using in-memory artwork store, state is lost on restart")
	}

	provider := cloudinary.New(cloudinary.Options{
		CloudName:    cfg.CloudinaryCloudName,
		APIKey:       cfg.CloudinaryAPIKey,
		APISecret:    cfg.CloudinaryAPISecret,
		BaseURL:      cfg.CloudinaryBaseURL,
		UploadFolder: cfg.CloudinaryUploadFolder,
		Timeout:      cfg.UploadTimeout,
	})

	var infoCache *cache.ImageInfoCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, image info cache disabled")
		} else {
			infoCache = cache.NewImageInfoCache(rdb, cfg.ImageInfoCacheTTL, logger)
		}
	}

	notifier := notify.NewClient(notify.Config{
		WebhookURL:  cfg.GelatoWebhookURL,
		APIKey:      cfg.GelatoAPIKey,
		Timeout:     cfg.WebhookTimeout,
		MaxAttempts: 3,
	})
	if cfg.GelatoWebhookURL == "" {
		logger.Warn().Msg("gelato webhook url not configured, completion notifications disabled")
	}

	processor := upscale.NewProcessor(provider, artworkStore, notifier, infoCache, logger, upscale.Options{
		Limits: upscale.Limits{
			PixelLimit:          cfg.UpscalePixelLimit,
			MinDimensionPoster:  cfg.MinDimensionPoster,
			MinDimensionApparel: cfg.MinDimensionApparel,
			MaxFileSizeMB:       cfg.MaxFileSizeMB,
		},
		BatchWorkers:   cfg.BatchWorkers,
		UploadTimeout:  cfg.UploadTimeout,
		WebhookTimeout: cfg.WebhookTimeout,
	})

	metrics := middleware.NewMetrics()
	app := handlers.NewApp(logger, artworkStore, processor, metrics, version)
	router := httpapi.NewRouter(app, cfg.RateLimitPerMin)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
