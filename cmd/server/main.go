package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ConfabulousDev/resume-insights/internal/analytics"
	"github.com/ConfabulousDev/resume-insights/internal/api"
	"github.com/ConfabulousDev/resume-insights/internal/auth"
	"github.com/ConfabulousDev/resume-insights/internal/dashboard"
	"github.com/ConfabulousDev/resume-insights/internal/db"
	"github.com/ConfabulousDev/resume-insights/internal/logger"
	"github.com/ConfabulousDev/resume-insights/internal/ratelimit"
	"github.com/ConfabulousDev/resume-insights/internal/source"
	"github.com/ConfabulousDev/resume-insights/internal/storage"
)

var version string

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "worker" {
		runWorker()
		return
	}

	// Configured via OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_HEADERS
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		logger.Warn("failed to configure OpenTelemetry", "error", err)
	} else {
		defer otelShutdown()
	}

	config, err := parseConfig(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	deps := api.Deps{}

	var src source.Source
	switch config.RecordSource {
	case sourcePostgres:
		database, err := db.Connect(ctx, config.DatabaseURL, db.PoolConfig{})
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer database.Close()

		if config.MigrateOnStart {
			if err := db.RunMigrations(database.Conn()); err != nil {
				logger.Fatal("failed to run migrations", "error", err)
			}
			logger.Info("migrations applied")
		}

		store := analytics.NewStore(database.Conn())
		src = store
		deps.Records = store
		deps.Health = database
	case sourceHTTP:
		src = source.NewHTTPSource(source.HTTPConfig{
			BaseURL: config.AnalyticsServiceURL,
			Timeout: config.SourceTimeout,
		})
	}
	logger.Info("record source configured", "source", config.RecordSource)

	if config.RedisURL != "" {
		revoker, err := auth.NewRedisRevoker(ctx, config.RedisURL)
		if err != nil {
			logger.Fatal("failed to connect to redis", "error", err)
		}
		defer revoker.Close()
		deps.Revoker = revoker
		logger.Info("token revocation backed by redis")
	} else {
		deps.Revoker = auth.NewMemoryRevoker()
		logger.Info("token revocation kept in memory (REDIS_URL not set)")
	}

	if config.S3Config != nil {
		store, err := storage.NewS3Storage(ctx, *config.S3Config)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		deps.Archive = store
		logger.Info("export archive enabled", "bucket", config.S3Config.BucketName)
	} else {
		logger.Info("export archive disabled (S3_ENDPOINT not set)")
	}

	limiter := ratelimit.NewInMemoryRateLimiter(config.RateLimitRPS, config.RateLimitBurst)
	defer limiter.Stop()
	deps.Limiter = limiter

	server := api.NewServer(dashboard.NewService(src), deps, api.Config{
		JWTSecret:      []byte(config.JWTSecret),
		AllowedOrigins: config.AllowedOrigins,
		IngestAPIKey:   config.IngestAPIKey,
	})

	handler := otelhttp.NewHandler(server.SetupRoutes(), "resume-insights")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", config.Port, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
