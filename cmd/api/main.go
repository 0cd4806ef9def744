package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/reelvault/reelvault/internal/api/handler"
	"github.com/reelvault/reelvault/internal/api/middleware"
	"github.com/reelvault/reelvault/internal/auth"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/domain/repository"
	"github.com/reelvault/reelvault/internal/infrastructure/cache"
	"github.com/reelvault/reelvault/internal/infrastructure/postgres"
	"github.com/reelvault/reelvault/internal/infrastructure/queue"
	"github.com/reelvault/reelvault/internal/infrastructure/storage"
	"github.com/reelvault/reelvault/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// The metadata store connects lazily on first use; an empty
	// DATABASE_URL surfaces as a configuration error then, not here.
	connCache := postgres.NewConnCache(postgres.DefaultClientConfig(cfg.Database.URL))
	defer connCache.Close()

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO", slog.String("bucket", cfg.MinIO.Bucket))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// Ingest events are best-effort; a missing broker degrades to
	// metadata-only operation rather than blocking startup.
	var events *queue.Client
	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		logger.Warn("RabbitMQ unavailable, ingest events disabled", slog.String("error", err.Error()))
	} else {
		events = queueClient
		defer queueClient.Close()
		logger.Info("connected to RabbitMQ")
	}

	videoRepo := postgres.NewVideoRepository(postgres.NewLazyDB(connCache))
	videoCache := cache.NewRedisVideoCache(redisClient)

	var publisher repository.EventPublisher
	if events != nil {
		publisher = events
	}
	videoSvc := usecase.NewCachedVideoService(
		usecase.NewVideoService(videoRepo, publisher),
		videoCache,
		usecase.DefaultCachedVideoServiceConfig(),
	)

	credentialSvc := usecase.NewCredentialService(storageClient, usecase.CredentialServiceConfig{
		TTL: cfg.Upload.CredentialTTL,
	})

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	r := setupRouter(logger, verifier, videoSvc, credentialSvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(
	logger *slog.Logger,
	verifier *auth.Verifier,
	videoSvc usecase.VideoService,
	credentialSvc usecase.CredentialService,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	videoHandler := handler.NewVideoHandler(videoSvc)
	credentialHandler := handler.NewCredentialHandler(credentialSvc)

	r.Route("/v1", func(r chi.Router) {
		// Browse listing needs only a present token; the detail read is
		// open. Writes and credential issuance verify the signature.
		r.With(middleware.RequireToken(logger)).Get("/videos", videoHandler.List)
		r.Get("/videos/{id}", videoHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(verifier, logger))
			r.Post("/videos", videoHandler.Create)
			r.Get("/upload-credential", credentialHandler.Issue)
		})
	})

	return r
}
