package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/domain/model"
	"github.com/reelvault/reelvault/internal/domain/repository"
	"github.com/reelvault/reelvault/internal/infrastructure/cache"
	"github.com/reelvault/reelvault/internal/infrastructure/postgres"
	"github.com/reelvault/reelvault/internal/infrastructure/queue"
	"github.com/reelvault/reelvault/internal/infrastructure/storage"
)

const (
	warmTTL         = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// videoLoader is the slice of the repository the warmer needs.
type videoLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error)
}

// detailCache is the slice of the video cache the warmer needs.
type detailCache interface {
	Set(ctx context.Context, video *model.Video, ttl time.Duration) error
}

// warmer reacts to ingest events: it confirms the announced object really
// landed in the store, then primes the detail cache so the first readers
// after an upload skip the database.
type warmer struct {
	repo   videoLoader
	cache  detailCache
	store  repository.ObjectStorage
	bucket string
	logger *slog.Logger
}

func (w *warmer) handle(ctx context.Context, event repository.IngestEvent) error {
	w.logger.Info("video ingested",
		slog.String("video_id", event.VideoID.String()),
		slog.String("user_id", event.UserID.String()),
		slog.String("title", event.Title),
	)

	if key, ok := objectKey(event.VideoURL, w.bucket); ok {
		exists, err := w.store.Exists(ctx, key)
		if err != nil {
			w.logger.Warn("could not verify ingested object",
				slog.String("video_id", event.VideoID.String()),
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		} else if !exists {
			return fmt.Errorf("verify %s: %w", key, repository.ErrObjectNotFound)
		}
	}

	video, err := w.repo.GetByID(ctx, event.VideoID)
	if err != nil {
		w.logger.Warn("could not load ingested video for cache warm",
			slog.String("video_id", event.VideoID.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if err := w.cache.Set(ctx, video, warmTTL); err != nil {
		w.logger.Warn("cache warm failed",
			slog.String("video_id", event.VideoID.String()),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// objectKey extracts the store key from a video URL when the URL points
// into our bucket. Records may carry external URLs; those are not checked.
func objectKey(rawURL, bucket string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	key, found := strings.CutPrefix(u.Path, "/"+bucket+"/")
	if !found || key == "" {
		return "", false
	}
	return key, true
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
	if err := storageClient.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach MinIO: %w", err)
	}
	logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

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

	w := &warmer{
		repo:   postgres.NewVideoRepository(postgres.NewLazyDB(connCache)),
		cache:  cache.NewRedisVideoCache(redisClient),
		store:  storageClient,
		bucket: storageClient.Bucket(),
		logger: logger,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting notifier, consuming ingest events")
		err := queueClient.ConsumeIngest(ctx, func(event repository.IngestEvent) error {
			wg.Add(1)
			defer wg.Done()
			return w.handle(ctx, event)
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down notifier", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight events handled")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded")
	}

	logger.Info("notifier stopped")
	return nil
}
