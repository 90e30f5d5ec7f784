package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/clipstream-backend/internal/consumers/videodeletion"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/internal/webhooks"
	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/instance"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/clipstream-backend/pkg/pubsub"
	"github.com/angelmondragon/clipstream-backend/pkg/redis"
)

const serviceKind = "worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "resource not working: config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		ProjectID:   cfg.GCP.ProjectID,
	})

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

// run wires the video deletion consumer and blocks until ctx ends.
func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeLogged(ctx, logg, "database", dbClient.Close)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeLogged(ctx, logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg,
		pubsub.RequireSubscriptions(cfg.PubSub.VideoDeletionSubscription),
		pubsub.RequireTopics(cfg.PubSub.PublishDeletionTopic),
	)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}
	defer closeLogged(ctx, logg, "pubsub client", pubsubClient.Close)

	subscription := pubsubClient.VideoDeletionSubscription()
	if subscription == nil {
		return errors.New("video deletion subscription not configured")
	}
	processed, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency manager: %w", err)
	}
	deleter, err := webhooks.NewDeleter(
		publishes.NewRepository(dbClient.DB()),
		pubsub.NewAnnouncer(pubsubClient, cfg.PubSub.PublishDeletionTopic, logg),
	)
	if err != nil {
		return fmt.Errorf("publish deleter: %w", err)
	}
	consumer, err := videodeletion.NewConsumer(deleter, processed, subscription, cfg.Webhooks.EncryptKey, logg)
	if err != nil {
		return fmt.Errorf("video deletion consumer: %w", err)
	}
	consumer.WithMetrics(metrics.NewConsumerMetrics(prometheus.DefaultRegisterer))

	service, err := NewService(ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		PubSub:   pubsubClient,
		Consumer: consumer,
	})
	if err != nil {
		return fmt.Errorf("worker service: %w", err)
	}
	logg.Info(ctx, "starting worker")
	return service.Run(ctx)
}

func closeLogged(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
