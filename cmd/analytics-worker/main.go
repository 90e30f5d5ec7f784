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

	"github.com/angelmondragon/clipstream-backend/internal/analytics/router"
	"github.com/angelmondragon/clipstream-backend/internal/analytics/types"
	"github.com/angelmondragon/clipstream-backend/internal/analytics/worker"
	"github.com/angelmondragon/clipstream-backend/internal/analytics/writer"
	"github.com/angelmondragon/clipstream-backend/pkg/bigquery"
	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/instance"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/clipstream-backend/pkg/pubsub"
	"github.com/angelmondragon/clipstream-backend/pkg/redis"
)

const serviceName = "analytics-worker"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})

	// Clients are built on a background context so they outlive the
	// shutdown signal long enough for the final flush.
	setup := context.WithoutCancel(ctx)

	redisClient, err := redis.New(setup, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer closeQuietly(setup, logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(setup, cfg.GCP, cfg.PubSub, logg,
		pubsub.RequireSubscriptions(cfg.PubSub.AnalyticsSubscription),
	)
	requireResource(ctx, logg, "pubsub", err)
	defer closeQuietly(setup, logg, "pubsub", pubsubClient.Close)

	bqClient, err := bigquery.NewClient(setup, cfg.GCP, cfg.BigQuery, logg, bigquery.TableSpec{
		Name:           cfg.BigQuery.EngagementTable,
		Row:            types.EngagementEventRow{},
		PartitionField: "occurred_at",
	})
	requireResource(ctx, logg, "bigquery", err)
	defer closeQuietly(setup, logg, "bigquery", bqClient.Close)

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "analytics subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	engagement, err := writer.New(bqClient, writer.Config{
		EngagementTable: bqClient.EngagementTable(),
		BatchSize:       cfg.BigQuery.InsertBatchSize,
		RetryPolicy:     writer.RetryPolicy{MaxAttempts: cfg.BigQuery.InsertMaxRetries},
	})
	requireResource(ctx, logg, "engagement writer", err)

	routes, err := router.NewRouter(engagement, logg)
	requireResource(ctx, logg, "analytics router", err)

	service, err := worker.NewService(subscription, routes, manager, engagement, logg)
	requireResource(ctx, logg, "analytics worker", err)
	service.WithMetrics(metrics.NewConsumerMetrics(prometheus.DefaultRegisterer))

	logg.Info(ctx, "analytics worker ready")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "analytics worker stopped")
}

func closeQuietly(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, fmt.Sprintf("failed to close %s", name), err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
