package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/clipstream-backend/api/controllers"
	"github.com/angelmondragon/clipstream-backend/api/routes"
	"github.com/angelmondragon/clipstream-backend/internal/accounts"
	"github.com/angelmondragon/clipstream-backend/internal/authenticity"
	"github.com/angelmondragon/clipstream-backend/internal/bookmarks"
	"github.com/angelmondragon/clipstream-backend/internal/comments"
	"github.com/angelmondragon/clipstream-backend/internal/dontrecommend"
	"github.com/angelmondragon/clipstream-backend/internal/media"
	"github.com/angelmondragon/clipstream-backend/internal/notifications"
	"github.com/angelmondragon/clipstream-backend/internal/playlists"
	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/internal/reports"
	"github.com/angelmondragon/clipstream-backend/internal/streams"
	"github.com/angelmondragon/clipstream-backend/internal/watchlater"
	"github.com/angelmondragon/clipstream-backend/internal/webhooks"
	"github.com/angelmondragon/clipstream-backend/pkg/auth"
	"github.com/angelmondragon/clipstream-backend/pkg/auth/session"
	"github.com/angelmondragon/clipstream-backend/pkg/cloudflare"
	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/db"
	"github.com/angelmondragon/clipstream-backend/pkg/ethsig"
	"github.com/angelmondragon/clipstream-backend/pkg/instance"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
	"github.com/angelmondragon/clipstream-backend/pkg/migrate"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/clipstream-backend/pkg/pubsub"
	"github.com/angelmondragon/clipstream-backend/pkg/redis"
	"github.com/angelmondragon/clipstream-backend/pkg/uploadapi"
	"github.com/angelmondragon/clipstream-backend/pkg/walletapi"
)

// shutdownGrace bounds how long in-flight requests may finish after SIGTERM.
const shutdownGrace = 10 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		ProjectID:   cfg.GCP.ProjectID,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	requireResource(ctx, logg, "dev migrations", migrate.MaybeRunDev(ctx, cfg, logg, dbClient))

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg,
		pubsub.RequireTopics(cfg.PubSub.PublishProcessingTopic, cfg.PubSub.NewNotificationTopic, cfg.PubSub.PublishDeletionTopic),
	)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub client", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	tokens, err := auth.NewTokenSource(cfg.ServiceAuth, cfg.GCP)
	requireResource(ctx, logg, "service token source", err)
	wallet, err := walletapi.NewClient(cfg.Wallet.BaseURL, walletapi.WithTokenSource(tokens))
	requireResource(ctx, logg, "wallet service client", err)
	uploads, err := uploadapi.NewClient(cfg.Upload.BaseURL, uploadapi.WithTokenSource(tokens))
	requireResource(ctx, logg, "upload service client", err)
	stream, err := cloudflare.NewClient(cfg.Cloudflare.AccountID, cfg.Cloudflare.APIToken, cloudflare.WithBaseURL(cfg.Cloudflare.BaseURL))
	requireResource(ctx, logg, "cloudflare client", err)
	resolver, err := ethsig.NewResolver(cfg.Wallet.Message)
	requireResource(ctx, logg, "signature resolver", err)
	sessions, err := session.NewCache(redisClient, cfg.Session)
	requireResource(ctx, logg, "session cache", err)

	conn := dbClient.DB()
	accountRepo := accounts.NewRepository(conn)
	profileRepo := profiles.NewRepository(conn)
	publishRepo := publishes.NewRepository(conn)
	enricher := publishes.NewEnricher(publishRepo)

	validator, err := authenticity.NewValidator(wallet, resolver, accountRepo)
	requireResource(ctx, logg, "authenticity validator", err)
	guard, err := authenticity.NewGuard(validator, profileRepo)
	requireResource(ctx, logg, "authenticity guard", err)

	processing := pubsub.NewAnnouncer(pubsubClient, cfg.PubSub.PublishProcessingTopic, logg)
	deletion := pubsub.NewAnnouncer(pubsubClient, cfg.PubSub.PublishDeletionTopic, logg)
	notifier, err := notifications.NewEmitter(
		notifications.NewRepository(conn),
		pubsub.NewAnnouncer(pubsubClient, cfg.PubSub.NewNotificationTopic, logg),
		metrics.NewNotificationMetrics(registry),
	)
	requireResource(ctx, logg, "notification emitter", err)
	events := outbox.NewService(outbox.NewRepository(conn), logg)
	cleaner := media.NewCleaner(uploads, stream, logg)
	defer cleaner.Wait()

	var svcs routes.Services

	svcs.Accounts, err = accounts.NewService(accountRepo, wallet, resolver, guard, sessions, logg)
	requireResource(ctx, logg, "accounts service", err)

	svcs.Profiles, err = profiles.NewService(profileRepo, dbClient, guard, notifier, cleaner, logg)
	requireResource(ctx, logg, "profiles service", err)

	svcs.Publishes, err = publishes.NewService(publishes.ServiceParams{
		Repo:       publishRepo,
		Tx:         dbClient,
		Guard:      guard,
		Notifier:   notifier,
		Processing: processing,
		Media:      cleaner,
		Events:     events,
		Wallet:     wallet,
		Logger:     logg,
	})
	requireResource(ctx, logg, "publishes service", err)

	svcs.Comments, err = comments.NewService(comments.ServiceParams{
		Repo:       comments.NewRepository(conn),
		Tx:         dbClient,
		Guard:      guard,
		Notifier:   notifier,
		Processing: processing,
		Events:     events,
		Logger:     logg,
	})
	requireResource(ctx, logg, "comments service", err)

	svcs.Playlists, err = playlists.NewService(playlists.NewRepository(conn), dbClient, guard, enricher)
	requireResource(ctx, logg, "playlists service", err)

	svcs.WatchLater, err = watchlater.NewService(watchlater.NewRepository(conn), guard, enricher)
	requireResource(ctx, logg, "watch later service", err)

	svcs.Bookmarks, err = bookmarks.NewService(bookmarks.NewRepository(conn), guard, enricher)
	requireResource(ctx, logg, "bookmarks service", err)

	svcs.Notifications, err = notifications.NewService(notifications.NewRepository(conn), guard)
	requireResource(ctx, logg, "notifications service", err)

	svcs.DontRecommend, err = dontrecommend.NewService(dontrecommend.NewRepository(conn), guard)
	requireResource(ctx, logg, "dont recommend service", err)

	svcs.Reports, err = reports.NewService(reports.NewRepository(conn), guard)
	requireResource(ctx, logg, "reports service", err)

	svcs.Streams, err = streams.NewService(streams.ServiceParams{
		Repo:             publishRepo,
		Tx:               dbClient,
		Guard:            guard,
		Cloudflare:       stream,
		Processing:       processing,
		Logger:           logg,
		PlaybackBaseURL:  cfg.Cloudflare.LivePlaybackURL,
		DefaultThumbnail: cfg.Cloudflare.DefaultThumbnail,
	})
	requireResource(ctx, logg, "streams service", err)

	deleter, err := webhooks.NewDeleter(publishRepo, deletion)
	requireResource(ctx, logg, "publish deleter", err)
	svcs.Webhooks, err = webhooks.NewService(webhooks.ServiceParams{
		Repo:              publishRepo,
		Tx:                dbClient,
		Cloudflare:        stream,
		Processing:        processing,
		Deleter:           deleter,
		Logger:            logg,
		AlchemySigningKey: cfg.Webhooks.AlchemySigningKey,
		StreamSigningKey:  cfg.Cloudflare.WebhookSigningKey,
		EncryptKey:        cfg.Webhooks.EncryptKey,
		MaxSignatureAge:   cfg.Webhooks.MaxSignatureAge,
	})
	requireResource(ctx, logg, "webhooks service", err)
	processed, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)
	svcs.PushGuard, err = processed.Scope("video-deleted-push")
	requireResource(ctx, logg, "push idempotency guard", err)

	deps := routes.Dependencies{
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"pubsub":   pubsubClient,
		},
		Idempotency: redisClient,
		RateLimiter: redisClient,
		Metrics:     metrics.NewHTTPMetrics(registry),
		Gatherer:    registry,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
