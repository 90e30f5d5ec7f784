package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/clipstream-backend/api/controllers"
	webhookcontrollers "github.com/angelmondragon/clipstream-backend/api/controllers/webhooks"
	"github.com/angelmondragon/clipstream-backend/api/middleware"
	"github.com/angelmondragon/clipstream-backend/internal/accounts"
	"github.com/angelmondragon/clipstream-backend/internal/bookmarks"
	"github.com/angelmondragon/clipstream-backend/internal/comments"
	"github.com/angelmondragon/clipstream-backend/internal/dontrecommend"
	"github.com/angelmondragon/clipstream-backend/internal/notifications"
	"github.com/angelmondragon/clipstream-backend/internal/playlists"
	"github.com/angelmondragon/clipstream-backend/internal/profiles"
	"github.com/angelmondragon/clipstream-backend/internal/publishes"
	"github.com/angelmondragon/clipstream-backend/internal/reports"
	"github.com/angelmondragon/clipstream-backend/internal/streams"
	"github.com/angelmondragon/clipstream-backend/internal/watchlater"
	webhooksvc "github.com/angelmondragon/clipstream-backend/internal/webhooks"
	"github.com/angelmondragon/clipstream-backend/pkg/config"
	"github.com/angelmondragon/clipstream-backend/pkg/logger"
	"github.com/angelmondragon/clipstream-backend/pkg/metrics"
	"github.com/angelmondragon/clipstream-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/clipstream-backend/pkg/redis"
)

// Services holds the domain services mounted by the router.
type Services struct {
	Accounts      accounts.Service
	Profiles      profiles.Service
	Publishes     publishes.Service
	Comments      comments.Service
	Playlists     playlists.Service
	WatchLater    watchlater.Service
	Bookmarks     bookmarks.Service
	Notifications notifications.Service
	DontRecommend dontrecommend.Service
	Reports       reports.Service
	Streams       streams.Service
	Webhooks      *webhooksvc.Service
	PushGuard     *idempotency.Guard
}

// Dependencies holds the infrastructure the middleware chain and probes use.
type Dependencies struct {
	Pingers     map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Metrics     *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if svcs.Webhooks != nil {
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/address-updated", webhookcontrollers.AddressUpdated(svcs.Webhooks, logg))
			r.Get("/cloudflare", webhookcontrollers.CloudflareWebhook(svcs.Webhooks, logg))
			r.Get("/cloudflare/video", webhookcontrollers.LiveInputVideos(svcs.Webhooks, logg))
			r.Post("/cloudflare/finished", webhookcontrollers.TranscodingFinished(svcs.Webhooks, logg))
			r.Post("/pubsub/video-deleted", webhookcontrollers.VideoDeleted(svcs.Webhooks, svcs.PushGuard, logg))
		})
	}

	limits := map[string]middleware.RateLimitPolicy{
		"createAccount": middleware.NewRateLimitPolicy(
			"createAccount",
			cfg.RateLimit.CreateAccountWindow,
			cfg.RateLimit.CreateAccountLimit,
		),
		"countViews": middleware.NewRateLimitPolicy(
			"countViews",
			cfg.RateLimit.CountViewsWindow,
			cfg.RateLimit.CountViewsLimit,
		).PerField("publishId", cfg.RateLimit.CountViewsLimit),
	}

	r.Route("/graphql", func(r chi.Router) {
		r.Use(middleware.Credentials(logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		for _, op := range operations(svcs, logg) {
			if policy, ok := limits[op.Name]; ok {
				r.With(middleware.RateLimit(policy, deps.RateLimiter, logg)).Post("/"+op.Name, op.Handler)
				continue
			}
			r.Post("/"+op.Name, op.Handler)
		}
	})

	return r
}

func operations(svcs Services, logg *logger.Logger) []controllers.Operation {
	var ops []controllers.Operation
	if svcs.Accounts != nil {
		ops = append(ops, controllers.AccountOperations(svcs.Accounts, logg)...)
	}
	if svcs.Profiles != nil {
		ops = append(ops, controllers.ProfileOperations(svcs.Profiles, logg)...)
	}
	if svcs.Publishes != nil {
		ops = append(ops, controllers.PublishOperations(svcs.Publishes, logg)...)
	}
	if svcs.Comments != nil {
		ops = append(ops, controllers.CommentOperations(svcs.Comments, logg)...)
	}
	if svcs.Playlists != nil {
		ops = append(ops, controllers.PlaylistOperations(svcs.Playlists, logg)...)
	}
	if svcs.WatchLater != nil {
		ops = append(ops, controllers.WatchLaterOperations(svcs.WatchLater, logg)...)
	}
	if svcs.Bookmarks != nil {
		ops = append(ops, controllers.BookmarkOperations(svcs.Bookmarks, logg)...)
	}
	if svcs.Notifications != nil {
		ops = append(ops, controllers.NotificationOperations(svcs.Notifications, logg)...)
	}
	if svcs.DontRecommend != nil {
		ops = append(ops, controllers.DontRecommendOperations(svcs.DontRecommend, logg)...)
	}
	if svcs.Reports != nil {
		ops = append(ops, controllers.ReportOperations(svcs.Reports, logg)...)
	}
	if svcs.Streams != nil {
		ops = append(ops, controllers.StreamOperations(svcs.Streams, logg)...)
	}
	return ops
}
