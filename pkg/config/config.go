package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	ServiceAuth  ServiceAuthConfig
	Wallet       WalletConfig
	Upload       UploadConfig
	Cloudflare   CloudflareConfig
	Webhooks     WebhooksConfig
	Session      SessionConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLIPSTREAM_APP_ENV" required:"true"`
	Port         string `envconfig:"CLIPSTREAM_APP_PORT" default:"4000"`
	LogLevel     string `envconfig:"CLIPSTREAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLIPSTREAM_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"CLIPSTREAM_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, AppEnvDevelopment)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, AppEnvProduction)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	parts := strings.Split(a.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"CLIPSTREAM_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CLIPSTREAM_DB_DSN"`
	Driver string `envconfig:"CLIPSTREAM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLIPSTREAM_DB_HOST"`
	LegacyPort     int    `envconfig:"CLIPSTREAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLIPSTREAM_DB_USER"`
	LegacyPassword string `envconfig:"CLIPSTREAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLIPSTREAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLIPSTREAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLIPSTREAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLIPSTREAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLIPSTREAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLIPSTREAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"CLIPSTREAM_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLIPSTREAM_REDIS_URL"`
	Address      string        `envconfig:"CLIPSTREAM_REDIS_ADDR"`
	Password     string        `envconfig:"CLIPSTREAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLIPSTREAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLIPSTREAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLIPSTREAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLIPSTREAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLIPSTREAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLIPSTREAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ServiceAuthConfig controls the identity attached to calls made to the
// private wallet and upload services.
type ServiceAuthConfig struct {
	Mode   string        `envconfig:"CLIPSTREAM_SERVICE_AUTH_MODE" default:"jwt"`
	Secret string        `envconfig:"CLIPSTREAM_SERVICE_AUTH_SECRET"`
	Issuer string        `envconfig:"CLIPSTREAM_SERVICE_AUTH_ISSUER" default:"clipstream-api"`
	TTL    time.Duration `envconfig:"CLIPSTREAM_SERVICE_AUTH_TTL" default:"5m"`
}

// UsesIDToken reports whether outbound calls are signed with Google ID tokens.
func (s ServiceAuthConfig) UsesIDToken() bool {
	return strings.EqualFold(strings.TrimSpace(s.Mode), ServiceAuthModeIDToken)
}

type WalletConfig struct {
	BaseURL string `envconfig:"CLIPSTREAM_WALLET_SERVICE_URL" default:"http://localhost:8000"`
	Message string `envconfig:"CLIPSTREAM_WALLET_SIGN_MESSAGE" required:"true"`
}

type UploadConfig struct {
	BaseURL string `envconfig:"CLIPSTREAM_UPLOAD_SERVICE_URL" default:"http://localhost:4444"`
}

type CloudflareConfig struct {
	BaseURL           string `envconfig:"CLIPSTREAM_CLOUDFLARE_BASE_URL" default:"https://api.cloudflare.com"`
	AccountID         string `envconfig:"CLIPSTREAM_CLOUDFLARE_ACCOUNT_ID"`
	APIToken          string `envconfig:"CLIPSTREAM_CLOUDFLARE_API_TOKEN"`
	WebhookSigningKey string `envconfig:"CLIPSTREAM_CLOUDFLARE_WEBHOOK_SIGNING_KEY"`
	LivePlaybackURL   string `envconfig:"CLIPSTREAM_CLOUDFLARE_LIVE_PLAYBACK_URL"`
	DefaultThumbnail  string `envconfig:"CLIPSTREAM_CLOUDFLARE_DEFAULT_LIVE_THUMBNAIL"`
}

type WebhooksConfig struct {
	AlchemySigningKey string        `envconfig:"CLIPSTREAM_ALCHEMY_WEBHOOK_SIGNING_KEY"`
	EncryptKey        string        `envconfig:"CLIPSTREAM_WEBHOOK_ENCRYPT_KEY"`
	MaxSignatureAge   time.Duration `envconfig:"CLIPSTREAM_WEBHOOK_MAX_SIGNATURE_AGE" default:"1h"`
}

type SessionConfig struct {
	DefaultProfileTTL time.Duration `envconfig:"CLIPSTREAM_SESSION_DEFAULT_PROFILE_TTL" default:"0s"`
}

type RateLimitConfig struct {
	CreateAccountWindow time.Duration `envconfig:"CLIPSTREAM_RATE_LIMIT_CREATE_ACCOUNT_WINDOW" default:"5m"`
	CreateAccountLimit  int           `envconfig:"CLIPSTREAM_RATE_LIMIT_CREATE_ACCOUNT_LIMIT" default:"10"`
	CountViewsWindow    time.Duration `envconfig:"CLIPSTREAM_RATE_LIMIT_COUNT_VIEWS_WINDOW" default:"1m"`
	CountViewsLimit     int           `envconfig:"CLIPSTREAM_RATE_LIMIT_COUNT_VIEWS_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CLIPSTREAM_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CLIPSTREAM_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CLIPSTREAM_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CLIPSTREAM_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CLIPSTREAM_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CLIPSTREAM_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PublishProcessingTopic    string `envconfig:"CLIPSTREAM_PUBSUB_PUBLISH_PROCESSING_TOPIC" default:"publish-processing"`
	NewNotificationTopic      string `envconfig:"CLIPSTREAM_PUBSUB_NEW_NOTIFICATION_TOPIC" default:"new-notification"`
	PublishDeletionTopic      string `envconfig:"CLIPSTREAM_PUBSUB_PUBLISH_DELETION_TOPIC" default:"publish-deleted"`
	VideoDeletionSubscription string `envconfig:"CLIPSTREAM_PUBSUB_VIDEO_DELETION_SUBSCRIPTION" default:"video-deleted-sub"`
	AnalyticsTopic            string `envconfig:"CLIPSTREAM_PUBSUB_ANALYTICS_TOPIC" default:"engagement-events"`
	AnalyticsSubscription     string `envconfig:"CLIPSTREAM_PUBSUB_ANALYTICS_SUBSCRIPTION" default:"engagement-events-sub"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"CLIPSTREAM_BIGQUERY_DATASET" default:"clipstream"`
	EngagementTable  string `envconfig:"CLIPSTREAM_BIGQUERY_ENGAGEMENT_TABLE" default:"engagement_events"`
	InsertBatchSize  int    `envconfig:"CLIPSTREAM_BIGQUERY_INSERT_BATCH_SIZE" default:"200"`
	InsertMaxRetries int    `envconfig:"CLIPSTREAM_BIGQUERY_INSERT_MAX_RETRIES" default:"3"`
	// CreateMissingTables lets the worker create absent tables from the row
	// schema instead of failing at startup.
	CreateMissingTables bool `envconfig:"CLIPSTREAM_BIGQUERY_CREATE_TABLES" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CLIPSTREAM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CLIPSTREAM_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CLIPSTREAM_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
