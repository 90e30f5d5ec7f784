package config

// EnvPrefix is the namespace shared by every service setting.
const EnvPrefix = "CLIPSTREAM"

const (
	AppEnvDev         = "dev"
	AppEnvDevelopment = "development"
	AppEnvProd        = "prod"
	AppEnvProduction  = "production"

	ServiceAuthModeJWT     = "jwt"
	ServiceAuthModeIDToken = "idtoken"
)

const (
	EnvAppEnv            = "CLIPSTREAM_APP_ENV"
	EnvPort              = "CLIPSTREAM_APP_PORT"
	EnvDBDSN             = "CLIPSTREAM_DB_DSN"
	EnvDBHost            = "CLIPSTREAM_DB_HOST"
	EnvDBUser            = "CLIPSTREAM_DB_USER"
	EnvDBPassword        = "CLIPSTREAM_DB_PASSWORD"
	EnvDBName            = "CLIPSTREAM_DB_NAME"
	EnvRedisURL          = "CLIPSTREAM_REDIS_URL"
	EnvGCPProjectID      = "CLIPSTREAM_GCP_PROJECT_ID"
	EnvWalletMessage     = "CLIPSTREAM_WALLET_SIGN_MESSAGE"
	EnvWalletURL         = "CLIPSTREAM_WALLET_SERVICE_URL"
	EnvServiceAuthMode   = "CLIPSTREAM_SERVICE_AUTH_MODE"
	EnvServiceAuthSecret = "CLIPSTREAM_SERVICE_AUTH_SECRET"
	EnvProcessingTopic   = "CLIPSTREAM_PUBSUB_PUBLISH_PROCESSING_TOPIC"
	EnvCORSOrigins       = "CLIPSTREAM_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
