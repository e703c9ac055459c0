package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "FULFILLMENT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv    = "FULFILLMENT_APP_ENV"
	EnvPort      = "FULFILLMENT_APP_PORT"
	EnvLogLevel  = "FULFILLMENT_LOG_LEVEL"
	EnvLogFormat = "FULFILLMENT_LOG_FORMAT"
	EnvDBDSN     = "FULFILLMENT_DB_DSN"
	EnvDBHost    = "FULFILLMENT_DB_HOST"
	EnvDBUser    = "FULFILLMENT_DB_USER"
	EnvDBName    = "FULFILLMENT_DB_NAME"
	EnvRedisURL  = "FULFILLMENT_REDIS_URL"
	EnvJWTSecret = "FULFILLMENT_JWT_SECRET"
	EnvJWTIssuer = "FULFILLMENT_JWT_ISSUER"
	EnvJWTExpMin = "FULFILLMENT_JWT_EXPIRATION_MINUTES"

	EnvIdempotencyTTL  = "FULFILLMENT_IDEMPOTENCY_TTL"
	EnvRestockOnReject = "FULFILLMENT_RESTOCK_ON_REJECT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
