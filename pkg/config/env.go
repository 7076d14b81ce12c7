package config

const (
	EnvPrefix = "ELECTROMART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "ELECTROMART_APP_ENV"
	EnvPort     = "ELECTROMART_APP_PORT"
	EnvDBDSN    = "ELECTROMART_DB_DSN"
	EnvDBHost   = "ELECTROMART_DB_HOST"
	EnvDBUser   = "ELECTROMART_DB_USER"
	EnvDBName   = "ELECTROMART_DB_NAME"
	EnvDBPort   = "ELECTROMART_DB_PORT"
	EnvDBPass   = "ELECTROMART_DB_PASSWORD"
	EnvRedisURL = "ELECTROMART_REDIS_URL"

	EnvJWTSecret              = "ELECTROMART_JWT_SECRET"
	EnvJWTIssuer              = "ELECTROMART_JWT_ISSUER"
	EnvJWTExpMins             = "ELECTROMART_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ELECTROMART_REFRESH_TOKEN_TTL_MINUTES"

	EnvStoragePublicBaseURL = "ELECTROMART_STORAGE_PUBLIC_BASE_URL"
	EnvStorageBucketURL     = "ELECTROMART_STORAGE_BUCKET_URL"
	EnvPubSubOrdersTopic    = "ELECTROMART_PUBSUB_ORDERS_TOPIC"
	EnvRetryMaxRetries      = "ELECTROMART_RETRY_MAX_RETRIES"
	EnvCORSOrigins          = "ELECTROMART_CORS_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
