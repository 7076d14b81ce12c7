package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Idempotency   IdempotencyConfig
	Retry         RetryConfig
	GCP           GCPConfig
	Storage       StorageConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env          string `envconfig:"ELECTROMART_APP_ENV" required:"true"`
	Port         string `envconfig:"ELECTROMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ELECTROMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ELECTROMART_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"ELECTROMART_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type ServiceConfig struct {
	Kind string `envconfig:"ELECTROMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ELECTROMART_DB_DSN"`
	Driver string `envconfig:"ELECTROMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ELECTROMART_DB_HOST"`
	LegacyPort     int    `envconfig:"ELECTROMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ELECTROMART_DB_USER"`
	LegacyPassword string `envconfig:"ELECTROMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"ELECTROMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"ELECTROMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ELECTROMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ELECTROMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ELECTROMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ELECTROMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ELECTROMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ELECTROMART_REDIS_ADDR"`
	Password     string        `envconfig:"ELECTROMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"ELECTROMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ELECTROMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ELECTROMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ELECTROMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ELECTROMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ELECTROMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ELECTROMART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ELECTROMART_JWT_ISSUER" default:"electromart"`
	ExpirationMinutes      int    `envconfig:"ELECTROMART_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"ELECTROMART_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ELECTROMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ELECTROMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ELECTROMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ELECTROMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ELECTROMART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"ELECTROMART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"ELECTROMART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"ELECTROMART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"ELECTROMART_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"ELECTROMART_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"ELECTROMART_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ELECTROMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ELECTROMART_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	CheckoutTTL time.Duration `envconfig:"ELECTROMART_IDEMPOTENCY_CHECKOUT_TTL" default:"24h"`
}

type RetryConfig struct {
	MaxRetries uint64        `envconfig:"ELECTROMART_RETRY_MAX_RETRIES" default:"3"`
	BaseDelay  time.Duration `envconfig:"ELECTROMART_RETRY_BASE_DELAY" default:"50ms"`
	MaxDelay   time.Duration `envconfig:"ELECTROMART_RETRY_MAX_DELAY" default:"1s"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ELECTROMART_GCP_PROJECT_ID"`
}

type StorageConfig struct {
	// BucketURL is a gocloud.dev bucket URL (gs://, file://, mem://).
	BucketURL     string `envconfig:"ELECTROMART_STORAGE_BUCKET_URL" default:"mem://"`
	PublicBaseURL string `envconfig:"ELECTROMART_STORAGE_PUBLIC_BASE_URL" required:"true"`
	MaxUploadMB   int    `envconfig:"ELECTROMART_STORAGE_MAX_UPLOAD_MB" default:"10"`
}

type PubSubConfig struct {
	OrdersTopic   string `envconfig:"ELECTROMART_PUBSUB_ORDERS_TOPIC" default:"electromart-orders"`
	AccountsTopic string `envconfig:"ELECTROMART_PUBSUB_ACCOUNTS_TOPIC" default:"electromart-accounts"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ELECTROMART_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ELECTROMART_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ELECTROMART_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig drives the maintenance worker.
type CronConfig struct {
	Interval            time.Duration `envconfig:"ELECTROMART_CRON_INTERVAL" default:"1h"`
	OutboxRetentionDays int           `envconfig:"ELECTROMART_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	OutboxKeepAttempts  int           `envconfig:"ELECTROMART_CRON_OUTBOX_KEEP_ATTEMPTS" default:"5"`
	OrphanImageGrace    time.Duration `envconfig:"ELECTROMART_CRON_ORPHAN_IMAGE_GRACE" default:"24h"`
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
