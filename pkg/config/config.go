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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Fulfillment  FulfillmentConfig
	Maintenance  MaintenanceConfig
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
	Env          string `envconfig:"FULFILLMENT_APP_ENV" required:"true"`
	Port         string `envconfig:"FULFILLMENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FULFILLMENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FULFILLMENT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"FULFILLMENT_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FULFILLMENT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FULFILLMENT_DB_DSN"`
	Driver string `envconfig:"FULFILLMENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FULFILLMENT_DB_HOST"`
	LegacyPort     int    `envconfig:"FULFILLMENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FULFILLMENT_DB_USER"`
	LegacyPassword string `envconfig:"FULFILLMENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FULFILLMENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FULFILLMENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FULFILLMENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FULFILLMENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FULFILLMENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FULFILLMENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FULFILLMENT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FULFILLMENT_REDIS_ADDR"`
	Password     string        `envconfig:"FULFILLMENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FULFILLMENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FULFILLMENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FULFILLMENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FULFILLMENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FULFILLMENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FULFILLMENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FULFILLMENT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FULFILLMENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FULFILLMENT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FULFILLMENT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FULFILLMENT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FULFILLMENT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FULFILLMENT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FULFILLMENT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"FULFILLMENT_PUBSUB_ORDERS_TOPIC" default:"fulfillment-order-events"`
	StockTopic  string `envconfig:"FULFILLMENT_PUBSUB_STOCK_TOPIC" default:"fulfillment-stock-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FULFILLMENT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FULFILLMENT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FULFILLMENT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PollInterval converts the configured poll interval into a duration.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type FulfillmentConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FULFILLMENT_IDEMPOTENCY_TTL" default:"24h"`
	// RestockOnReject returns every line's quantity to stock when a pending order is rejected.
	RestockOnReject bool `envconfig:"FULFILLMENT_RESTOCK_ON_REJECT" default:"true"`
}

type MaintenanceConfig struct {
	Interval            time.Duration `envconfig:"FULFILLMENT_MAINTENANCE_INTERVAL" default:"6h"`
	LockTTL             time.Duration `envconfig:"FULFILLMENT_MAINTENANCE_LOCK_TTL" default:"30m"`
	OutboxRetentionDays int           `envconfig:"FULFILLMENT_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"FULFILLMENT_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
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
