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
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	TicketCode    TicketCodeConfig
	Refund        RefundConfig
	Payments      PaymentsConfig
	Ledger        LedgerConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"EVENTGATE_APP_ENV" required:"true"`
	Port         string `envconfig:"EVENTGATE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EVENTGATE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EVENTGATE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"EVENTGATE_DB_DSN"`
	Driver string `envconfig:"EVENTGATE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EVENTGATE_DB_HOST"`
	LegacyPort     int    `envconfig:"EVENTGATE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EVENTGATE_DB_USER"`
	LegacyPassword string `envconfig:"EVENTGATE_DB_PASSWORD"`
	LegacyName     string `envconfig:"EVENTGATE_DB_NAME"`
	LegacySSLMode  string `envconfig:"EVENTGATE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EVENTGATE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EVENTGATE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EVENTGATE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EVENTGATE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EVENTGATE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EVENTGATE_REDIS_ADDR"`
	Password     string        `envconfig:"EVENTGATE_REDIS_PASSWORD"`
	DB           int           `envconfig:"EVENTGATE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EVENTGATE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EVENTGATE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EVENTGATE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EVENTGATE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EVENTGATE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"EVENTGATE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"EVENTGATE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"EVENTGATE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"EVENTGATE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EVENTGATE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EVENTGATE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EVENTGATE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EVENTGATE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EVENTGATE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"EVENTGATE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"EVENTGATE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"EVENTGATE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"EVENTGATE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"10m"`
	RegisterEmailLimit int           `envconfig:"EVENTGATE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"EVENTGATE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"10"`
}

// TicketCodeConfig carries the rotating signed code parameters. The window and
// grace values are behavior-critical: scanner apps bake in the same constants.
type TicketCodeConfig struct {
	SigningSecret string        `envconfig:"EVENTGATE_TICKET_CODE_SECRET" required:"true"`
	Window        time.Duration `envconfig:"EVENTGATE_TICKET_CODE_WINDOW" default:"30s"`
	Grace         time.Duration `envconfig:"EVENTGATE_TICKET_CODE_GRACE" default:"65s"`
}

// RefundConfig sets the approval tier thresholds, in cents.
type RefundConfig struct {
	AutoApproveLimitCents  int64 `envconfig:"EVENTGATE_REFUND_AUTO_LIMIT_CENTS" default:"5000"`
	DualApprovalLimitCents int64 `envconfig:"EVENTGATE_REFUND_DUAL_LIMIT_CENTS" default:"50000"`
}

// PaymentsConfig covers the inbound gateway webhook surface.
type PaymentsConfig struct {
	WebhookSecret   string        `envconfig:"EVENTGATE_PAYMENTS_WEBHOOK_SECRET" required:"true"`
	WebhookGuardTTL time.Duration `envconfig:"EVENTGATE_PAYMENTS_WEBHOOK_GUARD_TTL" default:"24h"`
	SystemActorID   string        `envconfig:"EVENTGATE_PAYMENTS_SYSTEM_ACTOR_ID" required:"true"`
}

// LedgerConfig identifies the platform's own ledger account.
type LedgerConfig struct {
	PlatformAccountID string `envconfig:"EVENTGATE_LEDGER_PLATFORM_ACCOUNT_ID" required:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EVENTGATE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"EVENTGATE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EVENTGATE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"EVENTGATE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EVENTGATE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"EVENTGATE_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"EVENTGATE_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"EVENTGATE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"EVENTGATE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"EVENTGATE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
