package config

// EnvPrefix is passed to envconfig; individual fields carry fully prefixed names.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv                = "EVENTGATE_APP_ENV"
	EnvPort                  = "EVENTGATE_APP_PORT"
	EnvDBDSN                 = "EVENTGATE_DB_DSN"
	EnvDBHost                = "EVENTGATE_DB_HOST"
	EnvDBUser                = "EVENTGATE_DB_USER"
	EnvDBName                = "EVENTGATE_DB_NAME"
	EnvRedisURL              = "EVENTGATE_REDIS_URL"
	EnvJWTSecret             = "EVENTGATE_JWT_SECRET"
	EnvJWTIssuer             = "EVENTGATE_JWT_ISSUER"
	EnvJWTExpMins            = "EVENTGATE_JWT_EXPIRATION_MINUTES"
	EnvTicketCodeSecret      = "EVENTGATE_TICKET_CODE_SECRET"
	EnvPaymentsWebhookSecret = "EVENTGATE_PAYMENTS_WEBHOOK_SECRET"
	EnvPaymentsSystemActorID = "EVENTGATE_PAYMENTS_SYSTEM_ACTOR_ID"
	EnvLedgerPlatformAccount = "EVENTGATE_LEDGER_PLATFORM_ACCOUNT_ID"
	EnvGCPProjectID          = "EVENTGATE_GCP_PROJECT_ID"
	EnvPubSubDomainTopic     = "EVENTGATE_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub       = "EVENTGATE_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
