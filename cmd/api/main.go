package main

import (
	"context"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielcastano/eventgate-backend/api/routes"
	"github.com/danielcastano/eventgate-backend/internal/auth"
	"github.com/danielcastano/eventgate-backend/internal/entitlements"
	"github.com/danielcastano/eventgate-backend/internal/ledger"
	"github.com/danielcastano/eventgate-backend/internal/orders"
	"github.com/danielcastano/eventgate-backend/internal/users"
	paymentswebhook "github.com/danielcastano/eventgate-backend/internal/webhooks/payments"
	"github.com/danielcastano/eventgate-backend/pkg/auth/session"
	"github.com/danielcastano/eventgate-backend/pkg/config"
	"github.com/danielcastano/eventgate-backend/pkg/db"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
	"github.com/danielcastano/eventgate-backend/pkg/metrics"
	"github.com/danielcastano/eventgate-backend/pkg/migrate"
	"github.com/danielcastano/eventgate-backend/pkg/outbox"
	"github.com/danielcastano/eventgate-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	platformAccountID, err := uuid.Parse(cfg.Ledger.PlatformAccountID)
	if err != nil {
		logg.Error(context.Background(), "invalid platform account id", err)
		os.Exit(1)
	}
	systemActorID, err := uuid.Parse(cfg.Payments.SystemActorID)
	if err != nil {
		logg.Error(context.Background(), "invalid system actor id", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ledgerService, err := ledger.NewService(ledger.ServiceParams{
		Repo:              ledger.NewRepository(dbClient.DB()),
		Tx:                dbClient,
		Outbox:            outboxService,
		PlatformAccountID: platformAccountID,
		Metrics:           metrics.NewLedgerMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	codeSigner, err := entitlements.NewCodeSigner(cfg.TicketCode.SigningSecret, cfg.TicketCode.Window, cfg.TicketCode.Grace)
	if err != nil {
		logg.Error(context.Background(), "failed to create code signer", err)
		os.Exit(1)
	}
	entitlementsService, err := entitlements.NewService(entitlements.ServiceParams{
		Repo:    entitlements.NewRepository(dbClient.DB()),
		Tx:      dbClient,
		Outbox:  outboxService,
		Signer:  codeSigner,
		Metrics: metrics.NewScanMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create entitlements service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:                   orders.NewRepository(dbClient.DB()),
		Tx:                     dbClient,
		Outbox:                 outboxService,
		Entitlements:           entitlementsService,
		Ledger:                 ledgerService,
		AutoApproveLimitCents:  cfg.Refund.AutoApproveLimitCents,
		DualApprovalLimitCents: cfg.Refund.DualApprovalLimitCents,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	paymentsWebhookService, err := paymentswebhook.NewService(paymentswebhook.ServiceParams{
		Orders:        ordersService,
		Ledger:        ledgerService,
		SystemActorID: systemActorID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payments webhook service", err)
		os.Exit(1)
	}
	paymentsWebhookGuard, err := paymentswebhook.NewIdempotencyGuard(redisClient, cfg.Payments.WebhookGuardTTL, "payments")
	if err != nil {
		logg.Error(context.Background(), "failed to create payments webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			registerService,
			ordersService,
			entitlementsService,
			ledgerService,
			paymentsWebhookService,
			paymentsWebhookGuard,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
